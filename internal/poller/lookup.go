package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/model"
)

// NewHTTPLookup returns a Lookup backed by the service's order-by-intent
// endpoint. A 404 from the endpoint means "not yet", every other non-200 is
// a real error.
func NewHTTPLookup(baseURL string, httpClient *http.Client) Lookup {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	base := strings.TrimRight(baseURL, "/")

	return func(ctx context.Context, intentID string) (*model.Order, error) {
		endpoint := fmt.Sprintf("%s/api/orders/by-intent/%s", base, url.PathEscape(intentID))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("http new request: %w", err)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("lookup order: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotYet
		case resp.StatusCode != http.StatusOK:
			b, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("lookup order: status %d: %s", resp.StatusCode, string(b))
		}

		var order model.Order
		if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		return &order, nil
	}
}
