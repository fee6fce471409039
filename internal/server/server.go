package server

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/config"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/handler"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/middleware"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/service"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
}

func NewServer(
	checkoutService service.CheckoutService,
	reconcileService service.ReconcileService,
	providerCfg *config.PayMongo,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:            e,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
		webhookHandler:  handler.NewWebhookHandler(reconcileService, providerCfg),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	api.POST("/checkout", s.checkoutHandler.Checkout, middleware.Principal())
	api.GET("/intents/:id", s.checkoutHandler.GetIntent)
	api.GET("/orders/by-intent/:intentID", s.checkoutHandler.GetOrderByIntent)

	// -------- provider webhooks --------
	payments := api.Group("/payments")
	payments.POST("/webhook", s.webhookHandler.HandleWebhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
