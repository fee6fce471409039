package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/client"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/config"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.OpenDatabase(config.Database{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)
	return db
}

func sampleIntent() *model.Intent {
	return &model.Intent{
		OwnerEmail: "buyer@example.com",
		Address:    model.Address{Line1: "1 Mabini St", City: "Manila"},
		Items: []model.IntentItem{
			{Name: "Chicken adobo", UnitPrice: decimal.RequireFromString("40.00"), Quantity: 1},
		},
		TotalAmount: decimal.RequireFromString("90.00"),
	}
}

func TestIntentRepository_CreateAssignsDefaults(t *testing.T) {
	repo := NewIntentRepository(newTestDB(t))
	ctx := context.Background()

	intent := sampleIntent()
	require.NoError(t, repo.Create(ctx, intent))
	assert.NotEmpty(t, intent.ID)
	assert.Equal(t, model.IntentStatusOpen, intent.Status)

	loaded, err := repo.Get(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", loaded.OwnerEmail)
	require.Len(t, loaded.Items, 1)
	assert.True(t, loaded.Items[0].UnitPrice.Equal(decimal.RequireFromString("40.00")))
}

func TestIntentRepository_CreateValidation(t *testing.T) {
	repo := NewIntentRepository(newTestDB(t))
	ctx := context.Background()

	noOwner := sampleIntent()
	noOwner.OwnerEmail = ""
	assert.ErrorIs(t, repo.Create(ctx, noOwner), ErrValidation)

	noItems := sampleIntent()
	noItems.Items = nil
	assert.ErrorIs(t, repo.Create(ctx, noItems), ErrValidation)
}

func TestIntentRepository_SessionRefLookup(t *testing.T) {
	repo := NewIntentRepository(newTestDB(t))
	ctx := context.Background()

	intent := sampleIntent()
	require.NoError(t, repo.Create(ctx, intent))

	// an empty ref must never match intents that have no session yet
	_, err := repo.FindBySessionRef(ctx, "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.SetSessionRef(ctx, intent.ID, "cs_ref_1"))
	found, err := repo.FindBySessionRef(ctx, "cs_ref_1")
	require.NoError(t, err)
	assert.Equal(t, intent.ID, found.ID)
}

func TestIntentRepository_MarkPaidIsSafeTwice(t *testing.T) {
	db := newTestDB(t)
	repo := NewIntentRepository(db)
	ctx := context.Background()

	intent := sampleIntent()
	require.NoError(t, repo.Create(ctx, intent))

	for i := 0; i < 2; i++ {
		paid, err := repo.MarkPaid(ctx, db, intent.ID)
		require.NoError(t, err)
		assert.Equal(t, model.IntentStatusPaid, paid.Status)
	}
}

func TestIntentRepository_MarkCanceled(t *testing.T) {
	db := newTestDB(t)
	repo := NewIntentRepository(db)
	ctx := context.Background()

	open := sampleIntent()
	require.NoError(t, repo.Create(ctx, open))
	canceled, err := repo.MarkCanceled(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IntentStatusCanceled, canceled.Status)

	// canceling a paid intent leaves it paid
	paid := sampleIntent()
	require.NoError(t, repo.Create(ctx, paid))
	_, err = repo.MarkPaid(ctx, db, paid.ID)
	require.NoError(t, err)

	still, err := repo.MarkCanceled(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IntentStatusPaid, still.Status)
}

func TestOrderRepository_UniqueIntentRef(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := &model.Order{
		OwnerEmail:  "buyer@example.com",
		TotalAmount: decimal.RequireFromString("90.00"),
		Paid:        true,
		Provenance:  model.PaymentProvenance{Provider: "paymongo", EventKind: "payment.paid", IntentRef: "intent-1"},
	}
	require.NoError(t, repo.Create(ctx, db, order))

	second := &model.Order{
		OwnerEmail:  "buyer@example.com",
		TotalAmount: decimal.RequireFromString("90.00"),
		Paid:        true,
		Provenance:  model.PaymentProvenance{Provider: "paymongo", EventKind: "payment.paid", IntentRef: "intent-1"},
	}
	err := repo.Create(ctx, db, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	exists, err := repo.ExistsByIntentRef(ctx, db, "intent-1")
	require.NoError(t, err)
	assert.True(t, exists)
}
