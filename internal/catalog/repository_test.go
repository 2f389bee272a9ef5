package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a no-TTL map store for tests.
type fakeStore struct {
	items map[string]any
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[string]any)}
}

func (s *fakeStore) Get(key string) (any, bool) {
	v, ok := s.items[key]
	return v, ok
}

func (s *fakeStore) Set(key string, value any, _ time.Duration) {
	s.items[key] = value
}

func (s *fakeStore) Delete(key string) {
	delete(s.items, key)
}

func TestGetProductPrice(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewRepository(db, newFakeStore())

		mock.ExpectQuery("SELECT id, name, regular_price, discount, stock FROM products").
			WithArgs("prod-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "regular_price", "discount", "stock"}).
				AddRow("prod-1", "Kopi Gayo 250g", int64(100000), 10, 25))

		info, err := repo.GetProductPrice(context.Background(), "prod-1")
		require.NoError(t, err)
		assert.Equal(t, int64(100000), info.RegularPrice)
		assert.Equal(t, 10, info.Discount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CachedSecondRead", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewRepository(db, newFakeStore())

		// Only one query expected for two reads.
		mock.ExpectQuery("SELECT id, name, regular_price, discount, stock FROM products").
			WithArgs("prod-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "regular_price", "discount", "stock"}).
				AddRow("prod-1", "Kopi Gayo 250g", int64(100000), 10, 25))

		_, err = repo.GetProductPrice(context.Background(), "prod-1")
		require.NoError(t, err)

		info, err := repo.GetProductPrice(context.Background(), "prod-1")
		require.NoError(t, err)
		assert.Equal(t, int64(100000), info.RegularPrice)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewRepository(db, newFakeStore())

		mock.ExpectQuery("SELECT id, name, regular_price, discount, stock FROM products").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "regular_price", "discount", "stock"}))

		_, err = repo.GetProductPrice(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetEligibleCampaignItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db, newFakeStore())
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	limit := 100
	rows := sqlmock.NewRows([]string{
		"id", "campaign_id", "name", "priority", "product_id", "variant_id",
		"discount_type", "discount_value", "stock_limit", "sold_count",
	}).
		AddRow("ci-1", "camp-1", "Flash Sale", 10, "prod-1", nil, "PERCENT", int64(20), limit, 40).
		AddRow("ci-2", "camp-2", "Mid Year", 5, "prod-1", nil, "FIXED", int64(5000), nil, 0)

	mock.ExpectQuery("SELECT(.|\n)+FROM campaign_items").
		WithArgs("prod-1", nil, now).
		WillReturnRows(rows)

	items, err := repo.GetEligibleCampaignItems(context.Background(), "prod-1", nil, now)
	require.NoError(t, err)

	// Priority order from the query is preserved.
	require.Len(t, items, 2)
	assert.Equal(t, "Flash Sale", items[0].CampaignName)
	assert.Equal(t, DiscountPercent, items[0].DiscountType)
	assert.Equal(t, "Mid Year", items[1].CampaignName)
	assert.Nil(t, items[1].StockLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetItemSnapshot(t *testing.T) {
	t.Run("Product", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewRepository(db, newFakeStore())

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT name, COALESCE").
			WithArgs("prod-1").
			WillReturnRows(sqlmock.NewRows([]string{"name", "imageurl", "stock", "weight", "length", "width", "height"}).
				AddRow("Kopi Gayo 250g", "https://img/kopi.jpg", 25, 300, 10, 10, 15))

		tx, err := db.Begin()
		require.NoError(t, err)

		snap, err := repo.GetItemSnapshot(context.Background(), tx, "prod-1", nil)
		require.NoError(t, err)
		assert.Equal(t, "Kopi Gayo 250g", snap.Name)
		assert.Equal(t, 25, snap.Stock)
		assert.Equal(t, 300, snap.Weight)
	})

	t.Run("Variant", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewRepository(db, newFakeStore())
		variantID := "var-1"

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT v.name, COALESCE").
			WithArgs(variantID).
			WillReturnRows(sqlmock.NewRows([]string{"name", "imageurl", "stock", "weight", "length", "width", "height"}).
				AddRow("Kopi Gayo 1kg", "", 5, 1000, 12, 12, 20))

		tx, err := db.Begin()
		require.NoError(t, err)

		snap, err := repo.GetItemSnapshot(context.Background(), tx, "prod-1", &variantID)
		require.NoError(t, err)
		assert.Equal(t, "Kopi Gayo 1kg", snap.Name)
		assert.Equal(t, 5, snap.Stock)
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewRepository(db, newFakeStore())

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT name, COALESCE").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"name", "imageurl", "stock", "weight", "length", "width", "height"}))

		tx, err := db.Begin()
		require.NoError(t, err)

		_, err = repo.GetItemSnapshot(context.Background(), tx, "missing", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
