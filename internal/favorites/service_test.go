package favorites

import (
	"context"
	"testing"

	"github.com/freshmart/storefront-backend/internal/catalog"
	"github.com/freshmart/storefront-backend/pkg/db/dbtest"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t, "favorites")
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), Catalog: catalogSvc})
	require.NoError(t, err)
	return svc, conn
}

func seedProduct(t *testing.T, conn *gorm.DB, name string) uint64 {
	t.Helper()
	product := models.Product{Name: name, Price: decimal.NewFromInt(3), Stock: 10}
	require.NoError(t, conn.Create(&product).Error)
	return product.ID
}

func TestSetIsIdempotent(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	tea := seedProduct(t, conn, "Tea")

	require.NoError(t, svc.Set(ctx, 7, tea, true))
	require.NoError(t, svc.Set(ctx, 7, tea, true))

	ids, err := svc.ListForUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []uint64{tea}, ids)

	require.NoError(t, svc.Set(ctx, 7, tea, false))
	require.NoError(t, svc.Set(ctx, 7, tea, false))

	ids, err = svc.ListForUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSetMissingProduct(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Set(context.Background(), 7, 404, true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestProductsSkipsDeleted(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	tea := seedProduct(t, conn, "Tea")
	jam := seedProduct(t, conn, "Jam")

	require.NoError(t, svc.Set(ctx, 7, tea, true))
	require.NoError(t, svc.Set(ctx, 7, jam, true))
	require.NoError(t, conn.Delete(&models.Product{}, jam).Error)

	products, err := svc.Products(ctx, 7)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Tea", products[0].Name)
}

func TestAnonymousListIsEmpty(t *testing.T) {
	svc, _ := newService(t)
	ids, err := svc.ListForUser(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
