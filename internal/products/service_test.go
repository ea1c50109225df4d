package products

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db/models"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/enums"
	pkgerrors "github.com/Kunwar-bir-singh/Online-Assessment/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Product{}))
	return conn
}

func mustCreateTestProduct(t *testing.T, conn *gorm.DB, name string, price string, category enums.ProductCategory) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:        name,
		Description: "test item",
		Price:       decimal.RequireFromString(price),
		Category:    category,
		ImageURL:    "https://images.example.com/test.jpg",
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestListProducts(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	mustCreateTestProduct(t, conn, "Margherita Pizza", "12.99", enums.ProductCategoryMain)
	mustCreateTestProduct(t, conn, "Tiramisu", "6.99", enums.ProductCategoryDessert)

	all, err := svc.ListProducts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	category := enums.ProductCategoryDessert
	desserts, err := svc.ListProducts(ctx, &category)
	require.NoError(t, err)
	require.Len(t, desserts, 1)
	require.Equal(t, "Tiramisu", desserts[0].Name)
	require.Equal(t, "6.99", desserts[0].Price.StringFixed(2))
}

func TestListProductsInvalidCategory(t *testing.T) {
	svc, _ := newTestService(t)

	bogus := enums.ProductCategory("breakfast")
	_, err := svc.ListProducts(context.Background(), &bogus)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestGetProduct(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	created := mustCreateTestProduct(t, conn, "Garlic Bread", "4.99", enums.ProductCategorySide)

	got, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "4.99", got.Price.StringFixed(2))
}

func TestGetProductNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetProduct(context.Background(), 9999)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestRepositoryFindByIDs(t *testing.T) {
	_, conn := newTestService(t)
	ctx := context.Background()

	a := mustCreateTestProduct(t, conn, "Lemonade", "3.99", enums.ProductCategoryDrink)
	b := mustCreateTestProduct(t, conn, "Bruschetta", "6.49", enums.ProductCategoryStarter)

	repo := NewRepository(conn)
	byID, err := repo.FindByIDs(ctx, []int64{a.ID, b.ID, 12345})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	require.Equal(t, "Lemonade", byID[a.ID].Name)

	empty, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
