package models

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

var orderDay = NewDate(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedOrder(t *testing.T, repo *OrdersRepository, clientID uint, lines ...OrderLine) *Order {
	t.Helper()
	ctx := context.Background()
	order := &Order{
		Code:      "PED-1",
		ClientID:  clientID,
		OrderDate: orderDay,
		Status:    StatusPending,
	}
	require.NoError(t, repo.CreateOrder(ctx, order))
	require.NotZero(t, order.ID)
	for i := range lines {
		lines[i].OrderID = order.ID
		require.NoError(t, repo.CreateLine(ctx, &lines[i]))
	}
	return order
}

func TestFindOrderView(t *testing.T) {
	db := getTestDB(t)
	repo := NewOrdersRepository(db)
	ctx := context.Background()

	surname := "Quispe"
	client := Client{Name: "Rosa", Surname: &surname, Email: "rosa@example.com", Phone: "555", Address: "Av. Sol 1"}
	require.NoError(t, db.Create(&client).Error)
	product := Product{Name: "Lapicero", Description: "Azul", Price: money("3.50"), Image: "lapicero.png"}
	require.NoError(t, db.Create(&product).Error)

	order := seedOrder(t, repo, client.ID,
		OrderLine{ProductID: product.ID, Quantity: 2, UnitPrice: money("3.50")},
		OrderLine{ProductID: 9999, Quantity: 1, UnitPrice: money("1.25")},
	)

	view, err := repo.FindOrderView(ctx, order.ID)
	require.NoError(t, err)

	assert.Equal(t, order.ID, view.ID)
	assert.Equal(t, "PED-1", view.Code)
	assert.Equal(t, "2026-03-09", view.OrderDate.String())
	require.NotNil(t, view.ClientName)
	assert.Equal(t, "Rosa", *view.ClientName)
	assert.Equal(t, "Quispe", *view.ClientSurname)
	assert.Equal(t, "rosa@example.com", *view.ClientEmail)
	assert.Equal(t, "555", *view.ClientPhone)
	assert.Equal(t, "Av. Sol 1", *view.ClientAddress)

	require.Len(t, view.Lines, 2)
	first := view.Lines[0]
	assert.Equal(t, 2, first.Quantity)
	assert.True(t, money("3.50").Equal(first.UnitPrice))
	require.NotNil(t, first.ProductName)
	assert.Equal(t, "Lapicero", *first.ProductName)
	assert.Equal(t, "Azul", *first.ProductDescription)
	assert.Equal(t, "lapicero.png", *first.ProductImage)
	assert.Nil(t, view.Lines[1].ProductName, "missing product is a null join, not an error")
}

func TestFindOrderViewMissingClient(t *testing.T) {
	repo := NewOrdersRepository(getTestDB(t))
	order := seedOrder(t, repo, 4242)

	view, err := repo.FindOrderView(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Nil(t, view.ClientName)
	assert.Nil(t, view.ClientEmail)
	assert.Empty(t, view.Lines)
}

func TestFindOrderViewNotFound(t *testing.T) {
	repo := NewOrdersRepository(getTestDB(t))
	_, err := repo.FindOrderView(context.Background(), 1)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrderSummaries(t *testing.T) {
	db := getTestDB(t)
	repo := NewOrdersRepository(db)
	client := Client{Name: "Luis"}
	require.NoError(t, db.Create(&client).Error)

	older := seedOrder(t, repo, client.ID,
		OrderLine{ProductID: 1, Quantity: 2, UnitPrice: money("1")},
		OrderLine{ProductID: 2, Quantity: 5, UnitPrice: money("1")},
	)
	newer := seedOrder(t, repo, 777)

	list, err := repo.ListOrderSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, newer.ID, list[0].ID)
	assert.Zero(t, list[0].LineCount)
	assert.Zero(t, list[0].ItemCount)
	assert.Nil(t, list[0].ClientName)

	assert.Equal(t, older.ID, list[1].ID)
	assert.Equal(t, int64(2), list[1].LineCount)
	assert.Equal(t, int64(7), list[1].ItemCount)
	require.NotNil(t, list[1].ClientName)
	assert.Equal(t, "Luis", *list[1].ClientName)
}

func TestDeleteOrderCascades(t *testing.T) {
	db := getTestDB(t)
	repo := NewOrdersRepository(db)
	ctx := context.Background()

	order := seedOrder(t, repo, 1,
		OrderLine{ProductID: 1, Quantity: 1, UnitPrice: money("1")},
		OrderLine{ProductID: 2, Quantity: 1, UnitPrice: money("1")},
	)
	other := seedOrder(t, repo, 1, OrderLine{ProductID: 3, Quantity: 1, UnitPrice: money("1")})

	deleted, err := repo.DeleteOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	exists, err := repo.OrderExists(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	lines, err := repo.ListLines(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = repo.ListLines(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1, "other orders keep their lines")

	deleted, err = repo.DeleteOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteLineScoped(t *testing.T) {
	repo := NewOrdersRepository(getTestDB(t))
	ctx := context.Background()

	a := seedOrder(t, repo, 1, OrderLine{ProductID: 1, Quantity: 1, UnitPrice: money("1")})
	b := seedOrder(t, repo, 1, OrderLine{ProductID: 1, Quantity: 1, UnitPrice: money("1")})
	bLines, err := repo.ListLines(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, bLines, 1)

	deleted, err := repo.DeleteLine(ctx, a.ID, bLines[0].ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteLine(ctx, b.ID, bLines[0].ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestUpdateTotalsAndHeader(t *testing.T) {
	db := getTestDB(t)
	repo := NewOrdersRepository(db)
	ctx := context.Background()
	order := seedOrder(t, repo, 1)

	require.NoError(t, repo.UpdateTotals(ctx, order.ID, money("25"), money("4.50"), money("29.50")))

	delivery, err := ParseDate("2026-05-20")
	require.NoError(t, err)
	found, err := repo.UpdateHeader(ctx, order.ID, map[string]any{
		"estado":        StatusShipped,
		"fecha_entrega": delivery,
		"notas":         "tocar timbre",
	})
	require.NoError(t, err)
	assert.True(t, found)

	var got Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.True(t, money("25").Equal(got.Subtotal))
	assert.True(t, money("4.5").Equal(got.Tax))
	assert.True(t, money("29.5").Equal(got.Total))
	assert.Equal(t, StatusShipped, got.Status)
	require.NotNil(t, got.DeliveryDate)
	assert.Equal(t, "2026-05-20", got.DeliveryDate.String())
	require.NotNil(t, got.Notes)
	assert.Equal(t, "tocar timbre", *got.Notes)

	found, err = repo.UpdateHeader(ctx, 999, map[string]any{"estado": StatusShipped})
	require.NoError(t, err)
	assert.False(t, found)
}
