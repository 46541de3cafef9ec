package models

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrOrderNotFound is returned when an order header does not exist.
var ErrOrderNotFound = errors.New("order not found")

// OrderView is an order header joined with its client and enriched lines.
// Client and product fields are nil when the referenced row is missing.
type OrderView struct {
	Order
	ClientName    *string         `json:"cliente_nombre"`
	ClientSurname *string         `json:"cliente_apellido"`
	ClientEmail   *string         `json:"cliente_email"`
	ClientPhone   *string         `json:"cliente_telefono"`
	ClientAddress *string         `json:"cliente_direccion"`
	Lines         []OrderLineView `gorm:"-" json:"detalles"`
}

type OrderLineView struct {
	OrderLine
	ProductName        *string `json:"producto_nombre"`
	ProductDescription *string `json:"producto_descripcion"`
	ProductImage       *string `json:"producto_imagen"`
}

// OrderSummary is the list row: header, client name and line aggregates.
type OrderSummary struct {
	Order
	ClientName    *string `json:"cliente_nombre"`
	ClientSurname *string `json:"cliente_apellido"`
	ClientEmail   *string `json:"cliente_email"`
	LineCount     int64   `json:"total_productos"`
	ItemCount     int64   `json:"total_items"`
}

type OrdersRepository struct {
	db *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		db: db,
	}
}

func (r *OrdersRepository) CreateOrder(ctx context.Context, order *Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrdersRepository) CreateLine(ctx context.Context, line *OrderLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// DeleteOrder removes the header and all of its lines in one transaction.
// It reports false when no header matched.
func (r *OrdersRepository) DeleteOrder(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pedido_id = ?", id).Delete(&OrderLine{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Order{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// DeleteLine deletes the line only if it belongs to orderID.
func (r *OrdersRepository) DeleteLine(ctx context.Context, orderID, lineID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND pedido_id = ?", lineID, orderID).
		Delete(&OrderLine{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrdersRepository) OrderExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *OrdersRepository) ListLines(ctx context.Context, orderID uint) ([]OrderLine, error) {
	var lines []OrderLine
	if err := r.db.WithContext(ctx).
		Where("pedido_id = ?", orderID).
		Order("id").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// UpdateTotals writes the three derived money fields in a single statement.
func (r *OrdersRepository) UpdateTotals(ctx context.Context, id uint, subtotal, tax, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"subtotal":  subtotal,
			"impuestos": tax,
			"total":     total,
		}).Error
}

// UpdateHeader applies a partial update keyed by column name. It reports
// false when the order does not exist.
func (r *OrdersRepository) UpdateHeader(ctx context.Context, id uint, fields map[string]any) (bool, error) {
	exists, err := r.OrderExists(ctx, id)
	if err != nil || !exists {
		return false, err
	}
	if len(fields) == 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *OrdersRepository) FindOrderView(ctx context.Context, id uint) (*OrderView, error) {
	var view OrderView
	res := r.db.WithContext(ctx).
		Table("pedidos AS p").
		Select(`p.*,
			c.nombre AS client_name,
			c.apellido AS client_surname,
			c.email AS client_email,
			c.telefono AS client_phone,
			c.direccion AS client_address`).
		Joins("LEFT JOIN clientes c ON p.cliente_id = c.id").
		Where("p.id = ?", id).
		Limit(1).
		Scan(&view)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrOrderNotFound
	}

	lines := []OrderLineView{}
	if err := r.db.WithContext(ctx).
		Table("pedido_detalles AS pd").
		Select(`pd.*,
			pr.nombre AS product_name,
			pr.descripcion AS product_description,
			pr.imagen AS product_image`).
		Joins("LEFT JOIN productos pr ON pd.producto_id = pr.id").
		Where("pd.pedido_id = ?", id).
		Order("pd.id").
		Scan(&lines).Error; err != nil {
		return nil, err
	}
	view.Lines = lines
	return &view, nil
}

func (r *OrdersRepository) ListOrderSummaries(ctx context.Context) ([]OrderSummary, error) {
	summaries := []OrderSummary{}
	if err := r.db.WithContext(ctx).
		Table("pedidos AS p").
		Select(`p.*,
			c.nombre AS client_name,
			c.apellido AS client_surname,
			c.email AS client_email,
			(SELECT COUNT(*) FROM pedido_detalles pd WHERE pd.pedido_id = p.id) AS line_count,
			(SELECT COALESCE(SUM(pd.cantidad), 0) FROM pedido_detalles pd WHERE pd.pedido_id = p.id) AS item_count`).
		Joins("LEFT JOIN clientes c ON p.cliente_id = c.id").
		Order("p.created_at DESC, p.id DESC").
		Scan(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}
