package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values as stored in pedidos.estado.
const (
	StatusPending   = "pendiente"
	StatusConfirmed = "confirmado"
	StatusInProcess = "en_proceso"
	StatusShipped   = "enviado"
	StatusDelivered = "entregado"
	StatusCancelled = "cancelado"
)

// Payment method values as stored in pedidos.metodo_pago.
const (
	PaymentCash     = "efectivo"
	PaymentCard     = "tarjeta"
	PaymentTransfer = "transferencia"
)

type Client struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Type       string    `gorm:"column:tipo" json:"tipo"`
	Name       string    `gorm:"column:nombre;not null" json:"nombre"`
	Surname    *string   `gorm:"column:apellido" json:"apellido"`
	Email      string    `gorm:"column:email" json:"email"`
	Phone      string    `gorm:"column:telefono" json:"telefono"`
	Mobile     string    `gorm:"column:celular" json:"celular"`
	LegalID    *string   `gorm:"column:dni_ruc" json:"dni_ruc"`
	Address    string    `gorm:"column:direccion" json:"direccion"`
	City       string    `gorm:"column:ciudad" json:"ciudad"`
	Region     string    `gorm:"column:departamento" json:"departamento"`
	PostalCode string    `gorm:"column:codigo_postal" json:"codigo_postal"`
	Category   string    `gorm:"column:categoria" json:"categoria"`
	Active     bool      `gorm:"column:activo;default:true" json:"activo"`
	Points     int       `gorm:"column:puntos;default:0" json:"puntos"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c *Client) TableName() string {
	return "clientes"
}

type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"column:nombre;not null" json:"nombre"`
	Description   string          `gorm:"column:descripcion" json:"descripcion"`
	Price         decimal.Decimal `gorm:"column:precio;type:decimal(12,2);not null" json:"precio"`
	OriginalPrice decimal.Decimal `gorm:"column:precio_original;type:decimal(12,2)" json:"precio_original"`
	Category      string          `gorm:"column:categoria" json:"categoria"`
	Stock         int             `gorm:"column:stock;default:0" json:"stock"`
	MinStock      int             `gorm:"column:stock_minimo;default:0" json:"stock_minimo"`
	SKU           string          `gorm:"column:sku" json:"sku"`
	Image         string          `gorm:"column:imagen" json:"imagen"`
	Supplier      string          `gorm:"column:proveedor" json:"proveedor"`
	Active        bool            `gorm:"column:activo;default:true" json:"activo"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Product) TableName() string {
	return "productos"
}

// Order is the order header. Subtotal, Tax and Total are stored and must be
// rewritten whenever the line set changes.
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Code          string          `gorm:"column:codigo_pedido;index;not null" json:"codigo_pedido"`
	ClientID      uint            `gorm:"column:cliente_id;not null;index" json:"cliente_id"`
	OrderDate     Date            `gorm:"column:fecha_pedido;type:date;not null" json:"fecha_pedido"`
	DeliveryDate  *Date           `gorm:"column:fecha_entrega;type:date" json:"fecha_entrega"`
	Status        string          `gorm:"column:estado;not null;default:'pendiente'" json:"estado"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:decimal(12,2);not null;default:0" json:"subtotal"`
	Tax           decimal.Decimal `gorm:"column:impuestos;type:decimal(12,2);not null;default:0" json:"impuestos"`
	Total         decimal.Decimal `gorm:"column:total;type:decimal(12,2);not null;default:0" json:"total"`
	PaymentMethod *string         `gorm:"column:metodo_pago" json:"metodo_pago"`
	Notes         *string         `gorm:"column:notas" json:"notas"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (o *Order) TableName() string {
	return "pedidos"
}

// OrderLine is one product entry of an order. UnitPrice is captured when the
// line is written and does not follow later product price changes.
type OrderLine struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"column:pedido_id;not null;index" json:"pedido_id"`
	ProductID uint            `gorm:"column:producto_id;not null" json:"producto_id"`
	Quantity  int             `gorm:"column:cantidad;not null" json:"cantidad"`
	UnitPrice decimal.Decimal `gorm:"column:precio_unitario;type:decimal(12,2);not null" json:"precio_unitario"`
	CreatedAt time.Time       `json:"created_at"`
}

func (l *OrderLine) TableName() string {
	return "pedido_detalles"
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{&Client{}, &Product{}, &Order{}, &OrderLine{}}
}
