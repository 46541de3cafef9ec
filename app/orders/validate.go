package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/judyrop/tienda-backend/models"
)

var validStatuses = map[string]bool{
	models.StatusPending:   true,
	models.StatusConfirmed: true,
	models.StatusInProcess: true,
	models.StatusShipped:   true,
	models.StatusDelivered: true,
	models.StatusCancelled: true,
}

var validPaymentMethods = map[string]bool{
	models.PaymentCash:     true,
	models.PaymentCard:     true,
	models.PaymentTransfer: true,
}

type LineInput struct {
	ProductID uint             `json:"producto_id"`
	Quantity  int              `json:"cantidad"`
	UnitPrice *decimal.Decimal `json:"precio_unitario"`
}

type CreateOrderInput struct {
	ClientID      models.ID    `json:"cliente_id"`
	OrderDate     *models.Date `json:"fecha_pedido"`
	DeliveryDate  *models.Date `json:"fecha_entrega"`
	Status        string       `json:"estado"`
	PaymentMethod *string      `json:"metodo_pago"`
	Notes         *string      `json:"notas"`
	Lines         []LineInput  `json:"productos"`
}

// UpdateOrderInput carries header fields only; nil fields are left untouched.
type UpdateOrderInput struct {
	ClientID      *models.ID   `json:"cliente_id"`
	OrderDate     *models.Date `json:"fecha_pedido"`
	DeliveryDate  *models.Date `json:"fecha_entrega"`
	Status        *string      `json:"estado"`
	PaymentMethod *string      `json:"metodo_pago"`
	Notes         *string      `json:"notas"`
}

func (in CreateOrderInput) Validate() error {
	if in.ClientID == 0 {
		return &ValidationError{Field: "cliente_id", Msg: "client is required"}
	}
	if len(in.Lines) == 0 {
		return &ValidationError{Field: "productos", Msg: "at least one product is required"}
	}
	for i, l := range in.Lines {
		if err := l.validateAt(i + 1); err != nil {
			return err
		}
	}
	if in.Status != "" && !validStatuses[in.Status] {
		return invalidStatus(in.Status)
	}
	return validatePayment(in.PaymentMethod)
}

// Validate checks a line added to an existing order.
func (l LineInput) Validate() error {
	return l.validateAt(0)
}

func (l LineInput) validateAt(pos int) error {
	if l.ProductID == 0 {
		return lineError(pos, "producto_id", "has no product id", "producto_id is required")
	}
	if l.Quantity <= 0 {
		return lineError(pos, "cantidad", "has an invalid quantity", "cantidad is required and must be greater than 0")
	}
	if l.UnitPrice == nil || l.UnitPrice.IsNegative() || !l.UnitPrice.Equal(l.UnitPrice.Round(2)) {
		return lineError(pos, "precio_unitario", "has an invalid price", "precio_unitario is required, must be greater than or equal to 0 and have at most 2 decimals")
	}
	return nil
}

func lineError(pos int, field, positional, single string) *ValidationError {
	if pos == 0 {
		return &ValidationError{Field: field, Msg: single}
	}
	return &ValidationError{
		Field:    field,
		Position: pos,
		Msg:      fmt.Sprintf("product at position %d %s", pos, positional),
	}
}

func (in UpdateOrderInput) Validate() error {
	if in.ClientID != nil && *in.ClientID == 0 {
		return &ValidationError{Field: "cliente_id", Msg: "client is required"}
	}
	if in.Status != nil && !validStatuses[*in.Status] {
		return invalidStatus(*in.Status)
	}
	return validatePayment(in.PaymentMethod)
}

// fields maps the set header fields to column names.
func (in UpdateOrderInput) fields() map[string]any {
	f := map[string]any{}
	if in.ClientID != nil {
		f["cliente_id"] = uint(*in.ClientID)
	}
	if in.OrderDate != nil && !in.OrderDate.IsZero() {
		f["fecha_pedido"] = *in.OrderDate
	}
	if in.DeliveryDate != nil {
		if in.DeliveryDate.IsZero() {
			f["fecha_entrega"] = nil
		} else {
			f["fecha_entrega"] = *in.DeliveryDate
		}
	}
	if in.Status != nil {
		f["estado"] = *in.Status
	}
	if in.PaymentMethod != nil {
		f["metodo_pago"] = *in.PaymentMethod
	}
	if in.Notes != nil {
		f["notas"] = *in.Notes
	}
	return f
}

func invalidStatus(s string) *ValidationError {
	return &ValidationError{Field: "estado", Msg: fmt.Sprintf("unknown order status %q", s)}
}

// An empty payment method means "not chosen yet" and is accepted.
func validatePayment(p *string) error {
	if p == nil || *p == "" || validPaymentMethods[*p] {
		return nil
	}
	return &ValidationError{Field: "metodo_pago", Msg: fmt.Sprintf("unknown payment method %q", *p)}
}
