package orders

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/judyrop/tienda-backend/models"
)

var errInjected = errors.New("injected failure")

// fakeRepo is an in-memory Repository with failure injection.
type fakeRepo struct {
	mu     sync.Mutex
	nextID uint
	orders map[uint]*models.Order
	lines  map[uint]*models.OrderLine

	clients  map[uint]models.Client
	products map[uint]models.Product

	// FailLineInsert makes the n-th CreateLine call fail (1-based).
	FailLineInsert  int
	lineInsertCalls int

	CreateOrderErr  error
	DeleteOrderErr  error
	ListLinesErr    error
	UpdateTotalsErr error
	FindErr         error
	Delay           time.Duration

	writes int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:   map[uint]*models.Order{},
		lines:    map[uint]*models.OrderLine{},
		clients:  map[uint]models.Client{},
		products: map[uint]models.Product{},
	}
}

func (f *fakeRepo) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) wait(ctx context.Context) error {
	if f.Delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateOrderErr != nil {
		return f.CreateOrderErr
	}
	f.writes++
	order.ID = f.id()
	order.CreatedAt = time.Now()
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeRepo) CreateLine(_ context.Context, line *models.OrderLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lineInsertCalls++
	if f.FailLineInsert != 0 && f.lineInsertCalls == f.FailLineInsert {
		return errInjected
	}
	f.writes++
	line.ID = f.id()
	cp := *line
	f.lines[line.ID] = &cp
	return nil
}

func (f *fakeRepo) DeleteOrder(_ context.Context, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteOrderErr != nil {
		return false, f.DeleteOrderErr
	}
	for lid, l := range f.lines {
		if l.OrderID == id {
			delete(f.lines, lid)
		}
	}
	_, ok := f.orders[id]
	delete(f.orders, id)
	return ok, nil
}

func (f *fakeRepo) DeleteLine(_ context.Context, orderID, lineID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lines[lineID]
	if !ok || l.OrderID != orderID {
		return false, nil
	}
	delete(f.lines, lineID)
	return true, nil
}

func (f *fakeRepo) OrderExists(_ context.Context, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.orders[id]
	return ok, nil
}

func (f *fakeRepo) ListLines(_ context.Context, orderID uint) ([]models.OrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListLinesErr != nil {
		return nil, f.ListLinesErr
	}
	return f.linesOf(orderID), nil
}

func (f *fakeRepo) linesOf(orderID uint) []models.OrderLine {
	var out []models.OrderLine
	for _, l := range f.lines {
		if l.OrderID == orderID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeRepo) UpdateTotals(_ context.Context, id uint, subtotal, tax, total decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateTotalsErr != nil {
		return f.UpdateTotalsErr
	}
	if o, ok := f.orders[id]; ok {
		o.Subtotal, o.Tax, o.Total = subtotal, tax, total
	}
	return nil
}

func (f *fakeRepo) UpdateHeader(_ context.Context, id uint, fields map[string]any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	for k, v := range fields {
		switch k {
		case "cliente_id":
			o.ClientID = v.(uint)
		case "fecha_pedido":
			o.OrderDate = v.(models.Date)
		case "fecha_entrega":
			if v == nil {
				o.DeliveryDate = nil
			} else {
				d := v.(models.Date)
				o.DeliveryDate = &d
			}
		case "estado":
			o.Status = v.(string)
		case "metodo_pago":
			s := v.(string)
			o.PaymentMethod = &s
		case "notas":
			s := v.(string)
			o.Notes = &s
		}
	}
	return true, nil
}

func (f *fakeRepo) FindOrderView(ctx context.Context, id uint) (*models.OrderView, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	view := &models.OrderView{Order: *o, Lines: []models.OrderLineView{}}
	if c, ok := f.clients[o.ClientID]; ok {
		view.ClientName = &c.Name
		view.ClientEmail = &c.Email
	}
	for _, l := range f.linesOf(id) {
		lv := models.OrderLineView{OrderLine: l}
		if p, ok := f.products[l.ProductID]; ok {
			lv.ProductName = &p.Name
		}
		view.Lines = append(view.Lines, lv)
	}
	return view, nil
}

func (f *fakeRepo) ListOrderSummaries(_ context.Context) ([]models.OrderSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	out := []models.OrderSummary{}
	for id, o := range f.orders {
		s := models.OrderSummary{Order: *o}
		for _, l := range f.linesOf(id) {
			s.LineCount++
			s.ItemCount += int64(l.Quantity)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRepo) order(id uint) (models.Order, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return models.Order{}, false
	}
	return *o, true
}

func (f *fakeRepo) lineCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lines)
}

func (f *fakeRepo) hasLine(id uint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.lines[id]
	return ok
}
