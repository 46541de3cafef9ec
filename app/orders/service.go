package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/judyrop/tienda-backend/logging"
	"github.com/judyrop/tienda-backend/models"
)

const compensationTimeout = 5 * time.Second

// Repository is the storage gateway the order service runs on.
type Repository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateLine(ctx context.Context, line *models.OrderLine) error
	DeleteOrder(ctx context.Context, id uint) (bool, error)
	DeleteLine(ctx context.Context, orderID, lineID uint) (bool, error)
	OrderExists(ctx context.Context, id uint) (bool, error)
	ListLines(ctx context.Context, orderID uint) ([]models.OrderLine, error)
	UpdateTotals(ctx context.Context, id uint, subtotal, tax, total decimal.Decimal) error
	UpdateHeader(ctx context.Context, id uint, fields map[string]any) (bool, error)
	FindOrderView(ctx context.Context, id uint) (*models.OrderView, error)
	ListOrderSummaries(ctx context.Context) ([]models.OrderSummary, error)
}

type Service struct {
	repo            Repository
	lineConcurrency int
	now             func() time.Time
	locks           keyedMutex
}

type Option func(*Service)

// WithLineConcurrency bounds how many line inserts of one order run at once.
// 1 inserts them sequentially.
func WithLineConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.lineConcurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		lineConcurrency: 1,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the request, writes the header and its lines, and returns
// the composed order. If a line insert fails the header is deleted again and
// the line failure is returned. If only the final read fails, the written
// header and lines are returned without client and product details.
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (*models.OrderView, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	lines := make([]models.OrderLine, len(in.Lines))
	for i, l := range in.Lines {
		lines[i] = models.OrderLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: *l.UnitPrice,
		}
	}
	totals := ComputeTotals(lines)

	order := &models.Order{
		Code:          NewOrderCode(now),
		ClientID:      uint(in.ClientID),
		OrderDate:     models.NewDate(now),
		Status:        in.Status,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Total:         totals.Total,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
	}
	if in.OrderDate != nil && !in.OrderDate.IsZero() {
		order.OrderDate = *in.OrderDate
	}
	if in.DeliveryDate != nil && !in.DeliveryDate.IsZero() {
		order.DeliveryDate = in.DeliveryDate
	}
	if order.Status == "" {
		order.Status = models.StatusPending
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, s.persistence(ctx, "create_order", 0, err)
	}
	log := s.logger(ctx).With("order_id", order.ID, "code", order.Code)

	if err := s.insertLines(ctx, order.ID, lines); err != nil {
		s.compensate(ctx, order.ID, err)
		return nil, s.persistence(ctx, "create_order_lines", order.ID, err)
	}

	ordersCreated.Inc()
	log.Info("order created", "lines", len(lines), "total", order.Total.String())

	view, err := s.Get(ctx, order.ID)
	if err != nil {
		// the order is committed at this point
		log.Warn("reading back created order failed, returning written header", "error", err)
		return writtenView(order, lines), nil
	}
	return view, nil
}

func writtenView(order *models.Order, lines []models.OrderLine) *models.OrderView {
	view := &models.OrderView{Order: *order, Lines: make([]models.OrderLineView, len(lines))}
	for i, l := range lines {
		view.Lines[i] = models.OrderLineView{OrderLine: l}
	}
	return view
}

func (s *Service) insertLines(ctx context.Context, orderID uint, lines []models.OrderLine) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.lineConcurrency)
	for i := range lines {
		line := &lines[i]
		line.OrderID = orderID
		pos := i + 1
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.repo.CreateLine(gctx, line); err != nil {
				return &lineInsertError{Position: pos, Err: err}
			}
			return nil
		})
	}
	return g.Wait()
}

// compensate deletes a header whose lines could not all be written. Its own
// failure is logged and never returned.
func (s *Service) compensate(ctx context.Context, orderID uint, cause error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	log := s.logger(ctx).With("order_id", orderID, "cause", cause.Error())
	deleted, err := s.repo.DeleteOrder(cctx, orderID)
	if err != nil {
		compensations.WithLabelValues("failed").Inc()
		log.Error("compensation failed, order header may be orphaned", "error", err)
		return
	}
	compensations.WithLabelValues("ok").Inc()
	if !deleted {
		log.Warn("compensation found no order header to delete")
		return
	}
	log.Info("order header deleted after line insert failure")
}

// Recalculate rewrites subtotal, tax and total from the lines currently stored.
func (s *Service) Recalculate(ctx context.Context, orderID uint) error {
	lines, err := s.repo.ListLines(ctx, orderID)
	if err != nil {
		recalculations.WithLabelValues("failed").Inc()
		return s.persistence(ctx, "recalculate_totals", orderID, err)
	}
	t := ComputeTotals(lines)
	if err := s.repo.UpdateTotals(ctx, orderID, t.Subtotal, t.Tax, t.Total); err != nil {
		recalculations.WithLabelValues("failed").Inc()
		return s.persistence(ctx, "recalculate_totals", orderID, err)
	}
	recalculations.WithLabelValues("ok").Inc()
	return nil
}

func (s *Service) Get(ctx context.Context, orderID uint) (*models.OrderView, error) {
	view, err := s.repo.FindOrderView(ctx, orderID)
	if errors.Is(err, models.ErrOrderNotFound) {
		return nil, &NotFoundError{Resource: "order", ID: orderID}
	}
	if err != nil {
		return nil, s.persistence(ctx, "get_order", orderID, err)
	}
	return view, nil
}

func (s *Service) List(ctx context.Context) ([]models.OrderSummary, error) {
	summaries, err := s.repo.ListOrderSummaries(ctx)
	if err != nil {
		return nil, s.persistence(ctx, "list_orders", 0, err)
	}
	return summaries, nil
}

// AddLine inserts a line into an existing order and recalculates its totals.
// A recalculation failure is returned together with the new line id; the
// line stays in place.
func (s *Service) AddLine(ctx context.Context, orderID uint, in LineInput) (uint, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	unlock, err := s.lock(ctx, "add_line", orderID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	exists, err := s.repo.OrderExists(ctx, orderID)
	if err != nil {
		return 0, s.persistence(ctx, "add_line", orderID, err)
	}
	if !exists {
		return 0, &NotFoundError{Resource: "order", ID: orderID}
	}

	line := &models.OrderLine{
		OrderID:   orderID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		UnitPrice: *in.UnitPrice,
	}
	if err := s.repo.CreateLine(ctx, line); err != nil {
		return 0, s.persistence(ctx, "add_line", orderID, err)
	}
	if err := s.Recalculate(ctx, orderID); err != nil {
		return line.ID, err
	}
	return line.ID, nil
}

// RemoveLine deletes lineID only when it belongs to orderID. Totals are
// recalculated either way; a line that did not match yields a NotFoundError.
func (s *Service) RemoveLine(ctx context.Context, orderID, lineID uint) error {
	unlock, err := s.lock(ctx, "remove_line", orderID)
	if err != nil {
		return err
	}
	defer unlock()

	deleted, err := s.repo.DeleteLine(ctx, orderID, lineID)
	if err != nil {
		return s.persistence(ctx, "remove_line", orderID, err)
	}
	if err := s.Recalculate(ctx, orderID); err != nil {
		return err
	}
	if !deleted {
		return &NotFoundError{Resource: "order line", ID: lineID}
	}
	return nil
}

// UpdateHeader changes header fields only. Status changes are not checked
// against the previous status.
func (s *Service) UpdateHeader(ctx context.Context, orderID uint, in UpdateOrderInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	unlock, err := s.lock(ctx, "update_order", orderID)
	if err != nil {
		return err
	}
	defer unlock()

	found, err := s.repo.UpdateHeader(ctx, orderID, in.fields())
	if err != nil {
		return s.persistence(ctx, "update_order", orderID, err)
	}
	if !found {
		return &NotFoundError{Resource: "order", ID: orderID}
	}
	return nil
}

// Delete removes the order and its lines.
func (s *Service) Delete(ctx context.Context, orderID uint) error {
	unlock, err := s.lock(ctx, "delete_order", orderID)
	if err != nil {
		return err
	}
	defer unlock()

	deleted, err := s.repo.DeleteOrder(ctx, orderID)
	if err != nil {
		return s.persistence(ctx, "delete_order", orderID, err)
	}
	if !deleted {
		return &NotFoundError{Resource: "order", ID: orderID}
	}
	return nil
}

// lock waits for the per-order lock. Running out of time while queued is
// reported like a storage timeout.
func (s *Service) lock(ctx context.Context, op string, orderID uint) (func(), error) {
	unlock, err := s.locks.Lock(ctx, orderID)
	if err != nil {
		return nil, s.persistence(ctx, op, orderID, err)
	}
	return unlock, nil
}

func (s *Service) persistence(ctx context.Context, op string, orderID uint, err error) error {
	s.logger(ctx).Error("storage call failed", "op", op, "order_id", orderID, "error", err)
	return &PersistenceError{Op: op, OrderID: orderID, Err: err}
}

func (s *Service) logger(ctx context.Context) *slog.Logger {
	return logging.FromCtx(ctx).With("subsystem", "orders")
}

type lineInsertError struct {
	Position int
	Err      error
}

func (e *lineInsertError) Error() string {
	return fmt.Sprintf("insert line %d: %v", e.Position, e.Err)
}

func (e *lineInsertError) Unwrap() error {
	return e.Err
}
