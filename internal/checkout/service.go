package checkout

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/lowstock"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	outcomeCommitted = "committed"

	orderNumberConstraint = "ux_orders_order_number"
	orderNumberColumn     = "orders.order_number"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// LowStockNotifier receives one signal per stock unit left at or below the threshold
// by a committed order. Implementations must not block.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, event lowstock.Event)
}

// Service turns a cart into a committed order without overselling tracked stock.
type Service struct {
	tx        txRunner
	carts     cart.Repository
	orders    orders.Repository
	inventory inventory.Repository
	customers customers.Repository
	outbox    outboxEmitter
	notifier  LowStockNotifier
	numbers   NumberGenerator
	settings  Settings
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	clock     func() time.Time
}

// ServiceParams wires the checkout service. Outbox, Notifier, Numbers, Metrics, Logger
// and Clock are optional.
type ServiceParams struct {
	TxRunner  txRunner
	Carts     cart.Repository
	Orders    orders.Repository
	Inventory inventory.Repository
	Customers customers.Repository
	Outbox    outboxEmitter
	Notifier  LowStockNotifier
	Numbers   NumberGenerator
	Settings  Settings
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
	Clock     func() time.Time
}

// NewService validates the wiring and applies defaults.
func NewService(params ServiceParams) (*Service, error) {
	if params.TxRunner == nil {
		return nil, errors.New("tx runner required")
	}
	if params.Carts == nil {
		return nil, errors.New("cart repository required")
	}
	if params.Orders == nil {
		return nil, errors.New("orders repository required")
	}
	if params.Inventory == nil {
		return nil, errors.New("inventory repository required")
	}
	if params.Customers == nil {
		return nil, errors.New("customers repository required")
	}
	numbers := params.Numbers
	if numbers == nil {
		numbers = NewRandomNumberGenerator()
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		tx:        params.TxRunner,
		carts:     params.Carts,
		orders:    params.Orders,
		inventory: params.Inventory,
		customers: params.Customers,
		outbox:    params.Outbox,
		notifier:  params.Notifier,
		numbers:   numbers,
		settings:  params.Settings.withDefaults(),
		metrics:   params.Metrics,
		logg:      logg,
		clock:     clock,
	}, nil
}

// CommitInput is everything needed to place an order besides the customer identity.
type CommitInput struct {
	ContactEmail    string        `json:"contact_email" validate:"required,email"`
	ContactPhone    *string       `json:"contact_phone,omitempty"`
	BillingAddress  types.Address `json:"billing_address"`
	ShippingAddress types.Address `json:"shipping_address"`
	Lines           []cart.Line   `json:"lines" validate:"dive"`
}

func (in CommitInput) normalize() CommitInput {
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	if in.ContactPhone != nil {
		phone := strings.TrimSpace(*in.ContactPhone)
		if phone == "" {
			in.ContactPhone = nil
		} else {
			in.ContactPhone = &phone
		}
	}
	in.BillingAddress = in.BillingAddress.Normalize()
	in.ShippingAddress = in.ShippingAddress.Normalize()
	return in
}

// trackedUnit is the stock a unit was left with by this order.
type trackedUnit struct {
	unit  inventory.StockUnit
	stock int
}

// CommitCart reads the registered customer's persistent cart and commits it. The read
// happens before the transaction; stock is rechecked under lock during Commit.
func (s *Service) CommitCart(ctx context.Context, customerID uuid.UUID, input CommitInput) (*models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{
			"customer_id": "is required",
		})
	}
	lines, err := s.carts.GetLines(ctx, customerID)
	if err != nil {
		return nil, asPersistence(err, "load cart")
	}
	input.Lines = lines
	return s.Commit(ctx, &customerID, input)
}

// Commit validates the input, prices it and commits the order, its items, the stock
// decrements and the customer side effects in one transaction. A nil customerID places
// a guest order.
func (s *Service) Commit(ctx context.Context, customerID *uuid.UUID, input CommitInput) (*models.Order, error) {
	start := s.clock()
	if customerID != nil && *customerID == uuid.Nil {
		customerID = nil
	}
	if customerID != nil {
		ctx = s.logg.WithCustomerID(ctx, customerID.String())
	}

	order, low, err := s.commit(ctx, customerID, input)
	s.metrics.ObserveCommit(outcomeOf(err), s.clock().Sub(start))
	if err != nil {
		s.logFailure(ctx, err)
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"total":        order.Total.StringFixed(moneyPlaces),
		"items":        len(order.Items),
	})
	s.logg.Info(logCtx, "order committed")

	s.notifyLowStock(ctx, order, low)
	return order, nil
}

func (s *Service) commit(ctx context.Context, customerID *uuid.UUID, input CommitInput) (*models.Order, []trackedUnit, error) {
	if len(input.Lines) == 0 {
		return nil, nil, emptyCartError()
	}
	input = input.normalize()
	if err := validateInput(input); err != nil {
		return nil, nil, err
	}

	totals := ComputeTotals(input.Lines, s.settings).Rounded()

	lines := make([]cart.Line, len(input.Lines))
	copy(lines, input.Lines)
	sortLines(lines)

	order := &models.Order{
		CustomerID:      customerID,
		Status:          enums.OrderStatusPending,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		Shipping:        totals.Shipping,
		Total:           totals.Total,
		ContactEmail:    input.ContactEmail,
		ContactPhone:    input.ContactPhone,
		BillingAddress:  input.BillingAddress,
		ShippingAddress: input.ShippingAddress,
	}

	var tracked []trackedUnit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.insertOrder(ctx, tx, order); err != nil {
			return err
		}

		items, units, err := s.reserveLines(ctx, tx, order.ID, lines)
		if err != nil {
			return err
		}
		order.Items = items
		tracked = units

		if customerID != nil {
			if err := s.applyCustomerEffects(ctx, tx, *customerID, input); err != nil {
				return err
			}
		}

		if s.outbox != nil {
			if err := s.outbox.Emit(ctx, tx, orderPlacedEvent(order)); err != nil {
				return asPersistence(err, "enqueue order placed event")
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, asPersistence(err, "commit order")
	}
	return order, tracked, nil
}

// insertOrder writes the order row inside a savepoint, regenerating the order number
// when it collides with an existing one.
func (s *Service) insertOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	attempts := s.settings.OrderNumberAttempts
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		number, err := s.numbers.Next(s.clock())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		order.OrderNumber = number

		err = tx.Transaction(func(sp *gorm.DB) error {
			_, err := s.orders.WithTx(sp).CreateOrder(ctx, order)
			return err
		})
		if err == nil {
			return nil
		}
		if !isOrderNumberConflict(err) {
			return asPersistence(err, "insert order")
		}

		lastErr = err
		s.metrics.IncOrderNumberRetry()
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_number": number,
			"attempt":      attempt,
		})
		s.logg.Warn(logCtx, "order number collision")
	}
	return orderNumberCollisionError(attempts, lastErr)
}

func isOrderNumberConflict(err error) bool {
	return db.IsUniqueViolation(err, orderNumberConstraint) || db.IsUniqueViolation(err, orderNumberColumn)
}

// reserveLines writes each item snapshot and decrements its stock unit under a row
// lock. Every short line is collected before the transaction is aborted.
func (s *Service) reserveLines(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []cart.Line) ([]models.OrderItem, []trackedUnit, error) {
	ordersRepo := s.orders.WithTx(tx)
	stockRepo := s.inventory.WithTx(tx)

	items := make([]models.OrderItem, 0, len(lines))
	var tracked []trackedUnit
	position := map[string]int{}
	var shortages []Shortage

	for _, line := range lines {
		unitPrice := line.UnitPrice.Round(moneyPlaces)
		item := models.OrderItem{
			OrderID:      orderID,
			ProductID:    line.ProductID,
			VariantID:    line.VariantID,
			ProductName:  line.ProductName,
			VariantName:  line.VariantName,
			Quantity:     line.Quantity,
			UnitPrice:    unitPrice,
			LineSubtotal: unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		}
		if err := ordersRepo.CreateOrderItems(ctx, []models.OrderItem{item}); err != nil {
			return nil, nil, asPersistence(err, "insert order item")
		}

		unit := unitFor(line)
		current, err := stockRepo.LockAndReadStock(ctx, unit)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				shortages = append(shortages, newShortage(unit, line.DisplayName(), line.Quantity, 0))
				items = append(items, item)
				continue
			}
			return nil, nil, asPersistence(err, "lock stock")
		}
		if current == nil {
			items = append(items, item)
			continue
		}

		available := *current
		if available < line.Quantity {
			shortages = append(shortages, newShortage(unit, line.DisplayName(), line.Quantity, available))
			items = append(items, item)
			continue
		}
		if err := stockRepo.DecrementStock(ctx, unit, line.Quantity); err != nil {
			if errors.Is(err, inventory.ErrStockNotDecremented) {
				shortages = append(shortages, newShortage(unit, line.DisplayName(), line.Quantity, available))
				items = append(items, item)
				continue
			}
			return nil, nil, asPersistence(err, "decrement stock")
		}

		remaining := available - line.Quantity
		if idx, ok := position[unit.Key()]; ok {
			tracked[idx].stock = remaining
		} else {
			position[unit.Key()] = len(tracked)
			tracked = append(tracked, trackedUnit{unit: unit, stock: remaining})
		}
		items = append(items, item)
	}

	if len(shortages) > 0 {
		return nil, nil, insufficientStockError(shortages)
	}
	return items, tracked, nil
}

func (s *Service) applyCustomerEffects(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, input CommitInput) error {
	addresses := s.customers.WithTx(tx)
	if err := addresses.UpsertDefaultAddress(ctx, customerID, enums.AddressKindShipping, input.ShippingAddress); err != nil {
		return asPersistence(err, "save default shipping address")
	}
	if err := addresses.UpsertDefaultAddress(ctx, customerID, enums.AddressKindBilling, input.BillingAddress); err != nil {
		return asPersistence(err, "save default billing address")
	}
	if err := s.carts.WithTx(tx).Clear(ctx, customerID); err != nil {
		return asPersistence(err, "clear cart")
	}
	return nil
}

func (s *Service) notifyLowStock(ctx context.Context, order *models.Order, tracked []trackedUnit) {
	if s.notifier == nil {
		return
	}
	threshold := s.settings.LowStockThreshold
	now := s.clock().UTC()
	sent := 0
	for _, t := range tracked {
		if t.stock > threshold {
			continue
		}
		s.notifier.NotifyLowStock(ctx, lowstock.Event{
			Unit:        t.unit,
			Stock:       t.stock,
			Threshold:   threshold,
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			OccurredAt:  now,
		})
		sent++
	}
	s.metrics.AddLowStockSignals(sent)
}

func (s *Service) logFailure(ctx context.Context, err error) {
	code := pkgerrors.CodeOf(err)
	logCtx := s.logg.WithField(ctx, "error_code", string(code))
	switch code {
	case pkgerrors.CodeValidation, pkgerrors.CodeEmptyCart, pkgerrors.CodeInsufficientStock:
		s.logg.Info(logCtx, "order commit rejected")
	default:
		logCtx = s.logg.WithField(logCtx, "error_dump", pkgerrors.Dump(err))
		s.logg.Error(logCtx, "order commit failed", err)
	}
}

func orderPlacedEvent(order *models.Order) outbox.DomainEvent {
	items := make([]payloads.OrderPlacedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, payloads.OrderPlacedItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	role := "guest"
	if order.CustomerID != nil {
		role = "customer"
	}
	placedAt := order.CreatedAt.UTC()
	return outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{CustomerID: order.CustomerID, Role: role},
		Data: payloads.OrderPlacedEvent{
			OrderID:      order.ID,
			OrderNumber:  order.OrderNumber,
			CustomerID:   order.CustomerID,
			ContactEmail: order.ContactEmail,
			Subtotal:     order.Subtotal,
			Tax:          order.Tax,
			Shipping:     order.Shipping,
			Total:        order.Total,
			Items:        items,
			PlacedAt:     placedAt,
		},
		Version:    1,
		OccurredAt: placedAt,
	}
}

func unitFor(line cart.Line) inventory.StockUnit {
	if line.VariantID != nil {
		return inventory.VariantUnit(line.ProductID, *line.VariantID)
	}
	return inventory.ProductUnit(line.ProductID)
}

// sortLines orders lines by stock unit so concurrent commits lock rows in the same
// sequence.
func sortLines(lines []cart.Line) {
	sort.SliceStable(lines, func(i, j int) bool {
		return inventory.Less(unitFor(lines[i]), unitFor(lines[j]))
	})
}

func outcomeOf(err error) string {
	if err == nil {
		return outcomeCommitted
	}
	return strings.ToLower(string(pkgerrors.CodeOf(err)))
}
