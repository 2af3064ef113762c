package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/database"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/mapper"
	"github.com/northpeak/logistics-api/internal/pricing"
	"github.com/northpeak/logistics-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService orchestrates the order workflow: creation with sequence
// allocation and pricing, wholesale line-item replacement, the
// per-role acceptance chain and delivery. Every logical operation runs
// in one transaction; notifications go out only after commit.
type OrderService struct {
	db          *gorm.DB
	orderRepo   *repository.OrderRepository
	clientRepo  *repository.ClientRepository
	seqRepo     *repository.NumberSequenceRepository
	calculator  *pricing.Calculator
	notifier    Notifier
	retry       *database.RetryPolicy
	createRetry *database.RetryPolicy
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	clientRepo *repository.ClientRepository,
	seqRepo *repository.NumberSequenceRepository,
	calculator *pricing.Calculator,
	notifier Notifier,
	retry *database.RetryPolicy,
	logger *zap.Logger,
) *OrderService {
	// Creates additionally retry on custom-id uniqueness races: two
	// concurrent allocations for the same year resolve on the unique
	// index, and the loser re-runs with a fresh sequence number.
	createRetry := retry.WithRetryable(func(err error) bool {
		return database.IsTransient(err) || database.IsUniqueViolation(err)
	})

	return &OrderService{
		db:          db,
		orderRepo:   orderRepo,
		clientRepo:  clientRepo,
		seqRepo:     seqRepo,
		calculator:  calculator,
		notifier:    notifier,
		retry:       retry,
		createRetry: createRetry,
		logger:      logger,
	}
}

// Create validates and prices the request, then inserts the order and
// its line items with a freshly allocated custom id, all in one
// transaction. Supervisors are notified after commit.
func (s *OrderService) Create(ctx context.Context, req *domain.CreateOrderRequest) (*domain.CreateOrderResponse, error) {
	deliveryDate, err := mapper.ParseDeliveryDate(req.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDeliveryDate, req.DeliveryDate)
	}

	priced, totals, err := s.calculator.PriceAll(toPricingLines(req.Products))
	if err != nil {
		return nil, err
	}

	if err := s.retry.Do(ctx, "order.create.client", func(ctx context.Context) error {
		_, err := s.clientRepo.GetByID(ctx, req.ClientID)
		return err
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	var order domain.Order

	err = s.createRetry.Do(ctx, "order.create", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			year := time.Now().UTC().Year()
			seq, err := s.seqRepo.NextNumber(ctx, tx, domain.DocTypeOrder, year)
			if err != nil {
				return err
			}

			order = domain.Order{
				ClientID:          req.ClientID,
				CustomID:          fmt.Sprintf("%s-%d-%05d", domain.DocTypeOrder.Prefix(), year, seq),
				DeliveryDate:      deliveryDate,
				DeliveryType:      req.DeliveryType,
				Notes:             req.Notes,
				Status:            domain.StatusNotDelivered,
				StorekeeperAccept: domain.AcceptPending,
				SupervisorAccept:  domain.AcceptPending,
				ManagerAccept:     domain.AcceptPending,
			}

			txRepo := s.orderRepo.WithTx(tx)
			if err := txRepo.Create(ctx, &order); err != nil {
				return err
			}
			if err := txRepo.CreateItems(ctx, toOrderItems(order.ID, priced)); err != nil {
				return err
			}
			return txRepo.UpdateTotals(ctx, order.ID, totals.Price, totals.VAT, totals.Subtotal)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("custom_id", order.CustomID),
		zap.Float64("total_subtotal", totals.Subtotal),
	)

	s.notify(ctx, domain.RoleSupervisor, "New Order",
		fmt.Sprintf("Order %s is awaiting your approval", order.CustomID))

	return &domain.CreateOrderResponse{
		OrderID:       order.ID,
		CustomID:      order.CustomID,
		Status:        order.Status,
		TotalPrice:    totals.Price,
		TotalVAT:      totals.VAT,
		TotalSubtotal: totals.Subtotal,
	}, nil
}

// GetByID loads an order joined with its client and line items
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	var dto domain.OrderDTO
	err := s.retry.Do(ctx, "order.get", func(ctx context.Context) error {
		order, err := s.orderRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		dto = mapper.ToOrderDTO(order)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &dto, nil
}

// List returns a paginated, filtered order listing
func (s *OrderService) List(ctx context.Context, filter repository.DocFilter) (*domain.OrderListResponse, error) {
	filter = normalizeFilter(filter)

	var orders []domain.Order
	var total int64
	err := s.retry.Do(ctx, "order.list", func(ctx context.Context) error {
		var err error
		orders, total, err = s.orderRepo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	dtos := make([]domain.OrderDTO, len(orders))
	for i := range orders {
		dtos[i] = mapper.ToOrderDTO(&orders[i])
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	return &domain.OrderListResponse{
		Orders:      dtos,
		TotalCount:  total,
		CurrentPage: filter.Page,
		TotalPages:  totalPages,
		HasMore:     filter.Page < totalPages,
	}, nil
}

// Update replaces the mutable fields and the full line-item list, then
// recomputes totals, all in one transaction. Items are never patched
// in place.
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateOrderRequest) (*domain.OrderDTO, error) {
	deliveryDate, err := mapper.ParseDeliveryDate(req.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDeliveryDate, req.DeliveryDate)
	}

	priced, totals, err := s.calculator.PriceAll(toPricingLines(req.Products))
	if err != nil {
		return nil, err
	}

	err = s.retry.Do(ctx, "order.update", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepo := s.orderRepo.WithTx(tx)

			order, err := txRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}

			order.DeliveryDate = deliveryDate
			order.DeliveryType = req.DeliveryType
			order.Notes = req.Notes
			order.TotalPrice = totals.Price
			order.TotalVAT = totals.VAT
			order.TotalSubtotal = totals.Subtotal
			// Detach preloaded associations so Save touches only the row
			order.Items = nil
			order.Client = nil

			if err := txRepo.DeleteItems(ctx, id); err != nil {
				return err
			}
			if err := txRepo.CreateItems(ctx, toOrderItems(id, priced)); err != nil {
				return err
			}
			return txRepo.Save(ctx, order)
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	return s.GetByID(ctx, id)
}

// AcceptSupervisor flips the supervisor flag and notifies the next
// roles in the chain. Re-accepting is a no-op that still notifies.
func (s *OrderService) AcceptSupervisor(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	dto, err := s.accept(ctx, id, func(o *domain.Order) *domain.AcceptStatus { return &o.SupervisorAccept })
	if err != nil {
		return nil, err
	}

	s.notify(ctx, domain.RoleStorekeeper, "Order Approved",
		fmt.Sprintf("Order %s was approved by a supervisor", dto.CustomID))
	s.notify(ctx, domain.RoleManager, "Order Approved",
		fmt.Sprintf("Order %s was approved by a supervisor", dto.CustomID))

	return dto, nil
}

// AcceptStorekeeper flips the storekeeper flag and tells the drivers
// the order is ready.
func (s *OrderService) AcceptStorekeeper(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	dto, err := s.accept(ctx, id, func(o *domain.Order) *domain.AcceptStatus { return &o.StorekeeperAccept })
	if err != nil {
		return nil, err
	}

	s.notify(ctx, domain.RoleDriver, "Order Ready",
		fmt.Sprintf("Order %s is ready for delivery", dto.CustomID))

	return dto, nil
}

// AcceptManager flips the manager flag and informs the sales reps.
func (s *OrderService) AcceptManager(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	dto, err := s.accept(ctx, id, func(o *domain.Order) *domain.AcceptStatus { return &o.ManagerAccept })
	if err != nil {
		return nil, err
	}

	s.notify(ctx, domain.RoleSalesRep, "Order Decision",
		fmt.Sprintf("Order %s was accepted by a manager", dto.CustomID))

	return dto, nil
}

// accept sets one acceptance flag to accepted. A missing order is a
// not-found error rather than a silent success, and a flag never moves
// back to pending through this path.
func (s *OrderService) accept(ctx context.Context, id uuid.UUID, flag func(*domain.Order) *domain.AcceptStatus) (*domain.OrderDTO, error) {
	var dto domain.OrderDTO

	err := s.retry.Do(ctx, "order.accept", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepo := s.orderRepo.WithTx(tx)

			order, err := txRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}

			f := flag(order)
			changed := *f != domain.AcceptAccepted
			*f = domain.AcceptAccepted

			dto = mapper.ToOrderDTO(order)

			if changed {
				order.Items = nil
				order.Client = nil
				if err := txRepo.Save(ctx, order); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to accept order: %w", err)
	}

	return &dto, nil
}

// Deliver marks the order delivered and stamps the delivery time.
// Both supervisor and storekeeper must have accepted first.
func (s *OrderService) Deliver(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	var dto domain.OrderDTO

	err := s.retry.Do(ctx, "order.deliver", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepo := s.orderRepo.WithTx(tx)

			order, err := txRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if order.Status == domain.StatusDelivered {
				return ErrAlreadyDelivered
			}
			if order.SupervisorAccept != domain.AcceptAccepted || order.StorekeeperAccept != domain.AcceptAccepted {
				return ErrDeliveryNotReady
			}

			now := time.Now().UTC()
			order.Status = domain.StatusDelivered
			order.ActualDeliveryDate = &now

			dto = mapper.ToOrderDTO(order)

			order.Items = nil
			order.Client = nil
			return txRepo.Save(ctx, order)
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		if errors.Is(err, ErrAlreadyDelivered) || errors.Is(err, ErrDeliveryNotReady) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to deliver order: %w", err)
	}

	s.notify(ctx, domain.RoleSupervisor, "Order Delivered",
		fmt.Sprintf("Order %s has been delivered", dto.CustomID))
	s.notify(ctx, domain.RoleStorekeeper, "Order Delivered",
		fmt.Sprintf("Order %s has been delivered", dto.CustomID))

	return &dto, nil
}

// Delete removes the order and its line items in one transaction,
// children first. There is no cascade at the schema level.
func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.retry.Do(ctx, "order.delete", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepo := s.orderRepo.WithTx(tx)

			if _, err := txRepo.GetByID(ctx, id); err != nil {
				return err
			}
			if err := txRepo.DeleteItems(ctx, id); err != nil {
				return err
			}
			return txRepo.Delete(ctx, id)
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// notify dispatches after commit and never fails the business
// operation that triggered it.
func (s *OrderService) notify(ctx context.Context, role domain.StaffRole, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Dispatch(ctx, role, title, message); err != nil {
		s.logger.Warn("notification dispatch failed",
			zap.String("role", string(role)),
			zap.String("title", title),
			zap.Error(err),
		)
	}
}

func toPricingLines(products []domain.ProductRequest) []pricing.Line {
	lines := make([]pricing.Line, len(products))
	for i, p := range products {
		lines[i] = pricing.Line{
			Section:     p.Section,
			Type:        p.Type,
			Description: p.Description,
			Quantity:    p.Quantity,
			Price:       p.Price,
		}
	}
	return lines
}

func toOrderItems(orderID uuid.UUID, priced []pricing.PricedLine) []domain.OrderItem {
	items := make([]domain.OrderItem, len(priced))
	for i, pl := range priced {
		items[i] = domain.OrderItem{
			OrderID:     orderID,
			Section:     pl.Section,
			Type:        pl.Type,
			Description: pl.Description,
			Quantity:    pl.Quantity,
			Price:       pl.Price,
			VAT:         pl.VAT,
			Subtotal:    pl.Subtotal,
		}
	}
	return items
}

func normalizeFilter(filter repository.DocFilter) repository.DocFilter {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	return filter
}
