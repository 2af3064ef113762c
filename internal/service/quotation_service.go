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

// QuotationService mirrors the order workflow for quotations. The
// differences: creation notifies managers as well as supervisors, and
// a supervisor acceptance can record which supervisor accepted.
type QuotationService struct {
	db          *gorm.DB
	quoteRepo   *repository.QuotationRepository
	clientRepo  *repository.ClientRepository
	staffRepo   *repository.StaffRepository
	seqRepo     *repository.NumberSequenceRepository
	calculator  *pricing.Calculator
	notifier    Notifier
	retry       *database.RetryPolicy
	createRetry *database.RetryPolicy
	logger      *zap.Logger
}

// NewQuotationService creates a new QuotationService
func NewQuotationService(
	db *gorm.DB,
	quoteRepo *repository.QuotationRepository,
	clientRepo *repository.ClientRepository,
	staffRepo *repository.StaffRepository,
	seqRepo *repository.NumberSequenceRepository,
	calculator *pricing.Calculator,
	notifier Notifier,
	retry *database.RetryPolicy,
	logger *zap.Logger,
) *QuotationService {
	createRetry := retry.WithRetryable(func(err error) bool {
		return database.IsTransient(err) || database.IsUniqueViolation(err)
	})

	return &QuotationService{
		db:          db,
		quoteRepo:   quoteRepo,
		clientRepo:  clientRepo,
		staffRepo:   staffRepo,
		seqRepo:     seqRepo,
		calculator:  calculator,
		notifier:    notifier,
		retry:       retry,
		createRetry: createRetry,
		logger:      logger,
	}
}

// Create validates and prices the request, then inserts the quotation
// and its line items with a freshly allocated custom id in one
// transaction. Supervisors and managers are notified after commit.
func (s *QuotationService) Create(ctx context.Context, req *domain.CreateQuotationRequest) (*domain.CreateQuotationResponse, error) {
	deliveryDate, err := mapper.ParseDeliveryDate(req.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDeliveryDate, req.DeliveryDate)
	}

	priced, totals, err := s.calculator.PriceAll(toPricingLines(req.Products))
	if err != nil {
		return nil, err
	}

	if err := s.retry.Do(ctx, "quotation.create.client", func(ctx context.Context) error {
		_, err := s.clientRepo.GetByID(ctx, req.ClientID)
		return err
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	var quotation domain.Quotation

	err = s.createRetry.Do(ctx, "quotation.create", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			year := time.Now().UTC().Year()
			seq, err := s.seqRepo.NextNumber(ctx, tx, domain.DocTypeQuotation, year)
			if err != nil {
				return err
			}

			quotation = domain.Quotation{
				ClientID:          req.ClientID,
				CustomID:          fmt.Sprintf("%s-%d-%05d", domain.DocTypeQuotation.Prefix(), year, seq),
				DeliveryDate:      deliveryDate,
				DeliveryType:      req.DeliveryType,
				Notes:             req.Notes,
				Status:            domain.StatusNotDelivered,
				StorekeeperAccept: domain.AcceptPending,
				SupervisorAccept:  domain.AcceptPending,
				ManagerAccept:     domain.AcceptPending,
			}

			txRepo := s.quoteRepo.WithTx(tx)
			if err := txRepo.Create(ctx, &quotation); err != nil {
				return err
			}
			if err := txRepo.CreateItems(ctx, toQuotationItems(quotation.ID, priced)); err != nil {
				return err
			}
			return txRepo.UpdateTotals(ctx, quotation.ID, totals.Price, totals.VAT, totals.Subtotal)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quotation: %w", err)
	}

	s.logger.Info("quotation created",
		zap.String("quotation_id", quotation.ID.String()),
		zap.String("custom_id", quotation.CustomID),
		zap.Float64("total_subtotal", totals.Subtotal),
	)

	message := fmt.Sprintf("Quotation %s is awaiting approval", quotation.CustomID)
	s.notify(ctx, domain.RoleSupervisor, "New Quotation", message)
	s.notify(ctx, domain.RoleManager, "New Quotation", message)

	return &domain.CreateQuotationResponse{
		QuotationID:   quotation.ID,
		CustomID:      quotation.CustomID,
		Status:        quotation.Status,
		TotalPrice:    totals.Price,
		TotalVAT:      totals.VAT,
		TotalSubtotal: totals.Subtotal,
	}, nil
}

// GetByID loads a quotation joined with its client and line items
func (s *QuotationService) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuotationDTO, error) {
	var dto domain.QuotationDTO
	err := s.retry.Do(ctx, "quotation.get", func(ctx context.Context) error {
		quotation, err := s.quoteRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		dto = mapper.ToQuotationDTO(quotation)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuotationNotFound
		}
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}
	return &dto, nil
}

// List returns a paginated, filtered quotation listing
func (s *QuotationService) List(ctx context.Context, filter repository.DocFilter) (*domain.QuotationListResponse, error) {
	filter = normalizeFilter(filter)

	var quotations []domain.Quotation
	var total int64
	err := s.retry.Do(ctx, "quotation.list", func(ctx context.Context) error {
		var err error
		quotations, total, err = s.quoteRepo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}

	dtos := make([]domain.QuotationDTO, len(quotations))
	for i := range quotations {
		dtos[i] = mapper.ToQuotationDTO(&quotations[i])
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	return &domain.QuotationListResponse{
		Quotations:  dtos,
		TotalCount:  total,
		CurrentPage: filter.Page,
		TotalPages:  totalPages,
		HasMore:     filter.Page < totalPages,
	}, nil
}

// Update replaces the mutable fields and the full line-item list, then
// recomputes totals, all in one transaction.
func (s *QuotationService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateQuotationRequest) (*domain.QuotationDTO, error) {
	deliveryDate, err := mapper.ParseDeliveryDate(req.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDeliveryDate, req.DeliveryDate)
	}

	priced, totals, err := s.calculator.PriceAll(toPricingLines(req.Products))
	if err != nil {
		return nil, err
	}

	err = s.retry.Do(ctx, "quotation.update", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepo := s.quoteRepo.WithTx(tx)

			quotation, err := txRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}

			quotation.DeliveryDate = deliveryDate
			quotation.DeliveryType = req.DeliveryType
			quotation.Notes = req.Notes
			quotation.TotalPrice = totals.Price
			quotation.TotalVAT = totals.VAT
			quotation.TotalSubtotal = totals.Subtotal
			// Detach preloaded associations so Save touches only the row
			quotation.Items = nil
			quotation.Client = nil
			quotation.Supervisor = nil

			if err := txRepo.DeleteItems(ctx, id); err != nil {
				return err
			}
			if err := txRepo.CreateItems(ctx, toQuotationItems(id, priced)); err != nil {
				return err
			}
			return txRepo.Save(ctx, quotation)
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuotationNotFound
		}
		return nil, fmt.Errorf("failed to update quotation: %w", err)
	}

	return s.GetByID(ctx, id)
}

// AcceptSupervisor flips the supervisor flag and records which
// supervisor accepted when one is named. Storekeepers and managers are
// notified next. Re-accepting is a no-op that still notifies.
func (s *QuotationService) AcceptSupervisor(ctx context.Context, id uuid.UUID, supervisorID *uuid.UUID) (*domain.QuotationDTO, error) {
	if supervisorID != nil {
		supervisor, err := s.staffRepo.GetByID(ctx, *supervisorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSupervisorNotFound
			}
			return nil, fmt.Errorf("failed to load supervisor: %w", err)
		}
		if supervisor.Role != domain.RoleSupervisor {
			return nil, ErrSupervisorNotFound
		}
	}

	dto, err := s.accept(ctx, id, func(q *domain.Quotation) {
		q.SupervisorAccept = domain.AcceptAccepted
		if supervisorID != nil {
			q.SupervisorID = supervisorID
		}
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Quotation %s was approved by a supervisor", dto.CustomID)
	s.notify(ctx, domain.RoleStorekeeper, "Quotation Approved", message)
	s.notify(ctx, domain.RoleManager, "Quotation Approved", message)

	return dto, nil
}

// AcceptStorekeeper flips the storekeeper flag and tells the drivers.
func (s *QuotationService) AcceptStorekeeper(ctx context.Context, id uuid.UUID) (*domain.QuotationDTO, error) {
	dto, err := s.accept(ctx, id, func(q *domain.Quotation) {
		q.StorekeeperAccept = domain.AcceptAccepted
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, domain.RoleDriver, "Quotation Ready",
		fmt.Sprintf("Quotation %s is ready", dto.CustomID))

	return dto, nil
}

// AcceptManager flips the manager flag and informs the sales reps.
func (s *QuotationService) AcceptManager(ctx context.Context, id uuid.UUID) (*domain.QuotationDTO, error) {
	dto, err := s.accept(ctx, id, func(q *domain.Quotation) {
		q.ManagerAccept = domain.AcceptAccepted
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, domain.RoleSalesRep, "Quotation Decision",
		fmt.Sprintf("Quotation %s was accepted by a manager", dto.CustomID))

	return dto, nil
}

func (s *QuotationService) accept(ctx context.Context, id uuid.UUID, mutate func(*domain.Quotation)) (*domain.QuotationDTO, error) {
	var dto domain.QuotationDTO

	err := s.retry.Do(ctx, "quotation.accept", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepo := s.quoteRepo.WithTx(tx)

			quotation, err := txRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}

			before := *quotation
			mutate(quotation)
			changed := before.SupervisorAccept != quotation.SupervisorAccept ||
				before.StorekeeperAccept != quotation.StorekeeperAccept ||
				before.ManagerAccept != quotation.ManagerAccept ||
				before.SupervisorID != quotation.SupervisorID

			dto = mapper.ToQuotationDTO(quotation)

			if changed {
				quotation.Items = nil
				quotation.Client = nil
				quotation.Supervisor = nil
				if err := txRepo.Save(ctx, quotation); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuotationNotFound
		}
		return nil, fmt.Errorf("failed to accept quotation: %w", err)
	}

	return &dto, nil
}

// Delete removes the quotation and its line items in one transaction,
// children first.
func (s *QuotationService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.retry.Do(ctx, "quotation.delete", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepo := s.quoteRepo.WithTx(tx)

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
			return ErrQuotationNotFound
		}
		return fmt.Errorf("failed to delete quotation: %w", err)
	}
	return nil
}

func (s *QuotationService) notify(ctx context.Context, role domain.StaffRole, title, message string) {
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

func toQuotationItems(quotationID uuid.UUID, priced []pricing.PricedLine) []domain.QuotationItem {
	items := make([]domain.QuotationItem, len(priced))
	for i, pl := range priced {
		items[i] = domain.QuotationItem{
			QuotationID: quotationID,
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
