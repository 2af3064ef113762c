package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/database"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/mapper"
	"github.com/northpeak/logistics-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClientService manages the client registry. Deleting a client is
// refused while orders or quotations still reference it; referential
// integrity is the caller's responsibility, not a cascade.
type ClientService struct {
	clientRepo *repository.ClientRepository
	retry      *database.RetryPolicy
	logger     *zap.Logger
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo *repository.ClientRepository, retry *database.RetryPolicy, logger *zap.Logger) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		retry:      retry,
		logger:     logger,
	}
}

// Create registers a new client
func (s *ClientService) Create(ctx context.Context, req *domain.CreateClientRequest) (*domain.ClientDTO, error) {
	client := &domain.Client{
		CompanyName:  req.CompanyName,
		ClientName:   req.ClientName,
		ClientType:   domain.ClientType(req.ClientType),
		PhoneNumber:  req.PhoneNumber,
		TaxNumber:    req.TaxNumber,
		BranchNumber: req.BranchNumber,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Street:       req.Street,
		City:         req.City,
		Region:       req.Region,
	}

	err := s.retry.Do(ctx, "client.create", func(ctx context.Context) error {
		return s.clientRepo.Create(ctx, client)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.logger.Info("client created",
		zap.String("client_id", client.ID.String()),
		zap.String("company_name", client.CompanyName),
	)

	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

// GetByID loads one client
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientDTO, error) {
	var dto domain.ClientDTO
	err := s.retry.Do(ctx, "client.get", func(ctx context.Context) error {
		client, err := s.clientRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		dto = mapper.ToClientDTO(client)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &dto, nil
}

// Update replaces the mutable fields of a client
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateClientRequest) (*domain.ClientDTO, error) {
	var dto domain.ClientDTO

	err := s.retry.Do(ctx, "client.update", func(ctx context.Context) error {
		client, err := s.clientRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		client.CompanyName = req.CompanyName
		client.ClientName = req.ClientName
		client.ClientType = domain.ClientType(req.ClientType)
		client.PhoneNumber = req.PhoneNumber
		client.TaxNumber = req.TaxNumber
		client.BranchNumber = req.BranchNumber
		client.Latitude = req.Latitude
		client.Longitude = req.Longitude
		client.Street = req.Street
		client.City = req.City
		client.Region = req.Region

		if err := s.clientRepo.Update(ctx, client); err != nil {
			return err
		}
		dto = mapper.ToClientDTO(client)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return &dto, nil
}

// Delete removes a client that has no orders or quotations
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.retry.Do(ctx, "client.delete", func(ctx context.Context) error {
		if _, err := s.clientRepo.GetByID(ctx, id); err != nil {
			return err
		}

		orders, err := s.clientRepo.CountOrders(ctx, id)
		if err != nil {
			return err
		}
		quotations, err := s.clientRepo.CountQuotations(ctx, id)
		if err != nil {
			return err
		}
		if orders > 0 || quotations > 0 {
			return ErrClientInUse
		}

		return s.clientRepo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		if errors.Is(err, ErrClientInUse) {
			return err
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

// List returns a paginated client listing with name search
func (s *ClientService) List(ctx context.Context, page, limit int, search string) (*domain.ClientListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	var clients []domain.Client
	var total int64
	err := s.retry.Do(ctx, "client.list", func(ctx context.Context) error {
		var err error
		clients, total, err = s.clientRepo.List(ctx, page, limit, search)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	dtos := make([]domain.ClientDTO, len(clients))
	for i := range clients {
		dtos[i] = mapper.ToClientDTO(&clients[i])
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return &domain.ClientListResponse{
		Clients:     dtos,
		TotalCount:  total,
		CurrentPage: page,
		TotalPages:  totalPages,
		HasMore:     page < totalPages,
	}, nil
}
