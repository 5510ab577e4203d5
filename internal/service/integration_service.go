package service

import (
	"context"
	"strings"
	"time"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/entity"
	"membrane-connect-be/internal/mapper"
	"membrane-connect-be/internal/pkg/logger"
	"membrane-connect-be/internal/repository/specification"
	"membrane-connect-be/internal/repository/unitofwork"
	"membrane-connect-be/pkg/apperror"
	"membrane-connect-be/pkg/events"

	"github.com/google/uuid"
)

// IIntegrationService is the per-user store of attached external services.
type IIntegrationService interface {
	List(ctx context.Context, userId string) (*dto.ListMembraneServicesResponse, error)
	Create(ctx context.Context, userId string, req *dto.CreateMembraneServiceRequest) (*dto.MembraneServiceEnvelope, error)
	UpdateConnection(ctx context.Context, userId string, req *dto.UpdateMembraneServiceRequest) (*dto.MembraneServiceEnvelope, error)
}

type integrationService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  events.Publisher
	mapper     *mapper.MembraneServiceMapper
	logger     logger.ILogger
}

func NewIntegrationService(
	uowFactory unitofwork.RepositoryFactory,
	publisher events.Publisher,
	logger logger.ILogger,
) IIntegrationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &integrationService{
		uowFactory: uowFactory,
		publisher:  publisher,
		mapper:     mapper.NewMembraneServiceMapper(),
		logger:     logger,
	}
}

func nullable(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func (s *integrationService) List(ctx context.Context, userId string) (*dto.ListMembraneServicesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	services, err := uow.MembraneServiceRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		s.logger.Error("IntegrationService", "Failed to list services", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
		return nil, apperror.Internal("Failed to fetch services", err)
	}
	return &dto.ListMembraneServicesResponse{Services: s.mapper.ToResponses(services)}, nil
}

func (s *integrationService) Create(ctx context.Context, userId string, req *dto.CreateMembraneServiceRequest) (*dto.MembraneServiceEnvelope, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperror.Validation("name is required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()
	service := entity.MembraneService{
		Id:             uuid.NewString(),
		UserId:         userId,
		Name:           req.Name,
		LogoUri:        nullable(req.LogoUri),
		ConnectorId:    nullable(req.ConnectorId),
		IntegrationKey: nullable(req.IntegrationKey),
		ExternalAppId:  nullable(req.ExternalAppId),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uow.MembraneServiceRepository().Create(ctx, &service); err != nil {
		s.logger.Error("IntegrationService", "Failed to create service", map[string]interface{}{
			"user_id": userId,
			"name":    req.Name,
			"error":   err.Error(),
		})
		return nil, apperror.Internal("Failed to create service", err)
	}

	s.publish(ctx, events.NewServiceCreated(userId, service.Id, service.Name))
	return &dto.MembraneServiceEnvelope{Service: s.mapper.ToResponse(&service)}, nil
}

// UpdateConnection sets or clears connectionId on a service the caller
// owns. The ownership check happens inside the update statement.
func (s *integrationService) UpdateConnection(ctx context.Context, userId string, req *dto.UpdateMembraneServiceRequest) (*dto.MembraneServiceEnvelope, error) {
	if strings.TrimSpace(req.Id) == "" {
		return nil, apperror.Validation("id is required")
	}

	var connectionId *string
	if req.ConnectionId != nil {
		connectionId = nullable(*req.ConnectionId)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	updated, err := uow.MembraneServiceRepository().UpdateConnection(ctx, req.Id, userId, connectionId)
	if err != nil {
		s.logger.Error("IntegrationService", "Failed to update service", map[string]interface{}{
			"user_id":    userId,
			"service_id": req.Id,
			"error":      err.Error(),
		})
		return nil, apperror.Internal("Failed to update service", err)
	}
	if updated == nil {
		return nil, apperror.NotFound("Service not found")
	}

	conn := ""
	if connectionId != nil {
		conn = *connectionId
	}
	s.publish(ctx, events.NewServiceConnected(userId, updated.Id, conn))
	return &dto.MembraneServiceEnvelope{Service: s.mapper.ToResponse(updated)}, nil
}

func (s *integrationService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("IntegrationService", "Failed to publish event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}
