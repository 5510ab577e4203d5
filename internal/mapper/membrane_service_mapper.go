package mapper

import (
	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/entity"
	"membrane-connect-be/internal/model"
)

type MembraneServiceMapper struct{}

func NewMembraneServiceMapper() *MembraneServiceMapper {
	return &MembraneServiceMapper{}
}

func (m *MembraneServiceMapper) ToEntity(s *model.MembraneService) *entity.MembraneService {
	if s == nil {
		return nil
	}
	return &entity.MembraneService{
		Id:             s.Id,
		UserId:         s.UserId,
		Name:           s.Name,
		LogoUri:        s.LogoUri,
		ConnectorId:    s.ConnectorId,
		IntegrationKey: s.IntegrationKey,
		ExternalAppId:  s.ExternalAppId,
		ConnectionId:   s.ConnectionId,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func (m *MembraneServiceMapper) ToModel(s *entity.MembraneService) *model.MembraneService {
	if s == nil {
		return nil
	}
	return &model.MembraneService{
		Id:             s.Id,
		UserId:         s.UserId,
		Name:           s.Name,
		LogoUri:        s.LogoUri,
		ConnectorId:    s.ConnectorId,
		IntegrationKey: s.IntegrationKey,
		ExternalAppId:  s.ExternalAppId,
		ConnectionId:   s.ConnectionId,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func (m *MembraneServiceMapper) ToEntities(services []*model.MembraneService) []*entity.MembraneService {
	entities := make([]*entity.MembraneService, len(services))
	for i, s := range services {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

// ToResponse projects a service to its public shape. UserId and timestamps
// stay internal.
func (m *MembraneServiceMapper) ToResponse(s *entity.MembraneService) *dto.MembraneServiceResponse {
	if s == nil {
		return nil
	}
	return &dto.MembraneServiceResponse{
		Id:             s.Id,
		Name:           s.Name,
		LogoUri:        s.LogoUri,
		ConnectorId:    s.ConnectorId,
		IntegrationKey: s.IntegrationKey,
		ExternalAppId:  s.ExternalAppId,
		ConnectionId:   s.ConnectionId,
	}
}

func (m *MembraneServiceMapper) ToResponses(services []*entity.MembraneService) []*dto.MembraneServiceResponse {
	responses := make([]*dto.MembraneServiceResponse, len(services))
	for i, s := range services {
		responses[i] = m.ToResponse(s)
	}
	return responses
}
