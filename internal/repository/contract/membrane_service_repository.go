package contract

import (
	"context"

	"membrane-connect-be/internal/entity"
	"membrane-connect-be/internal/repository/specification"
)

type MembraneServiceRepository interface {
	Create(ctx context.Context, service *entity.MembraneService) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MembraneService, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MembraneService, error)
	// UpdateConnection sets connection_id on the row matching both id and
	// userId. It returns nil when no such row exists.
	UpdateConnection(ctx context.Context, id, userId string, connectionId *string) (*entity.MembraneService, error)
}
