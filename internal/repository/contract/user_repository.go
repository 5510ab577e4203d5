package contract

import (
	"context"

	"membrane-connect-be/internal/entity"
	"membrane-connect-be/internal/repository/specification"
)

type UserRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
}
