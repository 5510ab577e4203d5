package implementation

import (
	"context"
	"errors"

	"membrane-connect-be/internal/entity"
	"membrane-connect-be/internal/mapper"
	"membrane-connect-be/internal/model"
	"membrane-connect-be/internal/repository/contract"
	"membrane-connect-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MembraneServiceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MembraneServiceMapper
}

func NewMembraneServiceRepository(db *gorm.DB) contract.MembraneServiceRepository {
	return &MembraneServiceRepositoryImpl{
		db:     db,
		mapper: mapper.NewMembraneServiceMapper(),
	}
}

func (r *MembraneServiceRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MembraneServiceRepositoryImpl) Create(ctx context.Context, service *entity.MembraneService) error {
	m := r.mapper.ToModel(service)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*service = *r.mapper.ToEntity(m)
	return nil
}

func (r *MembraneServiceRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MembraneService, error) {
	var m model.MembraneService
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *MembraneServiceRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MembraneService, error) {
	var models []*model.MembraneService
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

// UpdateConnection is a single UPDATE ... WHERE id AND user_id RETURNING *,
// so ownership is decided by the database in the same statement.
func (r *MembraneServiceRepositoryImpl) UpdateConnection(ctx context.Context, id, userId string, connectionId *string) (*entity.MembraneService, error) {
	var m model.MembraneService
	result := r.db.WithContext(ctx).
		Model(&m).
		Clauses(clause.Returning{}).
		Where("id = ? AND user_id = ?", id, userId).
		Update("connection_id", connectionId)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.mapper.ToEntity(&m), nil
}
