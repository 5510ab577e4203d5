package unitofwork

import (
	"membrane-connect-be/internal/repository/contract"
	"membrane-connect-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.db)
}

func (u *UnitOfWorkImpl) MembraneServiceRepository() contract.MembraneServiceRepository {
	return implementation.NewMembraneServiceRepository(u.db)
}
