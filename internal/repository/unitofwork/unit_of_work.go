package unitofwork

import (
	"membrane-connect-be/internal/repository/contract"
)

type UnitOfWork interface {
	UserRepository() contract.UserRepository
	MembraneServiceRepository() contract.MembraneServiceRepository
}
