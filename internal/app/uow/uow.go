package uow

import (
	"context"

	domainfavorites "premises/internal/domain/favorites"
	domainpremises "premises/internal/domain/premises"
	domainuser "premises/internal/domain/user"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Premises() domainpremises.Repository
	Users() domainuser.Repository
	Favorites() domainfavorites.Store

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
