package memory

import (
	"context"
	"errors"

	"premises/internal/app/uow"
	domainfavorites "premises/internal/domain/favorites"
	domainpremises "premises/internal/domain/premises"
	domainuser "premises/internal/domain/user"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	PremisesRepo  domainpremises.Repository
	UsersRepo     domainuser.Repository
	FavoritesRepo domainfavorites.Store
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.PremisesRepo == nil || f.UsersRepo == nil || f.FavoritesRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{premises: f.PremisesRepo, users: f.UsersRepo, favorites: f.FavoritesRepo}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	premises  domainpremises.Repository
	users     domainuser.Repository
	favorites domainfavorites.Store
}

func (u *Unit) Premises() domainpremises.Repository { return u.premises }
func (u *Unit) Users() domainuser.Repository        { return u.users }
func (u *Unit) Favorites() domainfavorites.Store    { return u.favorites }
func (u *Unit) Commit(ctx context.Context) error    { return nil }
func (u *Unit) Rollback(ctx context.Context) error  { return nil }
