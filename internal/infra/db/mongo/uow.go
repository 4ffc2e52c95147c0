package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"premises/internal/app/uow"
	domainfavorites "premises/internal/domain/favorites"
	domainpremises "premises/internal/domain/premises"
	domainuser "premises/internal/domain/user"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// Favorites stay in the in-process store; they are anonymous per-device
// counters, not part of the transactional aggregate set.
type Factory struct {
	DB *mongo.Database

	PremisesRepo  domainpremises.Repository
	UsersRepo     domainuser.Repository
	FavoritesRepo domainfavorites.Store
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:        f.DB,
		session:   session,
		premises:  f.PremisesRepo,
		users:     f.UsersRepo,
		favorites: f.FavoritesRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	premises  domainpremises.Repository
	users     domainuser.Repository
	favorites domainfavorites.Store
}

func (u *Unit) Premises() domainpremises.Repository { return u.premises }

func (u *Unit) Users() domainuser.Repository { return u.users }

func (u *Unit) Favorites() domainfavorites.Store { return u.favorites }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UnitOfWork = (*Unit)(nil)
var _ uow.UoWFactory = Factory{}
