package premises

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"premises/internal/app/commands"
	"premises/internal/app/dto"
	"premises/internal/app/middleware"
	appoutbox "premises/internal/app/outbox"
	"premises/internal/app/uow"
	domainpremises "premises/internal/domain/premises"
	"premises/internal/domain/shared/events"
	domainuser "premises/internal/domain/user"
)

const (
	createPremiseKey = "premises.create"
	updatePremiseKey = "premises.update"
	deletePremiseKey = "premises.delete"
)

var (
	ErrForbidden       = errors.New("premises: caller may not modify this listing")
	ErrActorRequired   = errors.New("premises: actor is required")
	ErrPayloadRequired = errors.New("premises: payload is required")
)

// Actor identifies who issued a command; owners and admins may mutate.
type Actor struct {
	UserID string
	Role   domainuser.Role
}

func (a Actor) mayModify(ownerID string) bool {
	return a.Role == domainuser.RoleAdmin || (a.UserID != "" && a.UserID == ownerID)
}

type CreatePremiseCommand struct {
	Actor      Actor
	Payload    domainpremises.RawRecord
	RequestKey string
}

func (c CreatePremiseCommand) Key() string { return createPremiseKey }

// Idempotency: a repeated Idempotency-Key header replays the stored result.
func (c CreatePremiseCommand) IdempotencyKey() string { return c.RequestKey }
func (c CreatePremiseCommand) ResultPrototype() any   { return &dto.PremiseDetail{} }

func (c CreatePremiseCommand) Validate() error {
	if strings.TrimSpace(c.Actor.UserID) == "" {
		return ErrActorRequired
	}
	if len(c.Payload) == 0 {
		return ErrPayloadRequired
	}
	return nil
}

type CreatePremiseHandler struct {
	Outbox appoutbox.Outbox
	Logger *slog.Logger
}

func (h *CreatePremiseHandler) Handle(ctx context.Context, cmd CreatePremiseCommand) (*dto.PremiseDetail, error) {
	if strings.TrimSpace(cmd.Actor.UserID) == "" {
		return nil, ErrActorRequired
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	params := domainpremises.NormalizeRecord(cmd.Payload)
	if params.ID == "" {
		params.ID = domainpremises.PremiseID(uuid.NewString())
	}
	params.OwnerID = cmd.Actor.UserID
	params.Now = time.Now()

	premise, err := domainpremises.New(params)
	if err != nil {
		return nil, err
	}
	if err := unit.Premises().Save(ctx, premise); err != nil {
		return nil, err
	}
	if err := appoutbox.RecordDomainEvents(ctx, h.Outbox, nil, premise.PendingEvents()); err != nil {
		return nil, err
	}
	premise.ClearEvents()

	if h.Logger != nil {
		h.Logger.Info("premise created", "premise_id", premise.ID, "owner_id", premise.OwnerID)
	}
	result := dto.MapPremiseDetail(premise)
	return &result, nil
}

type UpdatePremiseCommand struct {
	Actor     Actor
	PremiseID string
	Payload   domainpremises.RawRecord
}

func (c UpdatePremiseCommand) Key() string { return updatePremiseKey }

func (c UpdatePremiseCommand) Validate() error {
	if strings.TrimSpace(c.Actor.UserID) == "" {
		return ErrActorRequired
	}
	if strings.TrimSpace(c.PremiseID) == "" {
		return domainpremises.ErrIDRequired
	}
	if len(c.Payload) == 0 {
		return ErrPayloadRequired
	}
	return nil
}

type UpdatePremiseHandler struct {
	Outbox appoutbox.Outbox
	Logger *slog.Logger
}

func (h *UpdatePremiseHandler) Handle(ctx context.Context, cmd UpdatePremiseCommand) (*dto.PremiseDetail, error) {
	if strings.TrimSpace(cmd.PremiseID) == "" {
		return nil, domainpremises.ErrIDRequired
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	premise, err := unit.Premises().ByID(ctx, domainpremises.PremiseID(cmd.PremiseID))
	if err != nil {
		return nil, err
	}
	if !cmd.Actor.mayModify(premise.OwnerID) {
		return nil, ErrForbidden
	}

	params := domainpremises.NormalizeRecord(cmd.Payload)
	if err := premise.UpdateAttributes(domainpremises.UpdateParams{
		Title:        params.Title,
		Description:  params.Description,
		Price:        params.Price,
		AreaM2:       params.AreaM2,
		BusinessType: params.BusinessType,
		LocationText: params.LocationText,
		Latitude:     params.Latitude,
		Longitude:    params.Longitude,
		CoverImage:   params.CoverImage,
		Images:       params.Images,
		Now:          time.Now(),
	}); err != nil {
		return nil, err
	}
	if err := unit.Premises().Save(ctx, premise); err != nil {
		return nil, err
	}
	if err := appoutbox.RecordDomainEvents(ctx, h.Outbox, nil, premise.PendingEvents()); err != nil {
		return nil, err
	}
	premise.ClearEvents()

	if h.Logger != nil {
		h.Logger.Info("premise updated", "premise_id", premise.ID)
	}
	result := dto.MapPremiseDetail(premise)
	return &result, nil
}

type DeletePremiseCommand struct {
	Actor     Actor
	PremiseID string
}

func (c DeletePremiseCommand) Key() string { return deletePremiseKey }

func (c DeletePremiseCommand) Validate() error {
	if strings.TrimSpace(c.Actor.UserID) == "" {
		return ErrActorRequired
	}
	if strings.TrimSpace(c.PremiseID) == "" {
		return domainpremises.ErrIDRequired
	}
	return nil
}

type DeletePremiseHandler struct {
	Outbox appoutbox.Outbox
	Logger *slog.Logger
}

func (h *DeletePremiseHandler) Handle(ctx context.Context, cmd DeletePremiseCommand) (struct{}, error) {
	if strings.TrimSpace(cmd.PremiseID) == "" {
		return struct{}{}, domainpremises.ErrIDRequired
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return struct{}{}, uow.ErrUnitOfWorkMissing
	}

	id := domainpremises.PremiseID(cmd.PremiseID)
	premise, err := unit.Premises().ByID(ctx, id)
	if err != nil {
		return struct{}{}, err
	}
	if !cmd.Actor.mayModify(premise.OwnerID) {
		return struct{}{}, ErrForbidden
	}
	if err := unit.Premises().Delete(ctx, id); err != nil {
		return struct{}{}, err
	}
	deleted := domainpremises.PremiseDeletedEvent{PremiseID: id, At: time.Now().UTC()}
	if err := appoutbox.RecordDomainEvents(ctx, h.Outbox, nil, []events.DomainEvent{deleted}); err != nil {
		return struct{}{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("premise deleted", "premise_id", id)
	}
	return struct{}{}, nil
}

var (
	_ commands.Handler[CreatePremiseCommand, *dto.PremiseDetail] = (*CreatePremiseHandler)(nil)
	_ commands.Handler[UpdatePremiseCommand, *dto.PremiseDetail] = (*UpdatePremiseHandler)(nil)
	_ commands.Handler[DeletePremiseCommand, struct{}]           = (*DeletePremiseHandler)(nil)
	_ middleware.IdempotentCommand                               = CreatePremiseCommand{}
)
