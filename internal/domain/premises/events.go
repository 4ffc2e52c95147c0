package premises

import "time"

type PremiseCreatedEvent struct {
	PremiseID  PremiseID
	OwnerEmail string
	At         time.Time
}

func (e PremiseCreatedEvent) EventName() string     { return "premises.premise_created" }
func (e PremiseCreatedEvent) AggregateID() string   { return string(e.PremiseID) }
func (e PremiseCreatedEvent) OccurredAt() time.Time { return e.At }

type PremiseUpdatedEvent struct {
	PremiseID PremiseID
	At        time.Time
}

func (e PremiseUpdatedEvent) EventName() string     { return "premises.premise_updated" }
func (e PremiseUpdatedEvent) AggregateID() string   { return string(e.PremiseID) }
func (e PremiseUpdatedEvent) OccurredAt() time.Time { return e.At }

type PremiseDeletedEvent struct {
	PremiseID PremiseID
	At        time.Time
}

func (e PremiseDeletedEvent) EventName() string     { return "premises.premise_deleted" }
func (e PremiseDeletedEvent) AggregateID() string   { return string(e.PremiseID) }
func (e PremiseDeletedEvent) OccurredAt() time.Time { return e.At }
