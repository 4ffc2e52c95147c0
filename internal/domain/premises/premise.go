package premises

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"premises/internal/domain/shared/events"
)

var (
	ErrIDRequired      = errors.New("premises: id is required")
	ErrTitleRequired   = errors.New("premises: title is required")
	ErrPriceNegative   = errors.New("premises: price must be non-negative")
	ErrAreaNotPositive = errors.New("premises: area must be positive")
	ErrTooManyImages   = errors.New("premises: at most 8 images allowed")
	ErrOwnerRequired   = errors.New("premises: owner email is required")
	ErrNotFound        = errors.New("premises: not found")
	ErrNotOwner        = errors.New("premises: caller does not own this listing")
)

type PremiseID string

// BusinessType is the normalized category key of a listing.
type BusinessType string

const (
	TypeFnB       BusinessType = "fnb"
	TypeRetail    BusinessType = "retail"
	TypeOffice    BusinessType = "office"
	TypeWarehouse BusinessType = "warehouse"
	TypeOther     BusinessType = "khac"
)

var typeLabels = map[BusinessType]string{
	TypeFnB:       "F&B",
	TypeRetail:    "Bán lẻ",
	TypeOffice:    "Văn phòng",
	TypeWarehouse: "Kho",
	TypeOther:     "Khác",
}

// NormalizeType lowercases and trims a raw type value, mapping unknown
// values to TypeOther.
func NormalizeType(raw string) BusinessType {
	key := BusinessType(strings.TrimSpace(strings.ToLower(raw)))
	if _, ok := typeLabels[key]; ok {
		return key
	}
	return TypeOther
}

// Label returns the display label of a business type.
func (t BusinessType) Label() string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return typeLabels[TypeOther]
}

// Owner is the denormalized contact block carried on every listing.
type Owner struct {
	Name  string
	Email string
	Phone string
}

// Premise is a single rentable-premises listing. The authoritative copy is
// never mutated by readers; coordinates equal to NaN mean "unmapped".
type Premise struct {
	ID           PremiseID
	OwnerID      string
	Title        string
	Description  string
	Price        int64
	AreaM2       float64
	BusinessType BusinessType
	LocationText string
	Latitude     float64
	Longitude    float64
	CoverImage   string
	Images       []string
	Owner        Owner
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

// Mapped reports whether the listing carries usable coordinates.
func (p *Premise) Mapped() bool {
	return !math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude)
}

// Cover returns the canonical cover image: the explicit cover when set,
// otherwise the first of Images.
func (p *Premise) Cover() string {
	if p.CoverImage != "" {
		return p.CoverImage
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

type Repository interface {
	ByID(ctx context.Context, id PremiseID) (*Premise, error)
	Save(ctx context.Context, premise *Premise) error
	Delete(ctx context.Context, id PremiseID) error
	Search(ctx context.Context, criteria FilterCriteria, sort SortKey) ([]*Premise, error)
	Similar(ctx context.Context, id PremiseID, limit int) ([]*Premise, error)
}

type CreateParams struct {
	ID           PremiseID
	OwnerID      string
	Title        string
	Description  string
	Price        int64
	AreaM2       float64
	BusinessType string
	LocationText string
	Latitude     float64
	Longitude    float64
	CoverImage   string
	Images       []string
	Owner        Owner
	Now          time.Time
}

func New(params CreateParams) (*Premise, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.Price < 0 {
		return nil, ErrPriceNegative
	}
	if !(params.AreaM2 > 0) {
		return nil, ErrAreaNotPositive
	}
	if len(params.Images) > 8 {
		return nil, ErrTooManyImages
	}
	if strings.TrimSpace(params.Owner.Email) == "" {
		return nil, ErrOwnerRequired
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	lat, lng := params.Latitude, params.Longitude
	if lat == 0 && lng == 0 {
		lat, lng = math.NaN(), math.NaN()
	}

	premise := &Premise{
		ID:           params.ID,
		OwnerID:      strings.TrimSpace(params.OwnerID),
		Title:        strings.TrimSpace(params.Title),
		Description:  strings.TrimSpace(params.Description),
		Price:        params.Price,
		AreaM2:       params.AreaM2,
		BusinessType: NormalizeType(params.BusinessType),
		LocationText: strings.TrimSpace(params.LocationText),
		Latitude:     lat,
		Longitude:    lng,
		CoverImage:   strings.TrimSpace(params.CoverImage),
		Images:       append([]string(nil), params.Images...),
		Owner:        params.Owner,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	premise.Record(PremiseCreatedEvent{PremiseID: premise.ID, OwnerEmail: premise.Owner.Email, At: premise.CreatedAt})
	return premise, nil
}

type UpdateParams struct {
	Title        string
	Description  string
	Price        int64
	AreaM2       float64
	BusinessType string
	LocationText string
	Latitude     float64
	Longitude    float64
	CoverImage   string
	Images       []string
	Now          time.Time
}

func (p *Premise) UpdateAttributes(params UpdateParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return ErrTitleRequired
	}
	if params.Price < 0 {
		return ErrPriceNegative
	}
	if !(params.AreaM2 > 0) {
		return ErrAreaNotPositive
	}
	if len(params.Images) > 8 {
		return ErrTooManyImages
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}

	p.Title = strings.TrimSpace(params.Title)
	p.Description = strings.TrimSpace(params.Description)
	p.Price = params.Price
	p.AreaM2 = params.AreaM2
	p.BusinessType = NormalizeType(params.BusinessType)
	p.LocationText = strings.TrimSpace(params.LocationText)
	p.Latitude = params.Latitude
	p.Longitude = params.Longitude
	p.CoverImage = strings.TrimSpace(params.CoverImage)
	p.Images = append([]string(nil), params.Images...)
	p.UpdatedAt = now.UTC()
	p.Record(PremiseUpdatedEvent{PremiseID: p.ID, At: p.UpdatedAt})
	return nil
}
