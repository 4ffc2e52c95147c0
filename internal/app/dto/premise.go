package dto

import (
	"math"
	"time"

	"github.com/paulmach/orb"

	"premises/internal/domain/geo"
	domainpremises "premises/internal/domain/premises"
)

// PremiseOwner is the public contact block of a listing.
type PremiseOwner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PremiseSummary is the card-sized projection used in search results.
type PremiseSummary struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Price        int64    `json:"price"`
	AreaM2       float64  `json:"area_m2"`
	BusinessType string   `json:"business_type"`
	TypeLabel    string   `json:"type_label"`
	LocationText string   `json:"location_text"`
	CityKey      string   `json:"city_key"`
	CityLabel    string   `json:"city_label"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	CoverImage   string   `json:"cover_image"`
	CreatedAt    string   `json:"created_at"`
}

// PremiseDetail extends the summary with everything the detail view shows.
type PremiseDetail struct {
	PremiseSummary
	Description string       `json:"description"`
	Images      []string     `json:"images"`
	Owner       PremiseOwner `json:"owner"`
	OwnerID     string       `json:"owner_id"`
	UpdatedAt   string       `json:"updated_at"`
}

// PremisePage is one page of search results. Map describes the viewport for
// the whole filtered set, not just the current page.
type PremisePage struct {
	Items    []PremiseSummary `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Sort     string           `json:"sort"`
	Map      MapView          `json:"map"`
}

// MapPoint is a lng/lat pair in JSON field order matching the client map.
type MapPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type MapMarker struct {
	ID    string   `json:"id"`
	Point MapPoint `json:"point"`
}

// MapView carries the camera for the filtered set: either a center+zoom or a
// bound to fit with padding.
type MapView struct {
	Center  *MapPoint    `json:"center,omitempty"`
	Zoom    float64      `json:"zoom,omitempty"`
	Fit     bool         `json:"fit"`
	Bound   *[2]MapPoint `json:"bound,omitempty"`
	Padding int          `json:"padding,omitempty"`
	Markers []MapMarker  `json:"markers"`
}

// MapViewOf synchronizes a viewport over every mapped listing in the set.
func MapViewOf(items []*domainpremises.Premise) MapView {
	markers := make([]geo.Marker, 0, len(items))
	for _, p := range items {
		if p.Mapped() {
			markers = append(markers, geo.Marker{ID: string(p.ID), Point: orb.Point{p.Longitude, p.Latitude}})
		}
	}
	camera := geo.NewView().Sync(markers)

	view := MapView{Markers: make([]MapMarker, 0, len(markers))}
	for _, m := range markers {
		view.Markers = append(view.Markers, MapMarker{ID: m.ID, Point: MapPoint{Lat: m.Point.Y(), Lng: m.Point.X()}})
	}
	if camera.Fit {
		view.Fit = true
		view.Padding = camera.Padding
		view.Bound = &[2]MapPoint{
			{Lat: camera.Bound.Min.Y(), Lng: camera.Bound.Min.X()},
			{Lat: camera.Bound.Max.Y(), Lng: camera.Bound.Max.X()},
		}
		return view
	}
	view.Center = &MapPoint{Lat: camera.Center.Y(), Lng: camera.Center.X()}
	view.Zoom = camera.Zoom
	return view
}

func MapPremiseSummary(p *domainpremises.Premise) PremiseSummary {
	if p == nil {
		return PremiseSummary{}
	}
	city := domainpremises.CityOf(p.Latitude, p.Longitude)
	summary := PremiseSummary{
		ID:           string(p.ID),
		Title:        p.Title,
		Price:        p.Price,
		AreaM2:       p.AreaM2,
		BusinessType: string(p.BusinessType),
		TypeLabel:    p.BusinessType.Label(),
		LocationText: p.LocationText,
		CityKey:      string(city),
		CityLabel:    city.Label(),
		CoverImage:   p.Cover(),
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
	if p.Mapped() {
		lat, lng := p.Latitude, p.Longitude
		summary.Lat, summary.Lng = &lat, &lng
	}
	return summary
}

func MapPremiseDetail(p *domainpremises.Premise) PremiseDetail {
	if p == nil {
		return PremiseDetail{}
	}
	return PremiseDetail{
		PremiseSummary: MapPremiseSummary(p),
		Description:    p.Description,
		Images:         append([]string(nil), p.Images...),
		Owner:          PremiseOwner{Name: p.Owner.Name, Email: p.Owner.Email, Phone: p.Owner.Phone},
		OwnerID:        p.OwnerID,
		UpdatedAt:      p.UpdatedAt.Format(time.RFC3339),
	}
}

func MapPremisePage(items []*domainpremises.Premise, total, page, pageSize int, sort domainpremises.SortKey) PremisePage {
	summaries := make([]PremiseSummary, 0, len(items))
	for _, p := range items {
		summaries = append(summaries, MapPremiseSummary(p))
	}
	return PremisePage{Items: summaries, Total: total, Page: page, PageSize: pageSize, Sort: string(sort)}
}

// FilterPayload carries optional numeric bounds as pointers so "absent" and
// "zero" stay distinguishable in JSON.
type FilterPayload struct {
	Keyword  string   `json:"keyword"`
	Type     string   `json:"type"`
	City     string   `json:"city"`
	MinPrice *float64 `json:"min_price"`
	MaxPrice *float64 `json:"max_price"`
	MinArea  *float64 `json:"min_area"`
	MaxArea  *float64 `json:"max_area"`
}

// ToCriteria maps the payload onto domain criteria, NaN marking unset bounds.
func (f FilterPayload) ToCriteria() domainpremises.FilterCriteria {
	criteria := domainpremises.UnboundedCriteria()
	criteria.Keyword = f.Keyword
	criteria.Type = f.Type
	criteria.City = f.City
	criteria.MinPrice = deref(f.MinPrice)
	criteria.MaxPrice = deref(f.MaxPrice)
	criteria.MinArea = deref(f.MinArea)
	criteria.MaxArea = deref(f.MaxArea)
	return criteria
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
