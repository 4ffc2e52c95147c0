package geo

import (
	"errors"
	"sync"

	"github.com/paulmach/orb"
)

var ErrUnknownMarker = errors.New("geo: unknown marker")

const (
	// DefaultZoom is used when no markers are on the map.
	DefaultZoom = 12
	// FocusZoom is used when flying to a single resolved coordinate.
	FocusZoom = 16
	// FitPadding is the pixel padding applied when fitting bounds.
	FitPadding = 48
)

// DefaultCenter is central Hà Nội, the fallback viewport center.
var DefaultCenter = orb.Point{105.804817, 21.028511}

// Marker is a mapped listing pin.
type Marker struct {
	ID    string
	Point orb.Point
}

// Camera describes what the map should show. When Fit is true the renderer
// fits Bound with FitPadding; otherwise it centers on Center at Zoom.
type Camera struct {
	Center  orb.Point
	Zoom    float64
	Bound   orb.Bound
	Fit     bool
	Padding int
}

// View keeps the marker set and camera consistent with the current filtered
// listing set. Safe for concurrent use.
type View struct {
	mu      sync.Mutex
	markers []Marker
	camera  Camera
}

func NewView() *View {
	return &View{camera: Camera{Center: DefaultCenter, Zoom: DefaultZoom}}
}

// Sync replaces the marker set and recomputes the camera: no markers falls
// back to the default center, a single marker focuses it, several markers fit
// their bounding box with padding.
func (v *View) Sync(markers []Marker) Camera {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.markers = append([]Marker(nil), markers...)
	switch len(markers) {
	case 0:
		v.camera = Camera{Center: DefaultCenter, Zoom: DefaultZoom}
	case 1:
		v.camera = Camera{Center: markers[0].Point, Zoom: FocusZoom}
	default:
		bound := orb.Bound{Min: markers[0].Point, Max: markers[0].Point}
		for _, m := range markers[1:] {
			bound = bound.Extend(m.Point)
		}
		v.camera = Camera{Bound: bound, Fit: true, Padding: FitPadding}
	}
	return v.camera
}

// Focus flies to a single resolved coordinate, e.g. a fresh geocode result.
func (v *View) Focus(pt orb.Point) Camera {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.camera = Camera{Center: pt, Zoom: FocusZoom}
	return v.camera
}

// MoveMarker records a drag-end position for one marker. The camera is left
// untouched so the map does not jump under the user's cursor.
func (v *View) MoveMarker(id string, pt orb.Point) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.markers {
		if v.markers[i].ID == id {
			v.markers[i].Point = pt
			return nil
		}
	}
	return ErrUnknownMarker
}

// Markers returns a copy of the current marker set.
func (v *View) Markers() []Marker {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Marker(nil), v.markers...)
}

// Camera returns the current camera without recomputing it.
func (v *View) Camera() Camera {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.camera
}
