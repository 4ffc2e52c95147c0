package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync(t *testing.T) {
	t.Run("no markers falls back to the default center", func(t *testing.T) {
		v := NewView()
		cam := v.Sync(nil)
		assert.Equal(t, DefaultCenter, cam.Center)
		assert.Equal(t, float64(DefaultZoom), cam.Zoom)
		assert.False(t, cam.Fit)
	})

	t.Run("single marker focuses it", func(t *testing.T) {
		v := NewView()
		pt := orb.Point{106.7, 10.77}
		cam := v.Sync([]Marker{{ID: "p1", Point: pt}})
		assert.Equal(t, pt, cam.Center)
		assert.Equal(t, float64(FocusZoom), cam.Zoom)
	})

	t.Run("several markers fit their bounding box with padding", func(t *testing.T) {
		v := NewView()
		cam := v.Sync([]Marker{
			{ID: "p1", Point: orb.Point{105.8, 21.0}},
			{ID: "p2", Point: orb.Point{106.7, 10.77}},
			{ID: "p3", Point: orb.Point{108.2, 16.05}},
		})
		require.True(t, cam.Fit)
		assert.Equal(t, FitPadding, cam.Padding)
		assert.Equal(t, orb.Point{105.8, 10.77}, cam.Bound.Min)
		assert.Equal(t, orb.Point{108.2, 21.0}, cam.Bound.Max)
	})

	t.Run("shrinking back to zero markers resets the camera", func(t *testing.T) {
		v := NewView()
		v.Sync([]Marker{{ID: "p1", Point: orb.Point{106.7, 10.77}}})
		cam := v.Sync(nil)
		assert.Equal(t, DefaultCenter, cam.Center)
	})
}

func TestFocus(t *testing.T) {
	v := NewView()
	pt := orb.Point{105.84, 21.03}
	cam := v.Focus(pt)
	assert.Equal(t, pt, cam.Center)
	assert.Equal(t, float64(FocusZoom), cam.Zoom)
}

func TestMoveMarker(t *testing.T) {
	t.Run("updates position without touching the camera", func(t *testing.T) {
		v := NewView()
		before := v.Sync([]Marker{
			{ID: "p1", Point: orb.Point{105.8, 21.0}},
			{ID: "p2", Point: orb.Point{106.7, 10.77}},
		})

		require.NoError(t, v.MoveMarker("p1", orb.Point{105.9, 21.1}))

		assert.Equal(t, before, v.Camera())
		markers := v.Markers()
		require.Len(t, markers, 2)
		assert.Equal(t, orb.Point{105.9, 21.1}, markers[0].Point)
	})

	t.Run("unknown marker is an error", func(t *testing.T) {
		v := NewView()
		v.Sync([]Marker{{ID: "p1", Point: orb.Point{105.8, 21.0}}})
		err := v.MoveMarker("ghost", orb.Point{0, 0})
		assert.ErrorIs(t, err, ErrUnknownMarker)
	})
}

func TestMarkersReturnsCopy(t *testing.T) {
	v := NewView()
	v.Sync([]Marker{{ID: "p1", Point: orb.Point{105.8, 21.0}}})
	got := v.Markers()
	got[0].Point = orb.Point{0, 0}
	assert.Equal(t, orb.Point{105.8, 21.0}, v.Markers()[0].Point)
}
