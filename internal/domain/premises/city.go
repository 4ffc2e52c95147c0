package premises

import (
	"math"

	"github.com/paulmach/orb"
)

// CityKey is the derived city bucket of a listing. It is computed from
// coordinates on demand and never stored.
type CityKey string

const (
	CityHanoi  CityKey = "ha-noi"
	CityHCM    CityKey = "hcm"
	CityDanang CityKey = "da-nang"
	CityOther  CityKey = "khac"
)

type cityBox struct {
	key   CityKey
	label string
	bound orb.Bound
}

// Bounding boxes are deliberately coarse; membership checks run on every
// filter pass so they stay cheap. Order matters for deterministic bucketing.
var cityBoxes = []cityBox{
	{key: CityHanoi, label: "Hà Nội", bound: orb.Bound{Min: orb.Point{105.5, 20.8}, Max: orb.Point{106.2, 21.3}}},
	{key: CityHCM, label: "TP. Hồ Chí Minh", bound: orb.Bound{Min: orb.Point{106.1, 10.3}, Max: orb.Point{107.1, 11.2}}},
	{key: CityDanang, label: "Đà Nẵng", bound: orb.Bound{Min: orb.Point{107.9, 15.8}, Max: orb.Point{108.5, 16.3}}},
}

// CityOf buckets a coordinate pair into one of the known city boxes. Unmapped
// or out-of-box coordinates fall into CityOther.
func CityOf(lat, lng float64) CityKey {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return CityOther
	}
	pt := orb.Point{lng, lat}
	for _, box := range cityBoxes {
		if box.bound.Contains(pt) {
			return box.key
		}
	}
	return CityOther
}

// Label returns the display name of a city key.
func (k CityKey) Label() string {
	for _, box := range cityBoxes {
		if box.key == k {
			return box.label
		}
	}
	return "Khác"
}

// CityKeys lists the selectable city buckets, known cities first.
func CityKeys() []CityKey {
	keys := make([]CityKey, 0, len(cityBoxes)+1)
	for _, box := range cityBoxes {
		keys = append(keys, box.key)
	}
	return append(keys, CityOther)
}
