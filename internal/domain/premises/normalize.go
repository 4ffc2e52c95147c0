package premises

import (
	"math"
	"strconv"
	"strings"
)

// RawRecord is a loosely-typed listing payload as received from external
// sources: field names vary between snake and camel case, numbers arrive as
// strings or floats, and whole blocks may be missing. NormalizeRecord maps it
// into strict CreateParams exactly once, at the boundary.
type RawRecord map[string]any

func (r RawRecord) pickString(keys ...string) string {
	for _, key := range keys {
		if v, ok := r[key]; ok {
			switch s := v.(type) {
			case string:
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64)
			}
		}
	}
	return ""
}

func (r RawRecord) pickNumber(keys ...string) float64 {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case string:
			cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(n, ",", ""), " ", ""))
			if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
				return parsed
			}
		}
	}
	return math.NaN()
}

func (r RawRecord) pickStrings(keys ...string) []string {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		switch list := v.(type) {
		case []string:
			return append([]string(nil), list...)
		case []any:
			out := make([]string, 0, len(list))
			for _, item := range list {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			return out
		case string:
			if strings.TrimSpace(list) != "" {
				return []string{strings.TrimSpace(list)}
			}
		}
	}
	return nil
}

// NormalizeRecord converts a raw payload into CreateParams. Missing price and
// area become zero so validation rejects them; missing coordinates stay NaN,
// which marks the listing unmapped.
func NormalizeRecord(raw RawRecord) CreateParams {
	price := raw.pickNumber("price", "price_per_month", "pricePerMonth", "gia")
	if math.IsNaN(price) {
		price = 0
	}
	area := raw.pickNumber("area_m2", "areaM2", "area", "dien_tich")
	if math.IsNaN(area) {
		area = 0
	}
	lat := raw.pickNumber("lat", "latitude")
	lng := raw.pickNumber("lng", "lon", "longitude")

	owner := Owner{
		Name:  raw.pickString("owner_name", "ownerName", "contact_name", "contactName"),
		Email: raw.pickString("owner_email", "ownerEmail", "contact_email", "contactEmail", "email"),
		Phone: raw.pickString("owner_phone", "ownerPhone", "contact_phone", "contactPhone", "phone"),
	}

	return CreateParams{
		ID:           PremiseID(raw.pickString("id", "_id", "premise_id", "premiseId")),
		OwnerID:      raw.pickString("owner_id", "ownerId", "user_id", "userId"),
		Title:        raw.pickString("title", "name", "ten"),
		Description:  raw.pickString("description", "desc", "mo_ta"),
		Price:        int64(price),
		AreaM2:       area,
		BusinessType: raw.pickString("business_type", "businessType", "type", "category"),
		LocationText: raw.pickString("location_text", "locationText", "address", "dia_chi"),
		Latitude:     lat,
		Longitude:    lng,
		CoverImage:   raw.pickString("cover_image", "coverImage", "thumbnail"),
		Images:       raw.pickStrings("images", "image_urls", "imageUrls", "photos"),
		Owner:        owner,
	}
}
