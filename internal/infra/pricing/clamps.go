package pricing

import (
	"encoding/json"
	"log/slog"
	"strings"

	domainpremises "premises/internal/domain/premises"
)

// ClampRange bounds a monthly rent estimate in VND. Zero means "no bound".
type ClampRange struct {
	MinVND float64 `json:"min_vnd"`
	MaxVND float64 `json:"max_vnd"`
}

// ClampConfig holds sanity bounds for predictor output, per city bucket with
// a global fallback. Raw model output occasionally spikes on thin inputs.
type ClampConfig struct {
	Defaults ClampRange                            `json:"defaults"`
	Cities   map[domainpremises.CityKey]ClampRange `json:"cities"`
}

func DefaultClampConfig() ClampConfig {
	return ClampConfig{
		Defaults: ClampRange{MinVND: 1_000_000, MaxVND: 1_000_000_000},
		Cities: map[domainpremises.CityKey]ClampRange{
			domainpremises.CityHanoi:  {MinVND: 2_000_000, MaxVND: 1_500_000_000},
			domainpremises.CityHCM:    {MinVND: 2_000_000, MaxVND: 2_000_000_000},
			domainpremises.CityDanang: {MinVND: 1_500_000, MaxVND: 800_000_000},
		},
	}
}

// LoadClampConfig parses the PRICE_CLAMPS env JSON, falling back to defaults
// on malformed input.
func LoadClampConfig(raw string, logger *slog.Logger) ClampConfig {
	if strings.TrimSpace(raw) == "" {
		return DefaultClampConfig()
	}
	var cfg ClampConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		if logger != nil {
			logger.Warn("invalid PRICE_CLAMPS JSON, using defaults", "error", err)
		}
		return DefaultClampConfig()
	}
	if cfg.Defaults == (ClampRange{}) {
		cfg.Defaults = DefaultClampConfig().Defaults
	}
	if cfg.Cities == nil {
		cfg.Cities = map[domainpremises.CityKey]ClampRange{}
	}
	return cfg
}

func applyClamps(amount float64, cfg ClampConfig, city domainpremises.CityKey) (final, min, max float64, clamped bool) {
	final = amount
	rng, ok := cfg.Cities[city]
	if !ok {
		rng = cfg.Defaults
	}
	min, max = rng.MinVND, rng.MaxVND
	if min > 0 && final < min {
		final = min
		clamped = true
	}
	if max > 0 && final > max {
		final = max
		clamped = true
	}
	return final, min, max, clamped
}
