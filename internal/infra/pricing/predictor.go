package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"premises/internal/app/dto"
	domainpremises "premises/internal/domain/premises"
)

var (
	ErrNotConfigured = errors.New("pricing: predictor endpoint not configured")
	// ErrUpstream wraps any predictor-side failure so handlers can map it to
	// a 502 without leaking transport details.
	ErrUpstream = errors.New("pricing: predictor unavailable")
)

const requestTimeout = 5 * time.Second

// Predictor calls the external price-suggestion service with a listing's
// features and returns its estimate with the P90 interval.
type Predictor struct {
	Endpoint string
	Client   *http.Client
	Logger   *slog.Logger
	Clamps   ClampConfig
}

type predictRequest struct {
	PremiseID    string  `json:"premise_id,omitempty"`
	City         string  `json:"city"`
	BusinessType string  `json:"business_type"`
	AreaM2       float64 `json:"area_m2"`
	CurrentPrice float64 `json:"current_price,omitempty"`
}

type predictResponse struct {
	PredictedPrice float64 `json:"predicted_price"`
	LowerP90       float64 `json:"lower_p90"`
	UpperP90       float64 `json:"upper_p90"`
	ModelInfo      string  `json:"model_info"`
}

// Suggest maps a listing to predictor features and post-processes the
// estimate through the configured city clamps.
func (p *Predictor) Suggest(ctx context.Context, premise *domainpremises.Premise) (dto.PriceSuggestion, error) {
	var zero dto.PriceSuggestion
	if p == nil || p.Client == nil || strings.TrimSpace(p.Endpoint) == "" {
		return zero, ErrNotConfigured
	}
	if premise == nil {
		return zero, domainpremises.ErrNotFound
	}

	city := domainpremises.CityOf(premise.Latitude, premise.Longitude)
	payload := predictRequest{
		PremiseID:    string(premise.ID),
		City:         string(city),
		BusinessType: string(premise.BusinessType),
		AreaM2:       premise.AreaM2,
		CurrentPrice: float64(premise.Price),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return zero, err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			err = fmt.Errorf("%w: timeout (%s)", ErrUpstream, p.Endpoint)
		} else {
			err = fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		p.logError("price prediction request failed", premise.ID, err)
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(snippet)))
		p.logError("price prediction returned error", premise.ID, err)
		return zero, err
	}

	var predicted predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&predicted); err != nil {
		err = fmt.Errorf("%w: decode: %v", ErrUpstream, err)
		p.logError("price prediction decode failed", premise.ID, err)
		return zero, err
	}

	final, clampMin, clampMax, clamped := applyClamps(predicted.PredictedPrice, p.clamps(), city)
	if p.Logger != nil {
		p.Logger.Info("price prediction post-processed",
			"premise_id", premise.ID,
			"city", city,
			"price_raw", predicted.PredictedPrice,
			"price_final", final,
			"clamped", clamped,
			"clamp_min", clampMin,
			"clamp_max", clampMax,
		)
	}
	return dto.PriceSuggestion{
		PredictedPrice: final,
		LowerP90:       predicted.LowerP90,
		UpperP90:       predicted.UpperP90,
		ModelInfo:      predicted.ModelInfo,
	}, nil
}

func (p *Predictor) clamps() ClampConfig {
	if p == nil || (p.Clamps.Defaults == (ClampRange{}) && p.Clamps.Cities == nil) {
		return DefaultClampConfig()
	}
	return p.Clamps
}

func (p *Predictor) logError(msg string, id domainpremises.PremiseID, err error) {
	if p.Logger != nil {
		p.Logger.Error(msg, "premise_id", id, "error", err)
	}
}
