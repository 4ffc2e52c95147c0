package dto

// PriceSuggestion mirrors the external predictor response.
type PriceSuggestion struct {
	PredictedPrice float64 `json:"predicted_price"`
	LowerP90       float64 `json:"lower_p90"`
	UpperP90       float64 `json:"upper_p90"`
	ModelInfo      string  `json:"model_info"`
}
