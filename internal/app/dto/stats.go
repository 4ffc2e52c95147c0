package dto

// StatsOverview is the dashboard headline block.
type StatsOverview struct {
	TotalPosts int     `json:"totalPosts"`
	AvgPrice   float64 `json:"avgPrice"`
	PostsToday int     `json:"postsToday"`
}

// LabelValue is a generic chart point keyed by a display label.
type LabelValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// LabelCount is a count bucketed by display label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DayValue is a chart point keyed by an ISO day (YYYY-MM-DD).
type DayValue struct {
	Day   string  `json:"day"`
	Value float64 `json:"value"`
}

// DayCount is a per-day posting count.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// UserTypeCount ranks posters by listings within one business type.
type UserTypeCount struct {
	User  string `json:"user"`
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// AreaRange is the min/max area span of one business type.
type AreaRange struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}
