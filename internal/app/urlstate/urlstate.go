package urlstate

import (
	"net/url"
	"strconv"

	"premises/internal/domain/premises"
)

// PageSize is the fixed number of listings per result page.
const PageSize = 8

// State is the browsable part of a search: which page and which ordering.
// Filters themselves live in the request body/query; only these two survive
// in shareable URLs.
type State struct {
	Page int
	Sort premises.SortKey
}

func Default() State {
	return State{Page: 1, Sort: premises.SortNewest}
}

// Parse reads state from query parameters, falling back to defaults for
// missing or malformed values.
func Parse(values url.Values) State {
	state := Default()
	if raw := values.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page >= 1 {
			state.Page = page
		}
	}
	if raw := values.Get("sort"); raw != "" {
		state.Sort = premises.NormalizeSort(raw)
	}
	return state
}

// Encode writes state into the given query parameters. Default values are
// omitted so pristine URLs stay clean.
func (s State) Encode(values url.Values) url.Values {
	if values == nil {
		values = url.Values{}
	}
	if s.Page > 1 {
		values.Set("page", strconv.Itoa(s.Page))
	} else {
		values.Del("page")
	}
	if s.Sort != "" && s.Sort != premises.SortNewest {
		values.Set("sort", string(s.Sort))
	} else {
		values.Del("sort")
	}
	return values
}

// WithPage moves to another page leaving the ordering untouched.
func (s State) WithPage(page int) State {
	if page < 1 {
		page = 1
	}
	s.Page = page
	return s
}

// WithSort changes the ordering. Any sort change resets the page to 1.
func (s State) WithSort(sort premises.SortKey) State {
	if sort == s.Sort {
		return s
	}
	return State{Page: 1, Sort: sort}
}

// WithFilterChange marks that any filter dimension changed, which resets the
// page to 1 while keeping the ordering.
func (s State) WithFilterChange() State {
	s.Page = 1
	return s
}

// Slice returns the half-open index range [from, to) of this page over a
// result set of n items. Pages past the end come back empty.
func (s State) Slice(n int) (int, int) {
	from := (s.Page - 1) * PageSize
	if from >= n {
		return n, n
	}
	to := from + PageSize
	if to > n {
		to = n
	}
	return from, to
}
