package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb"
)

// ErrLocationNotFound is returned after every query variant came back empty.
var ErrLocationNotFound = errors.New("geocode: location not found, provide a more specific address")

const (
	defaultBaseURL    = "https://nominatim.openstreetmap.org"
	candidatesPerCall = 5
	userAgent         = "premises/1.0 (+https://premises.example.com)"
)

// vietnamBound biases results toward Vietnam without excluding the rest of
// the world; ranking still prefers "vn" candidates explicitly.
var vietnamBound = orb.Bound{Min: orb.Point{102.1, 8.2}, Max: orb.Point{109.5, 23.4}}

type Result struct {
	Lat         float64
	Lng         float64
	DisplayName string
}

// Client resolves free-text Vietnamese addresses against Nominatim. It tries
// query variants in order until one yields candidates. Calls carry no fixed
// timeout; cancellation comes from the caller's context.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger

	mu        sync.Mutex
	lastQuery string
	lastHit   Result
	hasLast   bool
}

func NewClient(baseURL string, httpc *http.Client, logger *slog.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if httpc == nil {
		httpc = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc, logger: logger}
}

// Geocode returns the best-guess coordinate for a free-text address. An
// identical repeat of the previous successful query is answered from memory
// without a network call.
func (c *Client) Geocode(ctx context.Context, query string) (Result, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return Result{}, ErrLocationNotFound
	}

	c.mu.Lock()
	if c.hasLast && c.lastQuery == trimmed {
		hit := c.lastHit
		c.mu.Unlock()
		return hit, nil
	}
	c.mu.Unlock()

	for _, variant := range QueryVariants(trimmed) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		candidates, err := c.search(ctx, variant)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Result{}, err
			}
			// A failed variant counts as "no candidates"; the next
			// variant may still resolve.
			c.logger.Debug("geocode variant failed", "variant", variant, "error", err)
			continue
		}
		if len(candidates) == 0 {
			continue
		}
		best := pickBest(candidates)
		result, err := best.toResult()
		if err != nil {
			c.logger.Debug("geocode candidate unparsable", "variant", variant, "error", err)
			continue
		}
		c.mu.Lock()
		c.lastQuery = trimmed
		c.lastHit = result
		c.hasLast = true
		c.mu.Unlock()
		return result, nil
	}
	return Result{}, ErrLocationNotFound
}

type candidate struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	Address     struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

func (c candidate) score() int {
	score := 0
	switch c.Class {
	case "boundary", "place":
		score += 2
	}
	if strings.EqualFold(c.Address.CountryCode, "vn") {
		score++
	}
	return score
}

func (c candidate) toResult() (Result, error) {
	lat, err := strconv.ParseFloat(c.Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("geocode: bad latitude %q: %w", c.Lat, err)
	}
	lng, err := strconv.ParseFloat(c.Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("geocode: bad longitude %q: %w", c.Lon, err)
	}
	return Result{Lat: lat, Lng: lng, DisplayName: c.DisplayName}, nil
}

// pickBest keeps Nominatim's own order on ties so the first candidate of the
// top score wins.
func pickBest(candidates []candidate) candidate {
	ranked := append([]candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score() > ranked[j].score() })
	return ranked[0]
}

func (c *Client) search(ctx context.Context, query string) ([]candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(candidatesPerCall))
	params.Set("accept-language", "vi")
	params.Set("viewbox", fmt.Sprintf("%g,%g,%g,%g",
		vietnamBound.Min.X(), vietnamBound.Max.Y(), vietnamBound.Max.X(), vietnamBound.Min.Y()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: call nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: nominatim status %d", resp.StatusCode)
	}
	var candidates []candidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}
	return candidates, nil
}
