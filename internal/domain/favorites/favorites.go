package favorites

import (
	"context"
	"errors"
	"sort"
	"strings"
)

var (
	ErrDeviceRequired  = errors.New("favorites: device id is required")
	ErrPremiseRequired = errors.New("favorites: premise id is required")
)

// DeviceID identifies an anonymous browser/device. Favorites are scoped to it.
type DeviceID string

// Entry is one listing's favorite count on a device.
type Entry struct {
	PremiseID string
	Count     int64
}

// Store is an increment-only counter ledger. There is no decrement; counts go
// away only through Reset, or through Forget when the listing itself is gone.
type Store interface {
	Increment(ctx context.Context, device DeviceID, premiseID string) (int64, error)
	Counts(ctx context.Context, device DeviceID) (map[string]int64, error)
	Reset(ctx context.Context, device DeviceID) error
	Forget(ctx context.Context, premiseID string) error
}

// ValidateKeys checks the identifying pair before touching the store.
func ValidateKeys(device DeviceID, premiseID string) error {
	if strings.TrimSpace(string(device)) == "" {
		return ErrDeviceRequired
	}
	if strings.TrimSpace(premiseID) == "" {
		return ErrPremiseRequired
	}
	return nil
}

// Top orders a count map by count descending, premise id ascending on ties,
// and clamps to limit. limit <= 0 means all entries.
func Top(counts map[string]int64, limit int) []Entry {
	entries := make([]Entry, 0, len(counts))
	for id, count := range counts {
		entries = append(entries, Entry{PremiseID: id, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].PremiseID < entries[j].PremiseID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
