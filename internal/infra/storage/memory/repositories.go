package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	domainfavorites "premises/internal/domain/favorites"
	domainpremises "premises/internal/domain/premises"
)

// PremiseRepository is an in-memory implementation backed by RWMutex maps.
// Insertion order is preserved so "newest" listings come back in reverse
// creation order without consulting timestamps.
type PremiseRepository struct {
	mu    sync.RWMutex
	items map[domainpremises.PremiseID]*domainpremises.Premise
	order []domainpremises.PremiseID
}

// NewPremiseRepository builds an empty repository.
func NewPremiseRepository() *PremiseRepository {
	return &PremiseRepository{items: make(map[domainpremises.PremiseID]*domainpremises.Premise)}
}

// ByID returns a listing or premises.ErrNotFound.
func (r *PremiseRepository) ByID(ctx context.Context, id domainpremises.PremiseID) (*domainpremises.Premise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	premise, ok := r.items[id]
	if !ok {
		return nil, domainpremises.ErrNotFound
	}
	return premise, nil
}

// Save stores or updates a listing. New listings join the head of the source
// order; updates keep their position.
func (r *PremiseRepository) Save(ctx context.Context, premise *domainpremises.Premise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[premise.ID]; !exists {
		r.order = append([]domainpremises.PremiseID{premise.ID}, r.order...)
	}
	premise.Version++
	r.items[premise.ID] = premise
	return nil
}

// Delete removes a listing; deleting a missing id returns ErrNotFound.
func (r *PremiseRepository) Delete(ctx context.Context, id domainpremises.PremiseID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainpremises.ErrNotFound
	}
	delete(r.items, id)
	for i, current := range r.order {
		if current == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Search applies the filter criteria over the source-ordered set, then sorts.
func (r *PremiseRepository) Search(ctx context.Context, criteria domainpremises.FilterCriteria, sortKey domainpremises.SortKey) ([]*domainpremises.Premise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	normalized := criteria.Normalized()
	matches := make([]*domainpremises.Premise, 0, len(r.order))
	for _, id := range r.order {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		premise, ok := r.items[id]
		if !ok {
			continue
		}
		if normalized.Matches(premise) {
			matches = append(matches, premise)
		}
	}
	domainpremises.SortPremises(matches, sortKey)
	return matches, nil
}

// Similar returns up to limit listings of the same business type, closest by
// relative area and price distance. The anchor listing is excluded.
func (r *PremiseRepository) Similar(ctx context.Context, id domainpremises.PremiseID, limit int) ([]*domainpremises.Premise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	anchor, ok := r.items[id]
	if !ok {
		return nil, domainpremises.ErrNotFound
	}

	type scored struct {
		premise  *domainpremises.Premise
		distance float64
	}
	candidates := make([]scored, 0, len(r.order))
	for _, currentID := range r.order {
		premise, ok := r.items[currentID]
		if !ok || premise.ID == anchor.ID || premise.BusinessType != anchor.BusinessType {
			continue
		}
		candidates = append(candidates, scored{premise: premise, distance: similarityDistance(anchor, premise)})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })

	if limit <= 0 {
		limit = 4
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]*domainpremises.Premise, len(candidates))
	for i, c := range candidates {
		out[i] = c.premise
	}
	return out, nil
}

func similarityDistance(a, b *domainpremises.Premise) float64 {
	var distance float64
	if a.AreaM2 > 0 {
		distance += math.Abs(a.AreaM2-b.AreaM2) / a.AreaM2
	}
	if a.Price > 0 {
		distance += math.Abs(float64(a.Price-b.Price)) / float64(a.Price)
	}
	return distance
}

// All returns every listing in source order (newest first).
func (r *PremiseRepository) All(ctx context.Context) ([]*domainpremises.Premise, error) {
	return r.Search(ctx, domainpremises.UnboundedCriteria(), domainpremises.SortNewest)
}

var _ domainpremises.Repository = (*PremiseRepository)(nil)

// FavoritesStore keeps device-scoped favorite counters in memory.
type FavoritesStore struct {
	mu     sync.RWMutex
	counts map[domainfavorites.DeviceID]map[string]int64
}

func NewFavoritesStore() *FavoritesStore {
	return &FavoritesStore{counts: make(map[domainfavorites.DeviceID]map[string]int64)}
}

// Increment bumps the counter, creating it on the first favorite.
func (s *FavoritesStore) Increment(ctx context.Context, device domainfavorites.DeviceID, premiseID string) (int64, error) {
	if err := domainfavorites.ValidateKeys(device, premiseID); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger, ok := s.counts[device]
	if !ok {
		ledger = make(map[string]int64)
		s.counts[device] = ledger
	}
	ledger[premiseID]++
	return ledger[premiseID], nil
}

// Counts returns a copy of the device's counters.
func (s *FavoritesStore) Counts(ctx context.Context, device domainfavorites.DeviceID) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int64, len(s.counts[device]))
	for id, count := range s.counts[device] {
		out[id] = count
	}
	return out, nil
}

// Reset drops every counter of the device.
func (s *FavoritesStore) Reset(ctx context.Context, device domainfavorites.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, device)
	return nil
}

// Forget drops one listing's counters across every device, used when the
// listing itself was deleted.
func (s *FavoritesStore) Forget(ctx context.Context, premiseID string) error {
	if strings.TrimSpace(premiseID) == "" {
		return domainfavorites.ErrPremiseRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for device, ledger := range s.counts {
		delete(ledger, premiseID)
		if len(ledger) == 0 {
			delete(s.counts, device)
		}
	}
	return nil
}

var _ domainfavorites.Store = (*FavoritesStore)(nil)
