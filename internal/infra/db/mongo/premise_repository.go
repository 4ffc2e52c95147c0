package mongo

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpremises "premises/internal/domain/premises"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type PremiseRepository struct {
	col *mongo.Collection
}

func NewPremiseRepository(db *mongo.Database) *PremiseRepository {
	return &PremiseRepository{col: db.Collection("agg_premise")}
}

func (r *PremiseRepository) ByID(ctx context.Context, id domainpremises.PremiseID) (*domainpremises.Premise, error) {
	var doc premiseDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpremises.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PremiseRepository) Save(ctx context.Context, p *domainpremises.Premise) error {
	doc := newPremiseDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

func (r *PremiseRepository) Delete(ctx context.Context, id domainpremises.PremiseID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainpremises.ErrNotFound
	}
	return nil
}

// Search loads the newest-first scan and runs the domain filter over it.
// Keyword matching and the unset-bound semantics live in the domain layer, so
// the same pipeline applies regardless of the backing store.
func (r *PremiseRepository) Search(ctx context.Context, criteria domainpremises.FilterCriteria, sortKey domainpremises.SortKey) ([]*domainpremises.Premise, error) {
	items, err := r.scanNewestFirst(ctx)
	if err != nil {
		return nil, err
	}
	matched := criteria.Normalized().Apply(items)
	domainpremises.SortPremises(matched, sortKey)
	return matched, nil
}

func (r *PremiseRepository) Similar(ctx context.Context, id domainpremises.PremiseID, limit int) ([]*domainpremises.Premise, error) {
	anchor, err := r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cursor, err := r.col.Find(ctx, bson.M{
		"_id":           bson.M{"$ne": string(id)},
		"business_type": string(anchor.BusinessType),
	})
	if err != nil {
		return nil, err
	}
	candidates, err := decodeAll(ctx, cursor)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return similarityDistance(anchor, candidates[i]) < similarityDistance(anchor, candidates[j])
	})
	if limit <= 0 {
		limit = 4
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (r *PremiseRepository) scanNewestFirst(ctx context.Context) ([]*domainpremises.Premise, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cursor)
}

func decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]*domainpremises.Premise, error) {
	defer cursor.Close(ctx)
	var out []*domainpremises.Premise
	for cursor.Next(ctx) {
		var doc premiseDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func similarityDistance(anchor, candidate *domainpremises.Premise) float64 {
	var score float64
	if anchor.AreaM2 > 0 {
		score += math.Abs(candidate.AreaM2-anchor.AreaM2) / anchor.AreaM2
	}
	if anchor.Price > 0 {
		score += math.Abs(float64(candidate.Price-anchor.Price)) / float64(anchor.Price)
	}
	return score
}

type premiseDocument struct {
	ID           string        `bson:"_id"`
	OwnerID      string        `bson:"owner_id"`
	Title        string        `bson:"title"`
	Description  string        `bson:"description"`
	Price        int64         `bson:"price"`
	AreaM2       float64       `bson:"area_m2"`
	BusinessType string        `bson:"business_type"`
	LocationText string        `bson:"location_text"`
	Lat          *float64      `bson:"lat,omitempty"`
	Lng          *float64      `bson:"lng,omitempty"`
	CoverImage   string        `bson:"cover_image"`
	Images       []string      `bson:"images"`
	Owner        ownerDocument `bson:"owner"`
	CreatedAt    int64         `bson:"created_at"`
	UpdatedAt    int64         `bson:"updated_at"`
	Version      int64         `bson:"version"`
}

type ownerDocument struct {
	Name  string `bson:"name"`
	Email string `bson:"email"`
	Phone string `bson:"phone"`
}

func newPremiseDocument(p *domainpremises.Premise) premiseDocument {
	doc := premiseDocument{
		ID:           string(p.ID),
		OwnerID:      p.OwnerID,
		Title:        p.Title,
		Description:  p.Description,
		Price:        p.Price,
		AreaM2:       p.AreaM2,
		BusinessType: string(p.BusinessType),
		LocationText: p.LocationText,
		CoverImage:   p.CoverImage,
		Images:       append([]string(nil), p.Images...),
		Owner:        ownerDocument{Name: p.Owner.Name, Email: p.Owner.Email, Phone: p.Owner.Phone},
		CreatedAt:    p.CreatedAt.UnixMilli(),
		UpdatedAt:    p.UpdatedAt.UnixMilli(),
		Version:      p.Version,
	}
	// Unmapped listings carry NaN coordinates, which BSON cannot round-trip.
	if p.Mapped() {
		lat, lng := p.Latitude, p.Longitude
		doc.Lat, doc.Lng = &lat, &lng
	}
	return doc
}

func (d premiseDocument) toAggregate() *domainpremises.Premise {
	lat, lng := math.NaN(), math.NaN()
	if d.Lat != nil && d.Lng != nil {
		lat, lng = *d.Lat, *d.Lng
	}
	return &domainpremises.Premise{
		ID:           domainpremises.PremiseID(d.ID),
		OwnerID:      d.OwnerID,
		Title:        d.Title,
		Description:  d.Description,
		Price:        d.Price,
		AreaM2:       d.AreaM2,
		BusinessType: domainpremises.BusinessType(d.BusinessType),
		LocationText: d.LocationText,
		Latitude:     lat,
		Longitude:    lng,
		CoverImage:   d.CoverImage,
		Images:       append([]string(nil), d.Images...),
		Owner: domainpremises.Owner{
			Name:  d.Owner.Name,
			Email: d.Owner.Email,
			Phone: d.Owner.Phone,
		},
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainpremises.Repository = (*PremiseRepository)(nil)
