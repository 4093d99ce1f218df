// Package store implements the record store: CRUD and filtered listing
// over NDVI map documents in a single MongoDB collection.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldsense/ndvistore/internal/domain"
)

const collectionName = "ndvi_maps"

// MongoStore is the record store backed by a MongoDB collection. It owns
// validation and timestamp assignment; concurrent writes to the same id are
// resolved by the database (last write wins), not by the store.
type MongoStore struct {
	coll *mongo.Collection

	// Now is the clock used for createdAt/updatedAt; replaceable in tests.
	Now func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(collectionName), Now: time.Now}
}

// timestamp truncates to milliseconds to match BSON datetime precision, so
// a record read back compares equal to the one written.
func (s *MongoStore) timestamp() time.Time {
	return s.Now().UTC().Truncate(time.Millisecond)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return oid, nil
}

// ownerFilter adds the owner-scope equality clause when an owner is given.
// Every scoped read and write goes through this: a record under owner A is
// never reachable through a request presenting owner B.
func ownerFilter(filter bson.M, owner *domain.Owner) bson.M {
	if owner != nil {
		filter["ownerScope"] = owner.Value()
	}
	return filter
}

func ownerValues(owners []domain.Owner) []any {
	vals := make([]any, len(owners))
	for i, o := range owners {
		vals[i] = o.Value()
	}
	return vals
}

func (s *MongoStore) Create(ctx context.Context, in CreateInput) (*domain.NDVIMap, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := ValidateCreate(in); err != nil {
		return nil, err
	}

	now := s.timestamp()
	rec := &domain.NDVIMap{
		ID:          primitive.NewObjectID(),
		Name:        in.Name,
		Description: in.Description,
		CaptureDate: in.CaptureDate.UTC().Truncate(time.Millisecond),
		FileData:    in.FileData,
		FileType:    in.FileType,
		Metadata:    in.Metadata,
		OwnerScope:  in.Owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert ndvi map: %w", err)
	}
	return rec, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string, owner *domain.Owner) (*domain.NDVIMap, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var rec domain.NDVIMap
	err = s.coll.FindOne(ctx, ownerFilter(bson.M{"_id": oid}, owner)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find ndvi map: %w", err)
	}
	return &rec, nil
}

func (s *MongoStore) List(ctx context.Context, opts ListOptions) ([]*domain.NDVIMap, error) {
	return s.find(ctx, bson.M{}, opts, "createdAt")
}

func (s *MongoStore) ListByOwner(ctx context.Context, owner domain.Owner, opts ListOptions) ([]*domain.NDVIMap, error) {
	return s.find(ctx, bson.M{"ownerScope": owner.Value()}, opts, "-createdAt")
}

func (s *MongoStore) ListByDateRange(ctx context.Context, start, end time.Time, owner *domain.Owner, opts ListOptions) ([]*domain.NDVIMap, error) {
	filter := ownerFilter(bson.M{
		"captureDate": bson.M{"$gte": start.UTC(), "$lte": end.UTC()},
	}, owner)
	return s.find(ctx, filter, opts, "-captureDate")
}

// ListByOwnerSet returns the page of records belonging to any of the given
// owners together with the total match count, so callers can paginate
// without a second round trip.
func (s *MongoStore) ListByOwnerSet(ctx context.Context, owners []domain.Owner, opts ListOptions) ([]*domain.NDVIMap, int64, error) {
	filter := bson.M{"ownerScope": bson.M{"$in": ownerValues(owners)}}
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count ndvi maps: %w", err)
	}
	recs, err := s.find(ctx, filter, opts, "-createdAt")
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func (s *MongoStore) CountByOwnerSet(ctx context.Context, owners []domain.Owner) (int64, error) {
	total, err := s.coll.CountDocuments(ctx, bson.M{"ownerScope": bson.M{"$in": ownerValues(owners)}})
	if err != nil {
		return 0, fmt.Errorf("count ndvi maps: %w", err)
	}
	return total, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, owner *domain.Owner, in UpdateInput) (*domain.NDVIMap, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := ValidateUpdate(in); err != nil {
		return nil, err
	}

	filter := ownerFilter(bson.M{"_id": oid}, owner)

	// Existence check before the mutation so a missing record is reported
	// as not-found rather than blamed on the update contents.
	err = s.coll.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find ndvi map: %w", err)
	}

	set := bson.M{"updatedAt": s.timestamp()}
	if in.Name != nil {
		set["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		set["description"] = strings.TrimSpace(*in.Description)
	}
	if in.CaptureDate != nil {
		set["captureDate"] = in.CaptureDate.UTC().Truncate(time.Millisecond)
	}
	if in.Resolution != nil {
		set["metadata.resolution"] = *in.Resolution
	}
	if in.Format != nil {
		set["metadata.format"] = *in.Format
	}
	if in.Coordinates != nil {
		set["metadata.coordinates"] = in.Coordinates
	}
	if in.FileData != nil {
		set["fileData"] = in.FileData
		set["fileType"] = in.FileType
	}

	var rec domain.NDVIMap
	err = s.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update ndvi map: %w", err)
	}
	return &rec, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string, owner *domain.Owner) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, ownerFilter(bson.M{"_id": oid}, owner))
	if err != nil {
		return fmt.Errorf("delete ndvi map: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetFileBytes fetches only the stored file and its MIME type, for binary
// download responses.
func (s *MongoStore) GetFileBytes(ctx context.Context, id string, owner *domain.Owner) ([]byte, string, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, "", err
	}
	var out struct {
		FileData []byte `bson:"fileData"`
		FileType string `bson:"fileType"`
	}
	err = s.coll.FindOne(ctx, ownerFilter(bson.M{"_id": oid}, owner),
		options.FindOne().SetProjection(bson.M{"fileData": 1, "fileType": 1})).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", domain.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("find ndvi map file: %w", err)
	}
	return out.FileData, out.FileType, nil
}

func (s *MongoStore) find(ctx context.Context, filter bson.M, opts ListOptions, defaultSort string) ([]*domain.NDVIMap, error) {
	field, dir := ParseSort(opts.SortBy, defaultSort)
	fo := options.Find().
		SetSort(bson.D{{Key: field, Value: dir}}).
		SetSkip(opts.Offset)
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}

	cur, err := s.coll.Find(ctx, filter, fo)
	if err != nil {
		return nil, fmt.Errorf("list ndvi maps: %w", err)
	}
	var recs []*domain.NDVIMap
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode ndvi maps: %w", err)
	}
	return recs, nil
}
