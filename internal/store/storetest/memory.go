// Package storetest provides an in-memory record store with the same
// observable semantics as the Mongo-backed one, for transport-level tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fieldsense/ndvistore/internal/domain"
	"github.com/fieldsense/ndvistore/internal/store"
)

type Memory struct {
	mu   sync.Mutex
	recs map[string]*domain.NDVIMap

	// Now is the clock used for timestamps; replaceable for deterministic
	// ordering in tests.
	Now func() time.Time
}

func New() *Memory {
	return &Memory{
		recs: make(map[string]*domain.NDVIMap),
		Now:  time.Now,
	}
}

func (m *Memory) timestamp() time.Time {
	return m.Now().UTC().Truncate(time.Millisecond)
}

func clone(rec *domain.NDVIMap) *domain.NDVIMap {
	c := *rec
	c.FileData = append([]byte(nil), rec.FileData...)
	if rec.Metadata.Coordinates != nil {
		coords := *rec.Metadata.Coordinates
		c.Metadata.Coordinates = &coords
	}
	return &c
}

func (m *Memory) Create(_ context.Context, in store.CreateInput) (*domain.NDVIMap, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := store.ValidateCreate(in); err != nil {
		return nil, err
	}

	now := m.timestamp()
	rec := &domain.NDVIMap{
		ID:          primitive.NewObjectID(),
		Name:        in.Name,
		Description: in.Description,
		CaptureDate: in.CaptureDate.UTC().Truncate(time.Millisecond),
		FileData:    append([]byte(nil), in.FileData...),
		FileType:    in.FileType,
		Metadata:    in.Metadata,
		OwnerScope:  in.Owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.ID.Hex()] = rec
	return clone(rec), nil
}

func (m *Memory) GetByID(_ context.Context, id string, owner *domain.Owner) (*domain.NDVIMap, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, domain.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok || !ownerMatches(rec, owner) {
		return nil, domain.ErrNotFound
	}
	return clone(rec), nil
}

func (m *Memory) List(_ context.Context, opts store.ListOptions) ([]*domain.NDVIMap, error) {
	return m.collect(func(*domain.NDVIMap) bool { return true }, opts, "createdAt"), nil
}

func (m *Memory) ListByOwner(_ context.Context, owner domain.Owner, opts store.ListOptions) ([]*domain.NDVIMap, error) {
	return m.collect(func(r *domain.NDVIMap) bool {
		return ownerMatches(r, &owner)
	}, opts, "-createdAt"), nil
}

func (m *Memory) ListByDateRange(_ context.Context, start, end time.Time, owner *domain.Owner, opts store.ListOptions) ([]*domain.NDVIMap, error) {
	return m.collect(func(r *domain.NDVIMap) bool {
		if !ownerMatches(r, owner) {
			return false
		}
		return !r.CaptureDate.Before(start.UTC()) && !r.CaptureDate.After(end.UTC())
	}, opts, "-captureDate"), nil
}

func (m *Memory) ListByOwnerSet(_ context.Context, owners []domain.Owner, opts store.ListOptions) ([]*domain.NDVIMap, int64, error) {
	match := func(r *domain.NDVIMap) bool { return ownerInSet(r, owners) }
	total := int64(len(m.collect(match, store.ListOptions{}, "-createdAt")))
	return m.collect(match, opts, "-createdAt"), total, nil
}

func (m *Memory) CountByOwnerSet(_ context.Context, owners []domain.Owner) (int64, error) {
	return int64(len(m.collect(func(r *domain.NDVIMap) bool {
		return ownerInSet(r, owners)
	}, store.ListOptions{}, "-createdAt"))), nil
}

func (m *Memory) Update(_ context.Context, id string, owner *domain.Owner, in store.UpdateInput) (*domain.NDVIMap, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, domain.ErrInvalidID
	}
	if err := store.ValidateUpdate(in); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok || !ownerMatches(rec, owner) {
		return nil, domain.ErrNotFound
	}

	if in.Name != nil {
		rec.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		rec.Description = strings.TrimSpace(*in.Description)
	}
	if in.CaptureDate != nil {
		rec.CaptureDate = in.CaptureDate.UTC().Truncate(time.Millisecond)
	}
	if in.Resolution != nil {
		rec.Metadata.Resolution = *in.Resolution
	}
	if in.Format != nil {
		rec.Metadata.Format = *in.Format
	}
	if in.Coordinates != nil {
		coords := *in.Coordinates
		rec.Metadata.Coordinates = &coords
	}
	if in.FileData != nil {
		rec.FileData = append([]byte(nil), in.FileData...)
		rec.FileType = in.FileType
	}
	rec.UpdatedAt = m.timestamp()
	return clone(rec), nil
}

func (m *Memory) Delete(_ context.Context, id string, owner *domain.Owner) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return domain.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok || !ownerMatches(rec, owner) {
		return domain.ErrNotFound
	}
	delete(m.recs, id)
	return nil
}

func (m *Memory) GetFileBytes(ctx context.Context, id string, owner *domain.Owner) ([]byte, string, error) {
	rec, err := m.GetByID(ctx, id, owner)
	if err != nil {
		return nil, "", err
	}
	return rec.FileData, rec.FileType, nil
}

func ownerMatches(rec *domain.NDVIMap, owner *domain.Owner) bool {
	return owner == nil || rec.OwnerScope.Value() == owner.Value()
}

func ownerInSet(rec *domain.NDVIMap, owners []domain.Owner) bool {
	for _, o := range owners {
		if rec.OwnerScope.Value() == o.Value() {
			return true
		}
	}
	return false
}

func (m *Memory) collect(match func(*domain.NDVIMap) bool, opts store.ListOptions, defaultSort string) []*domain.NDVIMap {
	m.mu.Lock()
	var recs []*domain.NDVIMap
	for _, r := range m.recs {
		if match(r) {
			recs = append(recs, clone(r))
		}
	}
	m.mu.Unlock()

	field, dir := store.ParseSort(opts.SortBy, defaultSort)
	sort.SliceStable(recs, func(i, j int) bool {
		c := compareField(recs[i], recs[j], field)
		if dir < 0 {
			return c > 0
		}
		return c < 0
	})

	offset := opts.Offset
	if offset > int64(len(recs)) {
		offset = int64(len(recs))
	}
	recs = recs[offset:]
	if opts.Limit > 0 && opts.Limit < int64(len(recs)) {
		recs = recs[:opts.Limit]
	}
	return recs
}

func compareField(a, b *domain.NDVIMap, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "captureDate":
		return a.CaptureDate.Compare(b.CaptureDate)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return 0
	}
}
