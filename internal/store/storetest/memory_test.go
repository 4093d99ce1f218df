package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsense/ndvistore/internal/domain"
	"github.com/fieldsense/ndvistore/internal/store"
)

// testClock hands out strictly increasing timestamps so createdAt ordering
// is deterministic.
func testClock() func() time.Time {
	t := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore() *Memory {
	m := New()
	m.Now = testClock()
	return m
}

func seed(t *testing.T, m *Memory, name string, owner domain.Owner, capture time.Time) *domain.NDVIMap {
	t.Helper()
	rec, err := m.Create(context.Background(), store.CreateInput{
		Name:        name,
		CaptureDate: capture,
		FileData:    []byte(name + " bytes"),
		FileType:    "image/tiff",
		Metadata:    domain.Metadata{Resolution: 10, Format: "GeoTIFF"},
		Owner:       owner,
	})
	require.NoError(t, err)
	return rec
}

func TestCreateGetRoundTrip(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()
	north, west := -15.5, -47.9

	rec, err := m.Create(ctx, store.CreateInput{
		Name:        "  Field A  ",
		Description: "march capture",
		CaptureDate: time.Date(2024, 3, 1, 10, 30, 0, 123456789, time.UTC),
		FileData:    []byte{0x49, 0x49, 0x2a, 0x00, 1, 2, 3},
		FileType:    "image/tiff",
		Metadata: domain.Metadata{
			Coordinates: &domain.Coordinates{North: &north, West: &west},
			Resolution:  10,
			Format:      "GeoTIFF",
		},
		Owner: domain.PropertyOwner(7),
	})
	require.NoError(t, err)
	assert.Equal(t, "Field A", rec.Name, "name is trimmed")
	assert.False(t, rec.ID.IsZero())
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)

	got, err := m.GetByID(ctx, rec.ID.Hex(), nil)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, []byte{0x49, 0x49, 0x2a, 0x00, 1, 2, 3}, got.FileData)
	require.NotNil(t, got.Metadata.Coordinates)
	assert.Equal(t, north, *got.Metadata.Coordinates.North)

	// Timestamps carry millisecond precision only.
	assert.Zero(t, got.CaptureDate.Nanosecond()%int(time.Millisecond))
}

func TestGetByIDErrors(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()

	_, err := m.GetByID(ctx, "not-an-id", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = m.GetByID(ctx, "652d9c3f8e1b2a0012345678", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOwnerIsolation(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()
	rec := seed(t, m, "mine", domain.PropertyOwner(1), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	mine := domain.PropertyOwner(1)
	other := domain.PropertyOwner(2)

	_, err := m.GetByID(ctx, rec.ID.Hex(), &mine)
	require.NoError(t, err)

	_, err = m.GetByID(ctx, rec.ID.Hex(), &other)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = m.Delete(ctx, rec.ID.Hex(), &other)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	name := "stolen"
	_, err = m.Update(ctx, rec.ID.Hex(), &other, store.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListSortAndPage(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	seed(t, m, "banana", domain.PropertyOwner(1), day(2))
	seed(t, m, "apple", domain.PropertyOwner(1), day(3))
	seed(t, m, "cherry", domain.PropertyOwner(2), day(1))

	names := func(recs []*domain.NDVIMap) []string {
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = r.Name
		}
		return out
	}

	recs, err := m.List(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"banana", "apple", "cherry"}, names(recs), "default is createdAt ascending")

	recs, err = m.List(ctx, store.ListOptions{SortBy: "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana", "cherry"}, names(recs))

	recs, err = m.List(ctx, store.ListOptions{SortBy: "-captureDate"})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana", "cherry"}, names(recs))

	recs, err = m.List(ctx, store.ListOptions{SortBy: "name", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"banana"}, names(recs))

	recs, err = m.List(ctx, store.ListOptions{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestListByOwner(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seed(t, m, "one", domain.PropertyOwner(1), day)
	seed(t, m, "two", domain.PropertyOwner(1), day)
	seed(t, m, "other", domain.PropertyOwner(2), day)

	recs, err := m.ListByOwner(ctx, domain.PropertyOwner(1), store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "two", recs[0].Name, "default is createdAt descending")
	assert.Equal(t, "one", recs[1].Name)
}

func TestListByDateRange(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	seed(t, m, "early", domain.PropertyOwner(1), day(1))
	seed(t, m, "mid", domain.PropertyOwner(1), day(10))
	seed(t, m, "late", domain.PropertyOwner(1), day(20))

	recs, err := m.ListByDateRange(ctx, day(5), day(25), nil, store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "late", recs[0].Name, "default is captureDate descending")
	assert.Equal(t, "mid", recs[1].Name)

	// Boundaries are inclusive.
	recs, err = m.ListByDateRange(ctx, day(1), day(10), nil, store.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestListByOwnerSet(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seed(t, m, "a", domain.PropertyOwner(1), day)
	seed(t, m, "b", domain.PropertyOwner(2), day)
	seed(t, m, "c", domain.PropertyOwner(2), day)
	seed(t, m, "d", domain.PropertyOwner(3), day)

	owners := []domain.Owner{domain.PropertyOwner(1), domain.PropertyOwner(2)}

	recs, total, err := m.ListByOwnerSet(ctx, owners, store.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "total ignores the page limit")
	assert.Len(t, recs, 1)

	count, err := m.CountByOwnerSet(ctx, owners)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = m.CountByOwnerSet(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdatePartial(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()
	rec := seed(t, m, "before", domain.PropertyOwner(1), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	name := "after"
	res := 30.0
	got, err := m.Update(ctx, rec.ID.Hex(), nil, store.UpdateInput{Name: &name, Resolution: &res})
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
	assert.Equal(t, 30.0, got.Metadata.Resolution)
	assert.Equal(t, rec.FileData, got.FileData, "file untouched")
	assert.Equal(t, rec.CaptureDate, got.CaptureDate)
	assert.Equal(t, rec.CreatedAt, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(rec.UpdatedAt))
}

func TestUpdateFileReplacement(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()
	rec := seed(t, m, "rec", domain.PropertyOwner(1), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	got, err := m.Update(ctx, rec.ID.Hex(), nil, store.UpdateInput{
		FileData: []byte{9, 9, 9},
		FileType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9}, got.FileData)
	assert.Equal(t, "image/png", got.FileType)

	_, err = m.Update(ctx, rec.ID.Hex(), nil, store.UpdateInput{FileData: []byte{1}})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestUpdateErrors(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()
	name := "x"

	_, err := m.Update(ctx, "not-an-id", nil, store.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = m.Update(ctx, "652d9c3f8e1b2a0012345678", nil, store.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rec := seed(t, m, "rec", domain.PropertyOwner(1), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err = m.Update(ctx, rec.ID.Hex(), nil, store.UpdateInput{})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestDelete(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()
	rec := seed(t, m, "rec", domain.PropertyOwner(1), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, m.Delete(ctx, rec.ID.Hex(), nil))
	assert.ErrorIs(t, m.Delete(ctx, rec.ID.Hex(), nil), domain.ErrNotFound)

	_, err := m.GetByID(ctx, rec.ID.Hex(), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetFileBytes(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()
	rec := seed(t, m, "rec", domain.UserOwner("alice"), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	data, mime, err := m.GetFileBytes(ctx, rec.ID.Hex(), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("rec bytes"), data)
	assert.Equal(t, "image/tiff", mime)

	owner := domain.UserOwner("mallory")
	_, _, err = m.GetFileBytes(ctx, rec.ID.Hex(), &owner)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCloneIsolation(t *testing.T) {
	m := newTestStore()
	ctx := context.Background()
	rec := seed(t, m, "rec", domain.PropertyOwner(1), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	// Mutating a returned record must not leak into the store.
	rec.FileData[0] = 0xFF
	rec.Name = "mutated"

	got, err := m.GetByID(ctx, rec.ID.Hex(), nil)
	require.NoError(t, err)
	assert.Equal(t, "rec", got.Name)
	assert.Equal(t, []byte("rec bytes"), got.FileData)
}
