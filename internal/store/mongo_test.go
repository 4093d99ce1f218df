package store_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldsense/ndvistore/internal/domain"
	"github.com/fieldsense/ndvistore/internal/store"
)

// openTestStore connects to the MongoDB instance named by
// NDVI_TEST_MONGO_URI and hands back a store over a throwaway database.
// Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) *store.MongoStore {
	t.Helper()

	uri := os.Getenv("NDVI_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("NDVI_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database(fmt.Sprintf("ndvistore_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return store.NewMongoStore(db)
}

func createRecord(t *testing.T, st *store.MongoStore, name string, owner domain.Owner, capture time.Time) *domain.NDVIMap {
	t.Helper()
	rec, err := st.Create(context.Background(), store.CreateInput{
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

func TestMongoCreateGetRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	north := -15.5

	rec, err := st.Create(ctx, store.CreateInput{
		Name:        "Field A",
		Description: "march capture",
		CaptureDate: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		FileData:    []byte{0x49, 0x49, 0x2a, 0x00, 1, 2, 3},
		FileType:    "image/tiff",
		Metadata: domain.Metadata{
			Coordinates: &domain.Coordinates{North: &north},
			Resolution:  10,
			Format:      "GeoTIFF",
		},
		Owner: domain.PropertyOwner(7),
	})
	require.NoError(t, err)

	got, err := st.GetByID(ctx, rec.ID.Hex(), nil)
	require.NoError(t, err)
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.FileData, got.FileData)
	assert.Equal(t, rec.CaptureDate, got.CaptureDate)
	assert.Equal(t, rec.CreatedAt, got.CreatedAt)
	assert.Equal(t, domain.PropertyOwner(7), got.OwnerScope)
	require.NotNil(t, got.Metadata.Coordinates)
	assert.Equal(t, north, *got.Metadata.Coordinates.North)
}

func TestMongoOwnerIsolation(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	rec := createRecord(t, st, "mine", domain.PropertyOwner(1), time.Now())

	other := domain.PropertyOwner(2)
	_, err := st.GetByID(ctx, rec.ID.Hex(), &other)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mine := domain.PropertyOwner(1)
	_, err = st.GetByID(ctx, rec.ID.Hex(), &mine)
	assert.NoError(t, err)
}

func TestMongoInvalidID(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.GetByID(ctx, "not-an-id", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = st.GetByID(ctx, "652d9c3f8e1b2a0012345678", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMongoListSortAndPage(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	createRecord(t, st, "banana", domain.PropertyOwner(1), day(2))
	createRecord(t, st, "apple", domain.PropertyOwner(1), day(3))
	createRecord(t, st, "cherry", domain.PropertyOwner(2), day(1))

	recs, err := st.List(ctx, store.ListOptions{SortBy: "name"})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "apple", recs[0].Name)
	assert.Equal(t, "cherry", recs[2].Name)

	recs, err = st.List(ctx, store.ListOptions{SortBy: "-captureDate", Limit: 2})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "apple", recs[0].Name)
	assert.Equal(t, "banana", recs[1].Name)

	recs, err = st.List(ctx, store.ListOptions{SortBy: "name", Offset: 2})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "cherry", recs[0].Name)
}

func TestMongoListByOwnerSet(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	createRecord(t, st, "a", domain.PropertyOwner(1), now)
	createRecord(t, st, "b", domain.PropertyOwner(2), now)
	createRecord(t, st, "c", domain.PropertyOwner(2), now)
	createRecord(t, st, "d", domain.PropertyOwner(3), now)

	owners := []domain.Owner{domain.PropertyOwner(1), domain.PropertyOwner(2)}

	recs, total, err := st.ListByOwnerSet(ctx, owners, store.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, recs, 1)

	count, err := st.CountByOwnerSet(ctx, owners)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestMongoUpdate(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	rec := createRecord(t, st, "before", domain.PropertyOwner(1), time.Now())

	name := "after"
	got, err := st.Update(ctx, rec.ID.Hex(), nil, store.UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
	assert.Equal(t, rec.FileData, got.FileData)
	assert.Equal(t, rec.CreatedAt, got.CreatedAt)

	_, err = st.Update(ctx, rec.ID.Hex(), nil, store.UpdateInput{})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = st.Update(ctx, "652d9c3f8e1b2a0012345678", nil, store.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMongoDelete(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	rec := createRecord(t, st, "rec", domain.PropertyOwner(1), time.Now())

	require.NoError(t, st.Delete(ctx, rec.ID.Hex(), nil))
	assert.ErrorIs(t, st.Delete(ctx, rec.ID.Hex(), nil), domain.ErrNotFound)
}

func TestMongoGetFileBytes(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	rec := createRecord(t, st, "rec", domain.UserOwner("alice"), time.Now())

	data, mime, err := st.GetFileBytes(ctx, rec.ID.Hex(), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("rec bytes"), data)
	assert.Equal(t, "image/tiff", mime)
}
