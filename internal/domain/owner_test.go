package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/fieldsense/ndvistore/internal/domain"
)

func TestOwnerJSON(t *testing.T) {
	t.Run("property marshals as number", func(t *testing.T) {
		b, err := json.Marshal(domain.PropertyOwner(42))
		require.NoError(t, err)
		assert.Equal(t, "42", string(b))
	})

	t.Run("user marshals as string", func(t *testing.T) {
		b, err := json.Marshal(domain.UserOwner("alice"))
		require.NoError(t, err)
		assert.Equal(t, `"alice"`, string(b))
	})

	t.Run("number unmarshals as property", func(t *testing.T) {
		var o domain.Owner
		require.NoError(t, json.Unmarshal([]byte("7"), &o))
		assert.Equal(t, domain.PropertyOwner(7), o)
	})

	t.Run("string unmarshals as user", func(t *testing.T) {
		var o domain.Owner
		require.NoError(t, json.Unmarshal([]byte(`"bob"`), &o))
		assert.Equal(t, domain.UserOwner("bob"), o)
	})
}

func TestOwnerBSONRoundTrip(t *testing.T) {
	type doc struct {
		Owner domain.Owner `bson:"ownerScope"`
	}

	for _, owner := range []domain.Owner{
		domain.PropertyOwner(1234),
		domain.UserOwner("carol"),
	} {
		raw, err := bson.Marshal(doc{Owner: owner})
		require.NoError(t, err)

		var got doc
		require.NoError(t, bson.Unmarshal(raw, &got))
		assert.Equal(t, owner, got.Owner)
	}
}

func TestOwnerBSONStoresScalar(t *testing.T) {
	type doc struct {
		Owner domain.Owner `bson:"ownerScope"`
	}

	raw, err := bson.Marshal(doc{Owner: domain.PropertyOwner(9)})
	require.NoError(t, err)

	// The stored field must be a plain scalar so equality and $in filters
	// match it directly.
	var plain struct {
		Owner int64 `bson:"ownerScope"`
	}
	require.NoError(t, bson.Unmarshal(raw, &plain))
	assert.Equal(t, int64(9), plain.Owner)
}

func TestOwnerIsZero(t *testing.T) {
	assert.True(t, domain.Owner{}.IsZero())
	assert.False(t, domain.PropertyOwner(0).IsZero())
	assert.False(t, domain.UserOwner("").IsZero())
}
