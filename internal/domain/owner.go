package domain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// OwnerMode selects how records are scoped to their owning entity. The
// service runs in exactly one mode; it decides the wire field name and the
// comparison type of the stored owner scope.
type OwnerMode string

const (
	// OwnerModeProperty scopes records by a numeric owning-property id.
	OwnerModeProperty OwnerMode = "property"
	// OwnerModeUser scopes records by a free-text uploader identifier.
	OwnerModeUser OwnerMode = "user"
)

func (m OwnerMode) Valid() bool {
	return m == OwnerModeProperty || m == OwnerModeUser
}

// Owner is the owner-scope value of a record. Exactly one of the two
// representations is meaningful, selected by Mode.
type Owner struct {
	Mode     OwnerMode
	User     string
	Property int64
}

func PropertyOwner(id int64) Owner {
	return Owner{Mode: OwnerModeProperty, Property: id}
}

func UserOwner(id string) Owner {
	return Owner{Mode: OwnerModeUser, User: id}
}

func (o Owner) IsZero() bool { return o.Mode == "" }

// Value returns the scalar stored in the document and used in query
// filters: a string in user mode, an int64 in property mode.
func (o Owner) Value() any {
	if o.Mode == OwnerModeUser {
		return o.User
	}
	return o.Property
}

func (o Owner) String() string {
	if o.Mode == OwnerModeUser {
		return o.User
	}
	return strconv.FormatInt(o.Property, 10)
}

// MarshalBSONValue stores the owner scope as a plain string or int64 so the
// collection field stays directly comparable in equality and $in filters.
func (o Owner) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(o.Value())
}

func (o *Owner) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		s, ok := raw.StringValueOK()
		if !ok {
			return fmt.Errorf("owner scope: malformed string value")
		}
		*o = UserOwner(s)
	case bsontype.Int64:
		n, ok := raw.Int64OK()
		if !ok {
			return fmt.Errorf("owner scope: malformed int64 value")
		}
		*o = PropertyOwner(n)
	case bsontype.Int32:
		n, ok := raw.Int32OK()
		if !ok {
			return fmt.Errorf("owner scope: malformed int32 value")
		}
		*o = PropertyOwner(int64(n))
	default:
		return fmt.Errorf("owner scope: unexpected BSON type %s", t)
	}
	return nil
}

func (o Owner) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value())
}

func (o *Owner) UnmarshalJSON(b []byte) error {
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*o = PropertyOwner(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("owner scope: %w", err)
	}
	*o = UserOwner(s)
	return nil
}
