package graphql

import (
	"encoding/base64"
	"time"

	"github.com/fieldsense/ndvistore/internal/domain"
	"github.com/fieldsense/ndvistore/internal/store"
)

// Argument and input-object extraction. graphql-go coerces scalars before
// resolvers run (Int to int, Float to float64, String and ID to string);
// optional arguments that were not supplied are absent from the map.

func idArg(args map[string]any) string {
	s, _ := args["id"].(string)
	return s
}

func optString(m map[string]any, key string) *string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return &s
		}
	}
	return nil
}

func optFloat(m map[string]any, key string) *float64 {
	switch n := m[key].(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	}
	return nil
}

func requiredString(m map[string]any, key string) (string, error) {
	if s := optString(m, key); s != nil {
		return *s, nil
	}
	return "", domain.Invalid(key, "required")
}

func listOptions(args map[string]any) store.ListOptions {
	var opts store.ListOptions
	if n, ok := args["limit"].(int); ok && n > 0 {
		opts.Limit = int64(n)
	}
	if n, ok := args["offset"].(int); ok && n > 0 {
		opts.Offset = int64(n)
	}
	if s := optString(args, "sortBy"); s != nil {
		opts.SortBy = *s
	}
	return opts
}

func dateArg(args map[string]any, key string) (time.Time, error) {
	raw, err := requiredString(args, key)
	if err != nil {
		return time.Time{}, err
	}
	return parseDate(key, raw)
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(field, raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, domain.Invalid(field, "must be an ISO-8601 date")
}

// ownerArgName is the owner-scope argument and input field name for the
// configured mode.
func (r *Resolver) ownerArgName() string {
	if r.mode == domain.OwnerModeUser {
		return "uploadedBy"
	}
	return "propriedadeId"
}

func (r *Resolver) ownerFrom(m map[string]any) (*domain.Owner, error) {
	if r.mode == domain.OwnerModeUser {
		if s := optString(m, "uploadedBy"); s != nil {
			o := domain.UserOwner(*s)
			return &o, nil
		}
		return nil, nil
	}
	if n, ok := m["propriedadeId"].(int); ok {
		o := domain.PropertyOwner(int64(n))
		return &o, nil
	}
	return nil, nil
}

// optionalOwner never requires the owner argument.
func (r *Resolver) optionalOwner(args map[string]any) (*domain.Owner, error) {
	return r.ownerFrom(args)
}

// readOwner enforces the owner-scoped access rule: property mode requires
// the owner scope on every read and write, user mode leaves it optional.
func (r *Resolver) readOwner(args map[string]any) (*domain.Owner, error) {
	owner, err := r.ownerFrom(args)
	if err != nil {
		return nil, err
	}
	if owner == nil && r.mode == domain.OwnerModeProperty {
		return nil, domain.Invalid(r.ownerArgName(), "required")
	}
	return owner, nil
}

func propertyOwners(args map[string]any) []domain.Owner {
	raw, _ := args["propriedadeIds"].([]any)
	owners := make([]domain.Owner, 0, len(raw))
	for _, v := range raw {
		if n, ok := v.(int); ok {
			owners = append(owners, domain.PropertyOwner(int64(n)))
		}
	}
	return owners
}

func (r *Resolver) createInput(input map[string]any, fileData string) (store.CreateInput, error) {
	var in store.CreateInput

	data, err := base64.StdEncoding.DecodeString(fileData)
	if err != nil {
		return in, domain.Invalid("fileData", "must be valid base64")
	}
	in.FileData = data

	if s := optString(input, "name"); s != nil {
		in.Name = *s
	}
	if s := optString(input, "description"); s != nil {
		in.Description = *s
	}
	if s := optString(input, "captureDate"); s != nil {
		t, err := parseDate("captureDate", *s)
		if err != nil {
			return in, err
		}
		in.CaptureDate = t
	}
	if s := optString(input, "fileType"); s != nil {
		in.FileType = *s
	}

	md, err := metadataFrom(input["metadata"])
	if err != nil {
		return in, err
	}
	in.Metadata = md

	owner, err := r.ownerFrom(input)
	if err != nil {
		return in, err
	}
	if owner != nil {
		in.Owner = *owner
	}
	return in, nil
}

func updateInput(input map[string]any, args map[string]any) (store.UpdateInput, error) {
	var in store.UpdateInput

	in.Name = optString(input, "name")
	in.Description = optString(input, "description")
	if s := optString(input, "captureDate"); s != nil {
		t, err := parseDate("captureDate", *s)
		if err != nil {
			return in, err
		}
		in.CaptureDate = &t
	}
	if mv, ok := input["metadata"].(map[string]any); ok {
		in.Resolution = optFloat(mv, "resolution")
		in.Format = optString(mv, "format")
		coords, err := coordinatesFrom(mv["coordinates"])
		if err != nil {
			return in, err
		}
		in.Coordinates = coords
	}

	// The file bytes and the declared type are only replaced as a pair; a
	// lone fileType (or lone fileData) is rejected by store validation.
	if s := optString(input, "fileType"); s != nil {
		in.FileType = *s
	}
	if raw := optString(args, "fileData"); raw != nil {
		data, err := base64.StdEncoding.DecodeString(*raw)
		if err != nil {
			return in, domain.Invalid("fileData", "must be valid base64")
		}
		in.FileData = data
	}
	return in, nil
}

func metadataFrom(v any) (domain.Metadata, error) {
	var md domain.Metadata
	m, ok := v.(map[string]any)
	if !ok {
		return md, domain.Invalid("metadata", "required")
	}
	if f := optFloat(m, "resolution"); f != nil {
		md.Resolution = *f
	}
	if s := optString(m, "format"); s != nil {
		md.Format = *s
	}
	coords, err := coordinatesFrom(m["coordinates"])
	if err != nil {
		return md, err
	}
	md.Coordinates = coords
	return md, nil
}

func coordinatesFrom(v any) (*domain.Coordinates, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, domain.Invalid("metadata.coordinates", "must be an object")
	}
	return &domain.Coordinates{
		North: optFloat(m, "north"),
		South: optFloat(m, "south"),
		East:  optFloat(m, "east"),
		West:  optFloat(m, "west"),
	}, nil
}
