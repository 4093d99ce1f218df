package store

import (
	"time"

	"github.com/fieldsense/ndvistore/internal/domain"
)

// CreateInput carries everything required to persist a new record. All
// fields except Description and Metadata.Coordinates are required.
type CreateInput struct {
	Name        string
	Description string
	CaptureDate time.Time
	FileData    []byte
	FileType    string
	Metadata    domain.Metadata
	Owner       domain.Owner
}

// UpdateInput applies only the fields that are set; nil pointers leave the
// stored value unchanged. FileData and FileType travel together: supplying
// one without the other is a validation error.
type UpdateInput struct {
	Name        *string
	Description *string
	CaptureDate *time.Time
	Resolution  *float64
	Format      *string
	Coordinates *domain.Coordinates
	FileData    []byte
	FileType    string
}

func (in UpdateInput) Empty() bool {
	return in.Name == nil && in.Description == nil && in.CaptureDate == nil &&
		in.Resolution == nil && in.Format == nil && in.Coordinates == nil &&
		in.FileData == nil && in.FileType == ""
}

// ListOptions shape a listing query. SortBy is a "[-]field" spec where a
// leading '-' selects descending order; Limit 0 means unbounded. Order
// among records with equal sort keys is unspecified.
type ListOptions struct {
	SortBy string
	Limit  int64
	Offset int64
}
