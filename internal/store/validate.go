package store

import (
	"strings"

	"github.com/fieldsense/ndvistore/internal/domain"
)

// ValidateCreate checks the full record contract before anything is
// written. Validation lives at the store boundary rather than in the
// database schema so it holds regardless of the backing engine.
func ValidateCreate(in CreateInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalid("name", "required")
	}
	if in.CaptureDate.IsZero() {
		return domain.Invalid("captureDate", "required")
	}
	if len(in.FileData) == 0 {
		return domain.Invalid("fileData", "required")
	}
	if !domain.AllowedFileTypes[in.FileType] {
		return domain.Invalid("fileType", "unsupported type "+strings.TrimSpace(in.FileType))
	}
	if in.Metadata.Resolution == 0 {
		return domain.Invalid("metadata.resolution", "required")
	}
	if !domain.AllowedFormats[in.Metadata.Format] {
		return domain.Invalid("metadata.format", "unsupported format "+strings.TrimSpace(in.Metadata.Format))
	}
	if in.Owner.IsZero() {
		return domain.Invalid("ownerScope", "required")
	}
	return nil
}

// ValidateUpdate checks a partial update. Required fields cannot be blanked
// out, enum fields must hold recognized values, and the file bytes and file
// type are only ever replaced as a pair.
func ValidateUpdate(in UpdateInput) error {
	if in.Empty() {
		return &domain.ValidationError{Reason: "no fields to update"}
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return domain.Invalid("name", "required")
	}
	if in.CaptureDate != nil && in.CaptureDate.IsZero() {
		return domain.Invalid("captureDate", "required")
	}
	if (in.FileData == nil) != (in.FileType == "") {
		return domain.Invalid("fileData", "file data and file type must be replaced together")
	}
	if in.FileData != nil && len(in.FileData) == 0 {
		return domain.Invalid("fileData", "required")
	}
	if in.FileType != "" && !domain.AllowedFileTypes[in.FileType] {
		return domain.Invalid("fileType", "unsupported type "+strings.TrimSpace(in.FileType))
	}
	if in.Resolution != nil && *in.Resolution == 0 {
		return domain.Invalid("metadata.resolution", "required")
	}
	if in.Format != nil && !domain.AllowedFormats[*in.Format] {
		return domain.Invalid("metadata.format", "unsupported format "+strings.TrimSpace(*in.Format))
	}
	return nil
}
