package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fieldsense/ndvistore/internal/domain"
	"github.com/fieldsense/ndvistore/internal/store"
)

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "create ndvi map"

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeError(w, op, domain.Invalid("form", "invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, op, domain.Invalid("file", "required"))
		return
	}
	defer s.closeWithLog(file, "upload file")

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read upload failed", "error", err)
		s.writeError(w, op, err)
		return
	}

	owner, err := s.ownerFromForm(r)
	if err != nil {
		s.writeError(w, op, err)
		return
	}

	var captureDate time.Time
	if raw := r.FormValue("captureDate"); raw != "" {
		captureDate, err = parseDate(raw)
		if err != nil {
			s.writeError(w, op, err)
			return
		}
	}

	var resolution float64
	if raw := r.FormValue("resolution"); raw != "" {
		resolution, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, op, domain.Invalid("metadata.resolution", "must be a number"))
			return
		}
	}

	coords, err := parseCoordinates(r.FormValue("coordinates"))
	if err != nil {
		s.writeError(w, op, err)
		return
	}

	rec, err := s.store.Create(r.Context(), store.CreateInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		CaptureDate: captureDate,
		FileData:    data,
		FileType:    fileMIME(header, data),
		Metadata: domain.Metadata{
			Coordinates: coords,
			Resolution:  resolution,
			Format:      r.FormValue("format"),
		},
		Owner: owner,
	})
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "list ndvi maps"

	opts, err := listOptionsFromQuery(r)
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	if opts.SortBy == "" {
		opts.SortBy = "-createdAt"
	}

	recs, err := s.store.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	if recs == nil {
		recs = []*domain.NDVIMap{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	const op = "get ndvi map"

	rec, err := s.store.GetByID(r.Context(), chi.URLParam(r, "id"), nil)
	if err != nil {
		s.writeError(w, op, err)
		return
	}

	if r.URL.Query().Get("download") == "true" {
		w.Header().Set("Content-Type", rec.FileType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", rec.Name+extForMIME(rec.FileType)))
		if _, err := w.Write(rec.FileData); err != nil {
			s.logger.Error("write download failed", "id", rec.ID.Hex(), "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "update ndvi map"

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeError(w, op, domain.Invalid("form", "invalid multipart form"))
		return
	}

	var in store.UpdateInput
	form := r.MultipartForm.Value
	if vs, ok := form["name"]; ok && len(vs) > 0 {
		in.Name = &vs[0]
	}
	if vs, ok := form["description"]; ok && len(vs) > 0 {
		in.Description = &vs[0]
	}
	if vs, ok := form["captureDate"]; ok && len(vs) > 0 {
		t, err := parseDate(vs[0])
		if err != nil {
			s.writeError(w, op, err)
			return
		}
		in.CaptureDate = &t
	}
	if vs, ok := form["resolution"]; ok && len(vs) > 0 {
		res, err := strconv.ParseFloat(vs[0], 64)
		if err != nil {
			s.writeError(w, op, domain.Invalid("metadata.resolution", "must be a number"))
			return
		}
		in.Resolution = &res
	}
	if vs, ok := form["format"]; ok && len(vs) > 0 {
		in.Format = &vs[0]
	}
	if vs, ok := form["coordinates"]; ok && len(vs) > 0 {
		coords, err := parseCoordinates(vs[0])
		if err != nil {
			s.writeError(w, op, err)
			return
		}
		in.Coordinates = coords
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer s.closeWithLog(file, "upload file")
		data, err := io.ReadAll(file)
		if err != nil {
			s.logger.Error("read upload failed", "error", err)
			s.writeError(w, op, err)
			return
		}
		in.FileData = data
		in.FileType = fileMIME(header, data)
	case errors.Is(err, http.ErrMissingFile):
		// metadata-only update
	default:
		s.writeError(w, op, domain.Invalid("file", "unreadable file part"))
		return
	}

	rec, err := s.store.Update(r.Context(), chi.URLParam(r, "id"), nil, in)
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "delete ndvi map"

	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id"), nil); err != nil {
		s.writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "ndvi map deleted"})
}

// ownerFromForm reads the owner-scope form field; its name and type depend
// on the configured mode.
func (s *Server) ownerFromForm(r *http.Request) (domain.Owner, error) {
	field := "propriedadeId"
	if s.mode == domain.OwnerModeUser {
		field = "uploadedBy"
	}
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return domain.Owner{}, domain.Invalid(field, "required")
	}
	if s.mode == domain.OwnerModeUser {
		return domain.UserOwner(raw), nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return domain.Owner{}, domain.Invalid(field, "must be an integer")
	}
	return domain.PropertyOwner(id), nil
}

func listOptionsFromQuery(r *http.Request) (store.ListOptions, error) {
	var opts store.ListOptions
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return opts, domain.Invalid("limit", "must be a non-negative integer")
		}
		opts.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return opts, domain.Invalid("offset", "must be a non-negative integer")
		}
		opts.Offset = n
	}
	opts.SortBy = q.Get("sortBy")
	return opts, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, domain.Invalid("captureDate", "must be an ISO-8601 date")
}

// parseCoordinates decodes the optional JSON bounding-box form field.
func parseCoordinates(raw string) (*domain.Coordinates, error) {
	if raw == "" {
		return nil, nil
	}
	var coords domain.Coordinates
	if err := json.Unmarshal([]byte(raw), &coords); err != nil {
		return nil, domain.Invalid("metadata.coordinates", "must be a JSON object")
	}
	return &coords, nil
}

// fileMIME trusts the declared part Content-Type and falls back to
// magic-byte sniffing when the client did not declare one.
func fileMIME(header *multipart.FileHeader, data []byte) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return http.DetectContentType(data)
}

func extForMIME(mime string) string {
	switch mime {
	case "image/tiff":
		return ".tiff"
	case "image/png":
		return ".png"
	default:
		return ".jpg"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps store errors onto the REST error contract: 400 for
// validation and malformed ids, 404 for missing records, 500 with a
// generic body (details logged server-side) for everything else.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": op + ": " + err.Error()})
	case errors.Is(err, domain.ErrInvalidID), errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": op + ": " + err.Error()})
	default:
		s.logger.Error(op+" failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": op + ": internal error"})
	}
}

func (s *Server) closeWithLog(c io.Closer, label string) {
	if err := c.Close(); err != nil {
		s.logger.Error("failed to close resource", "label", label, "error", err)
	}
}
