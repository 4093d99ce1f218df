// Package graphql builds the GraphQL schema and resolvers over the record
// store. The schema shape follows the configured owner-scope mode: property
// mode exposes numeric propriedadeId arguments plus the list/count-by-set
// family, user mode exposes a free-text uploadedBy filter.
package graphql

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/fieldsense/ndvistore/internal/domain"
	"github.com/fieldsense/ndvistore/internal/store"
)

// RecordStore is the store surface the resolvers use.
type RecordStore interface {
	Create(ctx context.Context, in store.CreateInput) (*domain.NDVIMap, error)
	GetByID(ctx context.Context, id string, owner *domain.Owner) (*domain.NDVIMap, error)
	List(ctx context.Context, opts store.ListOptions) ([]*domain.NDVIMap, error)
	ListByOwner(ctx context.Context, owner domain.Owner, opts store.ListOptions) ([]*domain.NDVIMap, error)
	ListByDateRange(ctx context.Context, start, end time.Time, owner *domain.Owner, opts store.ListOptions) ([]*domain.NDVIMap, error)
	ListByOwnerSet(ctx context.Context, owners []domain.Owner, opts store.ListOptions) ([]*domain.NDVIMap, int64, error)
	CountByOwnerSet(ctx context.Context, owners []domain.Owner) (int64, error)
	Update(ctx context.Context, id string, owner *domain.Owner, in store.UpdateInput) (*domain.NDVIMap, error)
	Delete(ctx context.Context, id string, owner *domain.Owner) error
	GetFileBytes(ctx context.Context, id string, owner *domain.Owner) ([]byte, string, error)
}

type Resolver struct {
	store  RecordStore
	mode   domain.OwnerMode
	logger *slog.Logger
}

// listResult pairs a page of records with the total match count so clients
// can paginate without a second query.
type listResult struct {
	TotalCount int64
	Items      []*domain.NDVIMap
}

func (r *Resolver) resolveNDVIMaps(p graphql.ResolveParams) (any, error) {
	const op = "ndviMaps"
	owner, err := r.optionalOwner(p.Args)
	if err != nil {
		return nil, r.fail(op, err)
	}
	var recs []*domain.NDVIMap
	if owner != nil {
		recs, err = r.store.ListByOwner(p.Context, *owner, listOptions(p.Args))
	} else {
		recs, err = r.store.List(p.Context, listOptions(p.Args))
	}
	if err != nil {
		return nil, r.fail(op, err)
	}
	return nonNil(recs), nil
}

func (r *Resolver) resolveNDVIMap(p graphql.ResolveParams) (any, error) {
	const op = "ndviMap"
	owner, err := r.readOwner(p.Args)
	if err != nil {
		return nil, r.fail(op, err)
	}
	rec, err := r.store.GetByID(p.Context, idArg(p.Args), owner)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return rec, nil
}

func (r *Resolver) resolveNDVIMapsByUser(p graphql.ResolveParams) (any, error) {
	const op = "ndviMapsByUser"
	raw, err := requiredString(p.Args, "uploadedBy")
	if err != nil {
		return nil, r.fail(op, err)
	}
	recs, err := r.store.ListByOwner(p.Context, domain.UserOwner(raw), listOptions(p.Args))
	if err != nil {
		return nil, r.fail(op, err)
	}
	return nonNil(recs), nil
}

func (r *Resolver) resolveNDVIMapsByPropriedades(p graphql.ResolveParams) (any, error) {
	const op = "ndviMapsByPropriedades"
	owners := propertyOwners(p.Args)
	items, total, err := r.store.ListByOwnerSet(p.Context, owners, listOptions(p.Args))
	if err != nil {
		return nil, r.fail(op, err)
	}
	return listResult{TotalCount: total, Items: nonNil(items)}, nil
}

func (r *Resolver) resolveNDVIMapsCountByPropriedades(p graphql.ResolveParams) (any, error) {
	const op = "ndviMapsCountByPropriedades"
	total, err := r.store.CountByOwnerSet(p.Context, propertyOwners(p.Args))
	if err != nil {
		return nil, r.fail(op, err)
	}
	return int(total), nil
}

func (r *Resolver) resolveNDVIMapsByDateRange(p graphql.ResolveParams) (any, error) {
	const op = "ndviMapsByDateRange"
	start, err := dateArg(p.Args, "startDate")
	if err != nil {
		return nil, r.fail(op, err)
	}
	end, err := dateArg(p.Args, "endDate")
	if err != nil {
		return nil, r.fail(op, err)
	}
	owner, err := r.readOwner(p.Args)
	if err != nil {
		return nil, r.fail(op, err)
	}
	recs, err := r.store.ListByDateRange(p.Context, start, end, owner, listOptions(p.Args))
	if err != nil {
		return nil, r.fail(op, err)
	}
	return nonNil(recs), nil
}

func (r *Resolver) resolveNDVIMapFile(p graphql.ResolveParams) (any, error) {
	const op = "ndviMapFile"
	owner, err := r.readOwner(p.Args)
	if err != nil {
		return nil, r.fail(op, err)
	}
	data, _, err := r.store.GetFileBytes(p.Context, idArg(p.Args), owner)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (r *Resolver) resolveCreateNDVIMap(p graphql.ResolveParams) (any, error) {
	const op = "createNDVIMap"
	input, ok := p.Args["input"].(map[string]any)
	if !ok {
		return nil, r.fail(op, domain.Invalid("input", "required"))
	}
	fileData, err := requiredString(p.Args, "fileData")
	if err != nil {
		return nil, r.fail(op, err)
	}
	in, err := r.createInput(input, fileData)
	if err != nil {
		return nil, r.fail(op, err)
	}
	rec, err := r.store.Create(p.Context, in)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return rec, nil
}

func (r *Resolver) resolveUpdateNDVIMap(p graphql.ResolveParams) (any, error) {
	const op = "updateNDVIMap"
	input, ok := p.Args["input"].(map[string]any)
	if !ok {
		return nil, r.fail(op, domain.Invalid("input", "required"))
	}
	owner, err := r.readOwner(p.Args)
	if err != nil {
		return nil, r.fail(op, err)
	}
	in, err := updateInput(input, p.Args)
	if err != nil {
		return nil, r.fail(op, err)
	}
	rec, err := r.store.Update(p.Context, idArg(p.Args), owner, in)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return rec, nil
}

func (r *Resolver) resolveDeleteNDVIMap(p graphql.ResolveParams) (any, error) {
	const op = "deleteNDVIMap"
	owner, err := r.readOwner(p.Args)
	if err != nil {
		return nil, r.fail(op, err)
	}
	if err := r.store.Delete(p.Context, idArg(p.Args), owner); err != nil {
		return nil, r.fail(op, err)
	}
	return true, nil
}

// fail wraps caller-facing errors with the operation name and hides
// internal store failures behind a generic message, logging the original.
func (r *Resolver) fail(op string, err error) error {
	var verr *domain.ValidationError
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) || errors.As(err, &verr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	r.logger.Error(op+" failed", "error", err)
	return fmt.Errorf("%s: internal error", op)
}

func nonNil(recs []*domain.NDVIMap) []*domain.NDVIMap {
	if recs == nil {
		return []*domain.NDVIMap{}
	}
	return recs
}
