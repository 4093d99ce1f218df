package graphql

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/fieldsense/ndvistore/internal/domain"
)

// isoLayout renders timestamps the way the API always has: UTC with
// millisecond precision and a Z suffix.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

func isoTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// NewSchema builds the GraphQL schema for the given owner-scope mode.
func NewSchema(st RecordStore, mode domain.OwnerMode, logger *slog.Logger) (graphql.Schema, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{store: st, mode: mode, logger: logger}

	coordinatesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinates",
		Fields: graphql.Fields{
			"north": coordField(func(c *domain.Coordinates) *float64 { return c.North }),
			"south": coordField(func(c *domain.Coordinates) *float64 { return c.South }),
			"east":  coordField(func(c *domain.Coordinates) *float64 { return c.East }),
			"west":  coordField(func(c *domain.Coordinates) *float64 { return c.West }),
		},
	})

	metadataType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Metadata",
		Fields: graphql.Fields{
			"coordinates": {
				Type: coordinatesType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					md, ok := p.Source.(domain.Metadata)
					if !ok {
						return nil, fmt.Errorf("unexpected metadata source %T", p.Source)
					}
					if md.Coordinates == nil {
						return nil, nil
					}
					return md.Coordinates, nil
				},
			},
			"resolution": {
				Type: graphql.NewNonNull(graphql.Float),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					md, _ := p.Source.(domain.Metadata)
					return md.Resolution, nil
				},
			},
			"format": {
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					md, _ := p.Source.(domain.Metadata)
					return md.Format, nil
				},
			},
		},
	})

	mapFields := graphql.Fields{
		"id": mapField(graphql.NewNonNull(graphql.ID), func(m *domain.NDVIMap) (any, error) {
			return m.ID.Hex(), nil
		}),
		"name": mapField(graphql.NewNonNull(graphql.String), func(m *domain.NDVIMap) (any, error) {
			return m.Name, nil
		}),
		"description": mapField(graphql.String, func(m *domain.NDVIMap) (any, error) {
			return m.Description, nil
		}),
		"captureDate": mapField(graphql.NewNonNull(graphql.String), func(m *domain.NDVIMap) (any, error) {
			return isoTime(m.CaptureDate), nil
		}),
		"fileType": mapField(graphql.NewNonNull(graphql.String), func(m *domain.NDVIMap) (any, error) {
			return m.FileType, nil
		}),
		"metadata": mapField(graphql.NewNonNull(metadataType), func(m *domain.NDVIMap) (any, error) {
			return m.Metadata, nil
		}),
		"createdAt": mapField(graphql.NewNonNull(graphql.String), func(m *domain.NDVIMap) (any, error) {
			return isoTime(m.CreatedAt), nil
		}),
		"updatedAt": mapField(graphql.NewNonNull(graphql.String), func(m *domain.NDVIMap) (any, error) {
			return isoTime(m.UpdatedAt), nil
		}),
		// Encoded lazily so listings only pay for it when the query asks.
		"fileData": mapField(graphql.NewNonNull(graphql.String), func(m *domain.NDVIMap) (any, error) {
			return base64.StdEncoding.EncodeToString(m.FileData), nil
		}),
	}
	if mode == domain.OwnerModeUser {
		mapFields["uploadedBy"] = mapField(graphql.NewNonNull(graphql.String), func(m *domain.NDVIMap) (any, error) {
			return m.OwnerScope.User, nil
		})
	} else {
		mapFields["propriedadeId"] = mapField(graphql.NewNonNull(graphql.Int), func(m *domain.NDVIMap) (any, error) {
			return int(m.OwnerScope.Property), nil
		})
	}

	ndviMapType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "NDVIMap",
		Fields: mapFields,
	})

	resultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NDVIMapResult",
		Fields: graphql.Fields{
			"totalCount": {
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					res, _ := p.Source.(listResult)
					return int(res.TotalCount), nil
				},
			},
			"items": {
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(ndviMapType))),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					res, _ := p.Source.(listResult)
					return res.Items, nil
				},
			},
		},
	})

	coordinatesInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CoordinatesInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"north": {Type: graphql.Float},
			"south": {Type: graphql.Float},
			"east":  {Type: graphql.Float},
			"west":  {Type: graphql.Float},
		},
	})

	metadataInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "MetadataInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"coordinates": {Type: coordinatesInput},
			"resolution":  {Type: graphql.NewNonNull(graphql.Float)},
			"format":      {Type: graphql.NewNonNull(graphql.String)},
		},
	})

	createInputFields := graphql.InputObjectConfigFieldMap{
		"name":        {Type: graphql.NewNonNull(graphql.String)},
		"description": {Type: graphql.String},
		"captureDate": {Type: graphql.NewNonNull(graphql.String)},
		"fileType":    {Type: graphql.NewNonNull(graphql.String)},
		"metadata":    {Type: graphql.NewNonNull(metadataInput)},
	}
	if mode == domain.OwnerModeUser {
		createInputFields["uploadedBy"] = &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)}
	} else {
		createInputFields["propriedadeId"] = &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)}
	}
	ndviMapInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   "NDVIMapInput",
		Fields: createInputFields,
	})

	// Updates are partial, so every metadata field is optional here.
	metadataUpdateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "MetadataUpdateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"coordinates": {Type: coordinatesInput},
			"resolution":  {Type: graphql.Float},
			"format":      {Type: graphql.String},
		},
	})

	ndviMapUpdateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "NDVIMapUpdateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":        {Type: graphql.String},
			"description": {Type: graphql.String},
			"captureDate": {Type: graphql.String},
			"fileType":    {Type: graphql.String},
			"metadata":    {Type: metadataUpdateInput},
		},
	})

	ownerName := r.ownerArgName()
	ownerArg := func(required bool) *graphql.ArgumentConfig {
		var t graphql.Input = graphql.String
		if mode == domain.OwnerModeProperty {
			t = graphql.Int
			if required {
				t = graphql.NewNonNull(graphql.Int)
			}
		}
		return &graphql.ArgumentConfig{Type: t}
	}
	pageArgs := func(extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
		args := graphql.FieldConfigArgument{
			"limit":  {Type: graphql.Int},
			"offset": {Type: graphql.Int},
			"sortBy": {Type: graphql.String},
		}
		for k, v := range extra {
			args[k] = v
		}
		return args
	}

	queryFields := graphql.Fields{
		"ndviMaps": {
			Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(ndviMapType))),
			Args:    pageArgs(graphql.FieldConfigArgument{ownerName: ownerArg(false)}),
			Resolve: r.resolveNDVIMaps,
		},
		"ndviMap": {
			Type: ndviMapType,
			Args: graphql.FieldConfigArgument{
				"id":      {Type: graphql.NewNonNull(graphql.ID)},
				ownerName: ownerArg(true),
			},
			Resolve: r.resolveNDVIMap,
		},
		"ndviMapsByDateRange": {
			Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(ndviMapType))),
			Args: pageArgs(graphql.FieldConfigArgument{
				"startDate": {Type: graphql.NewNonNull(graphql.String)},
				"endDate":   {Type: graphql.NewNonNull(graphql.String)},
				ownerName:   ownerArg(true),
			}),
			Resolve: r.resolveNDVIMapsByDateRange,
		},
		"ndviMapFile": {
			Type: graphql.String,
			Args: graphql.FieldConfigArgument{
				"id":      {Type: graphql.NewNonNull(graphql.ID)},
				ownerName: ownerArg(true),
			},
			Resolve: r.resolveNDVIMapFile,
		},
	}
	if mode == domain.OwnerModeUser {
		queryFields["ndviMapsByUser"] = &graphql.Field{
			Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(ndviMapType))),
			Args: pageArgs(graphql.FieldConfigArgument{
				"uploadedBy": {Type: graphql.NewNonNull(graphql.String)},
			}),
			Resolve: r.resolveNDVIMapsByUser,
		}
	} else {
		queryFields["ndviMapsByPropriedades"] = &graphql.Field{
			Type: graphql.NewNonNull(resultType),
			Args: pageArgs(graphql.FieldConfigArgument{
				"propriedadeIds": {Type: graphql.NewList(graphql.NewNonNull(graphql.Int))},
			}),
			Resolve: r.resolveNDVIMapsByPropriedades,
		}
		queryFields["ndviMapsCountByPropriedades"] = &graphql.Field{
			Type: graphql.NewNonNull(graphql.Int),
			Args: graphql.FieldConfigArgument{
				"propriedadeIds": {Type: graphql.NewList(graphql.NewNonNull(graphql.Int))},
			},
			Resolve: r.resolveNDVIMapsCountByPropriedades,
		}
	}

	mutationFields := graphql.Fields{
		"createNDVIMap": {
			Type: graphql.NewNonNull(ndviMapType),
			Args: graphql.FieldConfigArgument{
				"input":    {Type: graphql.NewNonNull(ndviMapInput)},
				"fileData": {Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: r.resolveCreateNDVIMap,
		},
		"updateNDVIMap": {
			Type: graphql.NewNonNull(ndviMapType),
			Args: graphql.FieldConfigArgument{
				"id":       {Type: graphql.NewNonNull(graphql.ID)},
				"input":    {Type: graphql.NewNonNull(ndviMapUpdateInput)},
				"fileData": {Type: graphql.String},
				ownerName:  ownerArg(true),
			},
			Resolve: r.resolveUpdateNDVIMap,
		},
		"deleteNDVIMap": {
			Type: graphql.NewNonNull(graphql.Boolean),
			Args: graphql.FieldConfigArgument{
				"id":      {Type: graphql.NewNonNull(graphql.ID)},
				ownerName: ownerArg(true),
			},
			Resolve: r.resolveDeleteNDVIMap,
		},
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: queryFields,
		}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Mutation",
			Fields: mutationFields,
		}),
	})
}

func mapField(t graphql.Output, f func(m *domain.NDVIMap) (any, error)) *graphql.Field {
	return &graphql.Field{
		Type: t,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			m, ok := p.Source.(*domain.NDVIMap)
			if !ok {
				return nil, fmt.Errorf("unexpected source %T", p.Source)
			}
			return f(m)
		},
	}
}

func coordField(f func(c *domain.Coordinates) *float64) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Float,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			c, ok := p.Source.(*domain.Coordinates)
			if !ok {
				return nil, fmt.Errorf("unexpected coordinates source %T", p.Source)
			}
			if v := f(c); v != nil {
				return *v, nil
			}
			return nil, nil
		},
	}
}
