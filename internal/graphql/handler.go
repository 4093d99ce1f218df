package graphql

import (
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
)

// NewHandler returns the HTTP handler serving the GraphQL endpoint, with
// GraphiQL enabled for interactive exploration.
func NewHandler(schema graphql.Schema) http.Handler {
	return handler.New(&handler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: true,
	})
}
