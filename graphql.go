package specstory

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"
)

// GraphQLService exposes the search endpoint and a raw query escape hatch.
type GraphQLService struct {
	client *Client
}

const defaultSearchLimit = 200

const searchSessionsQuery = `
	query SearchSessions($query: String!, $filters: SessionFilters, $limit: Int) {
		searchSessions(query: $query, filters: $filters, limit: $limit) {
			total
			results {
				id
				name
				projectId
				rank
				metadata {
					clientName
					tags
				}
			}
		}
	}
`

// SearchOptions tunes Search. A zero Limit means the server default of 200.
type SearchOptions struct {
	Filters map[string]any
	Limit   int
}

// Search runs a full-text search over sessions.
func (s *GraphQLService) Search(ctx context.Context, query string, opts *SearchOptions) (*SearchResults, error) {
	limit := defaultSearchLimit
	var filters map[string]any
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		filters = opts.Filters
	}

	variables := map[string]any{"query": query, "limit": limit}
	if len(filters) > 0 {
		variables["filters"] = filters
	}

	body, err := s.Query(ctx, searchSessionsQuery, variables)
	if err != nil {
		return nil, err
	}
	var results SearchResults
	if err := unmarshalEnvelope(body, "data.searchSessions", &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// Query executes a raw GraphQL query and returns the full response body.
// GraphQL-level errors are surfaced as *Error with code graphql_error.
func (s *GraphQLService) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	if variables == nil {
		variables = map[string]any{}
	}
	body, err := s.client.do(ctx, http.MethodPost, "/api/v1/graphql", map[string]any{
		"query":     query,
		"variables": variables,
	}, nil)
	if err != nil {
		return nil, err
	}

	if errs := gjson.GetBytes(body, "errors"); errs.IsArray() {
		if arr := errs.Array(); len(arr) > 0 {
			msg := arr[0].Get("message").String()
			if msg == "" {
				msg = "GraphQL query failed"
			}
			return nil, &Error{Message: msg, Code: ErrorCodeGraphQL}
		}
	}
	return json.RawMessage(body), nil
}
