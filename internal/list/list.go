package list

import (
	"context"

	"cep-admin/internal/api"
	"cep-admin/internal/fetch"
)

// Source fetches one page of an entity collection
type Source[E any] func(ctx context.Context, page, pageSize int, search string) fetch.Outcome[api.Page[E]]

// ClientSource adapts an api client entity collection into a Source
func ClientSource[E any](c *api.Client, entityPath string) Source[E] {
	return func(ctx context.Context, page, pageSize int, search string) fetch.Outcome[api.Page[E]] {
		result, apiErr := api.List[E](ctx, c, entityPath, page, pageSize, search)
		if apiErr != nil {
			return fetch.Outcome[api.Page[E]]{Err: apiErr}
		}
		return fetch.Outcome[api.Page[E]]{
			Result: &fetch.Result[api.Page[E]]{Status: 200, Data: *result},
		}
	}
}
