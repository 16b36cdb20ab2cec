package api

import (
	"context"
	"sync"
)

// Outcomes of a single deletion within a batch
const (
	Deleted  = "DELETED"
	Rejected = "REJECTED"
)

// DeleteResult is the outcome of one deletion within a batch
type DeleteResult struct {
	ID     string
	Status string
	Err    *Error
}

// DeleteMany fires one delete per id in parallel and aggregates the
// outcomes in input order. Failures are independent: a rejected id never
// aborts or rolls back the others. The optional onDeleted callback runs
// exactly once, after every outcome has settled, regardless of how many
// failed.
func (c *Client) DeleteMany(ctx context.Context, entityPath string, ids []string, onDeleted func([]DeleteResult)) []DeleteResult {
	results := make([]DeleteResult, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			if apiErr := c.Delete(ctx, entityPath, id); apiErr != nil {
				results[i] = DeleteResult{ID: id, Status: Rejected, Err: apiErr}
			} else {
				results[i] = DeleteResult{ID: id, Status: Deleted}
			}
		}(i, id)
	}
	wg.Wait()

	deleted := 0
	for _, r := range results {
		if r.Status == Deleted {
			deleted++
		}
		if c.metrics != nil {
			if r.Status == Deleted {
				c.metrics.IncDeletes("deleted")
			} else {
				c.metrics.IncDeletes("rejected")
			}
		}
	}
	c.logger.Info("batch delete finished",
		"entity", entityPath,
		"requested", len(ids),
		"deleted", deleted)

	if onDeleted != nil {
		onDeleted(results)
	}
	return results
}
