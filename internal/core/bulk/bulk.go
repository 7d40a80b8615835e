package bulk

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// SampleSize is how many error messages a summary shows before collapsing
// the rest into an overflow count.
const SampleSize = 5

type Result struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

type Summary struct {
	Success  int      `json:"success"`
	Failed   int      `json:"failed"`
	Samples  []string `json:"samples"`
	Overflow int      `json:"overflow"`
}

// Preview keeps at most n error messages and counts the rest.
func (r Result) Preview(n int) Summary {
	s := Summary{Success: r.Success, Failed: r.Failed, Samples: []string{}}
	if n < 0 {
		n = 0
	}
	if len(r.Errors) <= n {
		s.Samples = append(s.Samples, r.Errors...)
		return s
	}
	s.Samples = append(s.Samples, r.Errors[:n]...)
	s.Overflow = len(r.Errors) - n
	return s
}

// Run applies fn to every key with at most limit calls in flight and reports
// partial success. Items already applied stay applied when ctx is cancelled;
// items not yet started are reported failed with the context error.
// Errors keep the order of keys.
func Run[K comparable](ctx context.Context, keys []K, limit int, fn func(ctx context.Context, key K) error) Result {
	if limit < 1 {
		limit = 1
	}

	errs := make([]error, len(keys))
	p := pool.New().WithMaxGoroutines(limit)
	for i, key := range keys {
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			errs[i] = fn(ctx, key)
		})
	}
	p.Wait()

	res := Result{Errors: []string{}}
	for i, err := range errs {
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%v: %v", keys[i], err))
			continue
		}
		res.Success++
	}
	return res
}
