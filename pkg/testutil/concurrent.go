// Package testutil holds helpers shared by tests.
package testutil

import (
	"sync"
	"sync/atomic"

	dErrors "todoweb/pkg/domain-errors"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes    int32
	NotFounds    int32
	Unauthorized int32
	Errors       int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.NotFounds + r.Unauthorized + r.Errors
}

// RunConcurrent runs fn in goroutines parallel goroutines, released together,
// and counts the outcomes by domain error code.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})

		successes, notFounds, unauthorized, errs atomic.Int32
	)
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := fn(i)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeNotFound):
				notFounds.Add(1)
			case dErrors.HasCode(err, dErrors.CodeUnauthorized):
				unauthorized.Add(1)
			default:
				errs.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes:    successes.Load(),
		NotFounds:    notFounds.Load(),
		Unauthorized: unauthorized.Load(),
		Errors:       errs.Load(),
	}
}
