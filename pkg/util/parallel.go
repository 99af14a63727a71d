package util

import (
	"context"
	"errors"
	"sync"
)

// Parallel runs fn for every input on at most workerLimit goroutines.
// Unlike a fail-fast group every input is visited; the returned error joins
// all failures in input order. Cancelling ctx stops feeding new inputs.
func Parallel[T any](ctx context.Context, inputs []T, workerLimit int, fn func(context.Context, T) error) error {
	if len(inputs) == 0 {
		return nil
	}
	if workerLimit <= 0 {
		workerLimit = 1
	}
	if workerLimit > len(inputs) {
		workerLimit = len(inputs)
	}

	type task struct {
		idx  int
		item T
	}

	tasks := make(chan task)
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	for i := 0; i < workerLimit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				errs[t.idx] = fn(ctx, t.item)
			}
		}()
	}

	go func() {
		defer close(tasks)
		for i, item := range inputs {
			select {
			case <-ctx.Done():
				return
			case tasks <- task{idx: i, item: item}:
			}
		}
	}()

	wg.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
