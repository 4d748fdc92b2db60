package app

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pulseboard/pulseboard/internal/platform/toast"
)

// loadGroup runs the tasks concurrently, best-effort: one failing task never
// stops the others. Failures are collected and produce exactly one toast per
// group, except auth failures, which force a logout instead.
func (o *Orchestrator) loadGroup(ctx context.Context, name string, tasks ...func(context.Context) error) {
	var g errgroup.Group
	var mu sync.Mutex
	var errs []error

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			if err := task(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) == 0 {
		return
	}
	for _, err := range errs {
		o.log.Warn().Err(err).Str("group", name).Msg("load task failed")
		if o.handleAuthFailure(ctx, err) {
			return
		}
	}
	o.toasts.Post("Error loading "+name, toast.SeverityError)
}
