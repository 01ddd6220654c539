package services

import (
	"context"
	"fmt"

	"github.com/fundlens/fundlens-backend/internal/platform/logger"
)

// ComputePool bounds how many analyzer stages run at once across all
// in-flight requests, so a burst of large analyses cannot exhaust the
// process.
type ComputePool struct {
	log *logger.Logger
	sem chan struct{}
}

func NewComputePool(baseLog *logger.Logger, size int) *ComputePool {
	if size < 1 {
		size = 1
	}
	return &ComputePool{
		log: baseLog.With("service", "ComputePool"),
		sem: make(chan struct{}, size),
	}
}

// Do runs fn once a slot is free. A context cancelled while waiting
// returns the context error without running fn.
func (p *ComputePool) Do(ctx context.Context, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("compute pool: nil task")
	}
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()
	return fn()
}
