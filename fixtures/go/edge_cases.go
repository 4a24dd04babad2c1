package fixtures

import (
	"context"
	"fmt"
	"io"
)

type Service interface {
	Run(ctx context.Context) error
}

// Daemon extends Service with a stop hook.
type Daemon interface {
	Service
	Stop() error
}

type Worker struct{}

func (w *Worker) Run(ctx context.Context) error {
	return helper(ctx)
}

type Supervisor struct {
	Worker
}

func (s *Supervisor) Run(ctx context.Context) error {
	return s.Worker.Run(ctx)
}

func (s *Supervisor) Stop() error { return nil }

// Box has a generic receiver; its methods still count towards Service.
type Box[T any] struct{ value T }

func (b Box[T]) Run(ctx context.Context) error { return nil }

type Closer interface {
	io.Closer
}

type Alias = Worker

func helper(ctx context.Context) error {
	fmt.Println("running")
	return nil
}
