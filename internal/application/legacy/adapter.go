package legacy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"3tcapital/ms_saludplus_facturas/internal/core/search"
)

// DefaultTimeout bounds the wait for a search handler to complete.
const DefaultTimeout = 8 * time.Second

// ErrNilHandler is returned when Invoke is called without a handler.
var ErrNilHandler = errors.New("search handler is nil")

// Result is the captured outcome of a search handler.
type Result struct {
	Status int
	Body   any
}

// TimedOut reports whether the result is the no-answer placeholder.
func (r Result) TimedOut() bool {
	return r.Status == http.StatusNoContent && r.Body == nil
}

type outcome struct {
	result Result
	err    error
}

// cell is a single-assignment slot. The first producer wins.
type cell struct {
	once sync.Once
	done chan outcome
}

func newCell() *cell {
	return &cell{done: make(chan outcome, 1)}
}

func (c *cell) set(o outcome) {
	c.once.Do(func() { c.done <- o })
}

// Invoke runs handler with a simulated request carrying searchTerm and waits
// for it to complete the responder. If nothing completes within timeout the
// result is {204, nil}. A handler that panics or returns an error before
// completing makes Invoke return that error.
func Invoke(ctx context.Context, handler search.Handler, searchTerm string, timeout time.Duration) (Result, error) {
	if handler == nil {
		return Result{}, ErrNilHandler
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := newCell()
	timer := time.AfterFunc(timeout, func() {
		c.set(outcome{result: Result{Status: http.StatusNoContent}})
	})
	defer timer.Stop()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.set(outcome{err: fmt.Errorf("search handler panicked: %v", r)})
			}
		}()
		if err := handler(ctx, search.Request{SearchTerm: searchTerm}, &responder{cell: c}); err != nil {
			c.set(outcome{err: fmt.Errorf("search handler: %w", err)})
		}
	}()

	select {
	case o := <-c.done:
		return o.result, o.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

type responder struct {
	cell *cell
}

func (r *responder) JSON(body any) { r.complete(http.StatusOK, body) }

func (r *responder) Send(body any) { r.complete(http.StatusOK, body) }

func (r *responder) End() { r.complete(http.StatusOK, nil) }

func (r *responder) Status(code int) search.StatusResponder {
	return statusResponder{parent: r, code: code}
}

func (r *responder) complete(status int, body any) {
	r.cell.set(outcome{result: Result{Status: status, Body: body}})
}

type statusResponder struct {
	parent *responder
	code   int
}

func (s statusResponder) JSON(body any) { s.parent.complete(s.code, body) }

func (s statusResponder) Send(body any) { s.parent.complete(s.code, body) }
