package search

import "context"

// Request is the simulated inbound request handed to a search handler.
type Request struct {
	// SearchTerm is the admission number or key to look for.
	SearchTerm string
}

// Responder is the response surface a search handler completes exactly once.
// JSON and Send answer with status 200; End answers 200 with no body.
type Responder interface {
	JSON(body any)
	Send(body any)
	Status(code int) StatusResponder
	End()
}

// StatusResponder completes a response with an explicit status code.
type StatusResponder interface {
	JSON(body any)
	Send(body any)
}

// Handler is a pre-existing "search invoice" handler. It may complete the
// responder synchronously, later from another goroutine, or never. Returning
// an error before completing signals failure.
type Handler func(ctx context.Context, req Request, res Responder) error
