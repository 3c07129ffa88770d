package resilience

import "context"

// Handler is one entry in a fallback chain. Match decides whether the
// handler applies to a terminal error; a nil Match applies to every error.
// Handle either substitutes a successful outcome (returns nil) or fails, in
// which case the chain moves on to the next handler.
type Handler struct {
	Match  func(err error) bool
	Handle func(ctx context.Context, err error) error
}

// Fallback is an ordered, immutable chain of substitute handlers invoked
// when every other policy exhausts without success. The chain is shared
// across calls and safe for concurrent use.
type Fallback struct {
	handlers []Handler
}

// NewFallback creates a fallback chain from handlers, evaluated in order.
func NewFallback(handlers ...Handler) *Fallback {
	return &Fallback{handlers: handlers}
}

// Resolve runs err through the chain. Every handler receives the original
// terminal error; the first matching handler that returns nil decides the
// outcome. If no handler matches, or every matching handler itself fails,
// the original terminal error is returned unchanged; a fallback-internal
// failure is never what the caller sees.
func (f *Fallback) Resolve(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	for _, h := range f.handlers {
		if h.Handle == nil {
			continue
		}
		if h.Match != nil && !h.Match(err) {
			continue
		}
		if h.Handle(ctx, err) == nil {
			return nil
		}
	}

	return err
}

// Len returns the number of handlers in the chain.
func (f *Fallback) Len() int {
	return len(f.handlers)
}
