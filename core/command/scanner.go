package command

import (
	"errors"
	"sync"

	"github.com/dmitrymomot/headquarters/core/trigger"
	"github.com/dmitrymomot/headquarters/pkg/async"
)

// ScannerFunc handles input matched by a scanner pattern, bypassing command
// resolution. Calling ctx.Finalize removes the scanner after it returns.
//
// A scanner handles one input at a time. Inputs matched while it runs wait
// for it; if it finalized, they are dispatched again as if it never existed.
type ScannerFunc func(ctx ContextObject, m *trigger.Match, lw *LightweightParser) (any, error)

// AsyncScannerFunc is a ScannerFunc that resolves its value through a future.
type AsyncScannerFunc func(ctx ContextObject, m *trigger.Match, lw *LightweightParser) *async.Future[any]

type scanner struct {
	pattern *trigger.Pattern
	run     ScannerFunc

	mu      sync.Mutex // serializes runs
	removed bool
}

func awaitScanner(fn AsyncScannerFunc) ScannerFunc {
	return func(ctx ContextObject, m *trigger.Match, lw *LightweightParser) (any, error) {
		f := fn(ctx, m, lw)
		if f == nil {
			return nil, errors.New("scanner returned a nil future")
		}
		return f.Await()
	}
}
