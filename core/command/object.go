package command

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// ContextObject is the caller-owned state handed to every handler invoked for a submission.
// Implementations must be safe for concurrent use.
type ContextObject interface {
	Store(key string, value any)
	Load(key string) (any, bool)
	Delete(key string)

	// Finalize marks the context as finished. A scanner that finalizes the
	// context is removed from the registry after it returns.
	Finalize()
	Finalized() bool
	ResetFinalized()
}

// MapContext is the default ContextObject backed by a map.
type MapContext struct {
	mu        sync.RWMutex
	values    map[string]any
	finalized atomic.Bool
}

// NewContextObject returns an empty MapContext.
func NewContextObject() *MapContext {
	return &MapContext{values: make(map[string]any)}
}

// Store sets key to value, replacing any previous value.
func (c *MapContext) Store(key string, value any) {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

// Load returns the value stored under key.
func (c *MapContext) Load(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Delete removes key.
func (c *MapContext) Delete(key string) {
	c.mu.Lock()
	delete(c.values, key)
	c.mu.Unlock()
}

// Keys returns the stored keys in no particular order.
func (c *MapContext) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	return keys
}

func (c *MapContext) Finalize()       { c.finalized.Store(true) }
func (c *MapContext) Finalized() bool { return c.finalized.Load() }
func (c *MapContext) ResetFinalized() { c.finalized.Store(false) }

// Retrieve returns the value stored under key as T.
// It returns ErrContextKeyNotFound for a missing key and ErrContextKind
// when the stored value is not a T.
//
// Example:
//
//	user, err := command.Retrieve[*User](ctx, "user")
//	if errors.Is(err, command.ErrContextKind) {
//	    // something else was stored under "user"
//	}
func Retrieve[T any](ctx ContextObject, key string) (T, error) {
	var zero T
	if ctx == nil {
		return zero, fmt.Errorf("%w: %q", ErrContextKeyNotFound, key)
	}
	v, ok := ctx.Load(key)
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrContextKeyNotFound, key)
	}
	if v == nil {
		// only nilable kinds accept a stored nil
		switch reflect.TypeFor[T]().Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return zero, nil
		}
		return zero, fmt.Errorf("%w: %q holds nil, want %s", ErrContextKind, key, reflect.TypeFor[T]())
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T, want %s", ErrContextKind, key, v, reflect.TypeFor[T]())
	}
	return t, nil
}

// RetrieveOr returns the value stored under key as T, or def when it is
// missing or of another kind.
func RetrieveOr[T any](ctx ContextObject, key string, def T) T {
	v, err := Retrieve[T](ctx, key)
	if err != nil {
		return def
	}
	return v
}
