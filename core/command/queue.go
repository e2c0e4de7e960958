package command

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrymomot/headquarters/core/logger"
	"github.com/dmitrymomot/headquarters/core/trigger"
	"github.com/dmitrymomot/headquarters/pkg/async"
)

// request is one submission waiting for dispatch.
type request struct {
	id   string
	text string
	ctx  ContextObject
	cb   Callback
}

// loop takes submissions in order until the registry is disposed.
func (r *Registry) loop() {
	defer close(r.loopDone)

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.signal:
		}

		for r.ctx.Err() == nil {
			req := r.dequeue()
			if req == nil {
				break
			}
			r.dispatch(req)
		}
	}
}

func (r *Registry) dequeue() *request {
	r.qmu.Lock()
	defer r.qmu.Unlock()
	if len(r.pending) == 0 {
		return nil
	}
	req := r.pending[0]
	r.pending[0] = nil
	r.pending = r.pending[1:]
	return req
}

// dispatch resolves one request and hands it to a worker.
func (r *Registry) dispatch(req *request) {
	text := strings.TrimSpace(req.text)
	if text == "" {
		r.finish(req, Failure, ErrEmptyInput)
		return
	}

	if s, m := r.matchScanner(text); s != nil {
		r.spawn(func() { r.runScanner(req, s, m) })
		return
	}

	if r.separator != "" && strings.Contains(text, r.separator) {
		r.spawn(func() { r.runChain(req, text) })
		return
	}

	inv := r.resolve(req, text)
	if inv == nil {
		r.finish(req, Unhandled, nil)
		return
	}
	r.spawn(func() {
		res := r.invoke(inv)
		r.finish(req, res.kind, res.payload)
	})
}

// spawn runs fn on a tracked worker goroutine, bounded by the worker limit.
func (r *Registry) spawn(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if r.sem != nil {
			// never cancelled: disposal waits for workers instead
			_ = r.sem.Acquire(context.Background(), 1)
			defer r.sem.Release(1)
		}
		fn()
	}()
}

// resolve finds the first command, in registration order, matching text.
func (r *Registry) resolve(req *request, text string) *invocation {
	r.mu.RLock()
	commands := append([]*Metadata(nil), r.commands...)
	r.mu.RUnlock()

	for _, md := range commands {
		if exec, m := md.match(text); exec != nil {
			return &invocation{id: req.id, text: text, md: md, exec: exec, match: m, ctx: req.ctx}
		}
	}
	return nil
}

func (r *Registry) matchScanner(text string) (*scanner, *trigger.Match) {
	r.mu.RLock()
	scanners := append([]*scanner(nil), r.scanners...)
	r.mu.RUnlock()

	for _, s := range scanners {
		if m, ok := s.pattern.Match(text); ok {
			return s, m
		}
	}
	return nil, nil
}

func (r *Registry) runScanner(req *request, s *scanner, m *trigger.Match) {
	r.active.Add(1)
	defer r.active.Add(-1)

	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		// finalized by an earlier input while this one waited
		r.dispatch(req)
		return
	}

	req.ctx.ResetFinalized()
	lw := NewLightweightParser(r, req.ctx)

	out, err := safeCall(func() (any, error) { return s.run(req.ctx, m, lw) })

	if req.ctx.Finalized() {
		s.removed = true
		r.removeScanner(s)
	}
	s.mu.Unlock()

	if err != nil {
		r.finish(req, Failure, err)
		return
	}
	r.finish(req, Scanner, out)
}

func (r *Registry) removeScanner(s *scanner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, candidate := range r.scanners {
		if candidate == s {
			r.scanners = append(r.scanners[:i:i], r.scanners[i+1:]...)
			return
		}
	}
}

// runChain executes pipe segments strictly in order. The output of each
// segment is appended to the arguments of the next; nil output appends nothing.
func (r *Registry) runChain(req *request, text string) {
	segments := strings.Split(text, r.separator)
	var carry []any

	for i, segment := range segments {
		segment = strings.TrimSpace(segment)

		inv := r.resolve(req, segment)
		if inv == nil {
			r.logger.Debug("pipe segment did not resolve",
				logger.RequestID(req.id),
				logger.Segment(i),
				logger.Input(segment))
			r.finish(req, Unhandled, nil)
			return
		}
		inv.extra = carry

		res, _ := async.Run(func() (outcome, error) { return r.invoke(inv), nil }).Await()

		if res.kind == Failure || i == len(segments)-1 {
			r.finish(req, res.kind, res.payload)
			return
		}

		carry = nil
		if res.payload != nil {
			carry = []any{res.payload}
		}
	}
}

func (r *Registry) invoke(inv *invocation) outcome {
	r.active.Add(1)
	defer r.active.Add(-1)

	ctx := WithStartProcessingTime(WithCommandName(WithRequestID(r.ctx, inv.id), inv.md.name), time.Now())
	r.logger.DebugContext(ctx, "command started",
		logger.RequestID(inv.id),
		logger.Command(inv.md.name),
		logger.Input(inv.text))

	res := r.parser.execute(inv)

	r.logger.DebugContext(ctx, "command finished",
		logger.RequestID(inv.id),
		logger.Command(inv.md.name),
		logger.Kind(res.kind.String()),
		logger.Elapsed(StartProcessingTime(ctx)))
	return res
}

// finish reports the outcome to the submitter and the result listeners.
func (r *Registry) finish(req *request, kind ResultKind, payload any) {
	switch kind {
	case Success:
		r.succeeded.Add(1)
	case Failure:
		r.failed.Add(1)
	case Unhandled:
		r.unhandled.Add(1)
	case Scanner:
		r.scanned.Add(1)
	}
	r.lastActivityAt.Store(time.Now().UnixNano())

	if kind == Failure {
		err, _ := payload.(error)
		r.logger.Warn("input failed",
			logger.RequestID(req.id),
			logger.Input(req.text),
			logger.Error(err))
	}

	if _, err := safeCall(func() (struct{}, error) {
		req.cb(kind, payload)
		return struct{}{}, nil
	}); err != nil {
		r.logger.Error("result callback panicked",
			logger.RequestID(req.id),
			logger.Error(err))
	}

	event := ResultEvent{ID: req.id, Kind: kind, Output: payload, Input: req.text}
	for _, listen := range r.listeners {
		if _, err := safeCall(func() (struct{}, error) {
			listen(event)
			return struct{}{}, nil
		}); err != nil {
			r.logger.Error("result listener panicked",
				logger.RequestID(req.id),
				logger.Error(err))
		}
	}
}
