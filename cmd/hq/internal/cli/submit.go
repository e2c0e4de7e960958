package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/dmitrymomot/headquarters/core/command"
	"github.com/dmitrymomot/headquarters/integration/outpost"
)

type result struct {
	kind    command.ResultKind
	payload any
}

// submit hands text to d and waits for its single result.
func submit(ctx context.Context, d outpost.Dispatcher, text string, cc command.ContextObject) (result, error) {
	done := make(chan result, 1)
	if err := d.HandleInput(text, cc, func(kind command.ResultKind, payload any) {
		done <- result{kind: kind, payload: payload}
	}); err != nil {
		return result{}, err
	}

	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// printer writes results either as outpost JSON frames or as plain text.
type printer struct {
	out  io.Writer
	json bool
}

func (p printer) print(text string, res result) error {
	if p.json {
		resp := outpost.NewResponse(uuid.NewString(), res.kind, res.payload)
		resp.Input = text
		data, err := outpost.EncodeResponse(resp)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.out, string(data))
		return err
	}

	var err error
	switch res.kind {
	case command.Success, command.Scanner:
		if res.payload == nil {
			return nil
		}
		_, err = fmt.Fprintln(p.out, res.payload)
	case command.Failure:
		_, err = fmt.Fprintf(p.out, "error: %v\n", res.payload)
	default:
		_, err = fmt.Fprintf(p.out, "unknown command: %s\n", text)
	}
	return err
}
