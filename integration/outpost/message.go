package outpost

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrymomot/headquarters/core/command"
)

// Request is one inbound frame.
type Request struct {
	ID      string `json:"id,omitempty"`
	Session string `json:"session,omitempty"`
	Text    string `json:"text"`
}

// Response is one outbound frame. Failures carry the error text instead of output.
type Response struct {
	ID     string             `json:"id,omitempty"`
	Kind   command.ResultKind `json:"kind"`
	Input  string             `json:"input,omitempty"`
	Output any                `json:"output,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// DecodeRequest parses a frame. Anything that is not a JSON object is taken
// as the input text itself.
func DecodeRequest(data []byte) Request {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var req Request
		if err := json.Unmarshal(trimmed, &req); err == nil {
			return req
		}
	}
	return Request{Text: string(data)}
}

// NewResponse builds the frame reporting one dispatch outcome.
func NewResponse(id string, kind command.ResultKind, payload any) Response {
	resp := Response{ID: id, Kind: kind}
	if err, ok := payload.(error); ok {
		resp.Error = err.Error()
		return resp
	}
	resp.Output = payload
	return resp
}

// NewEventResponse builds the frame describing a finished submission.
func NewEventResponse(e command.ResultEvent) Response {
	resp := NewResponse(e.ID, e.Kind, e.Output)
	resp.Input = e.Input
	return resp
}

// EncodeResponse marshals resp. Output that cannot be marshalled is sent
// in its fmt representation.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err == nil {
		return data, nil
	}
	if resp.Output == nil {
		return nil, err
	}
	resp.Output = fmt.Sprint(resp.Output)
	return json.Marshal(resp)
}
