package command

import "fmt"

// ResultKind classifies the outcome of one submitted input.
type ResultKind int

const (
	// Unhandled means nothing matched the input. The payload is nil.
	Unhandled ResultKind = iota
	// Scanner means a scanner consumed the input. The payload is the scanner's value.
	Scanner
	// Success means a command ran. The payload is the handler's output.
	Success
	// Failure means dispatch faulted. The payload is the error.
	Failure
)

var resultKindNames = [...]string{"unhandled", "scanner", "success", "failure"}

func (k ResultKind) String() string {
	if k < 0 || int(k) >= len(resultKindNames) {
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
	return resultKindNames[k]
}

// MarshalText encodes the kind as its lower-case name.
func (k ResultKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(resultKindNames) {
		return nil, fmt.Errorf("command: unknown result kind %d", int(k))
	}
	return []byte(resultKindNames[k]), nil
}

// UnmarshalText decodes a lower-case kind name.
func (k *ResultKind) UnmarshalText(text []byte) error {
	for i, name := range resultKindNames {
		if name == string(text) {
			*k = ResultKind(i)
			return nil
		}
	}
	return fmt.Errorf("command: unknown result kind %q", string(text))
}

// Callback receives the outcome of one submission. It is invoked exactly once.
type Callback func(kind ResultKind, payload any)

// ResultEvent is delivered to result listeners after every finished submission.
type ResultEvent struct {
	ID     string
	Kind   ResultKind
	Output any
	Input  string
}
