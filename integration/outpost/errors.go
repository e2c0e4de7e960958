package outpost

import "errors"

var (
	ErrNilDispatcher   = errors.New("outpost: dispatcher is required")
	ErrNilClient       = errors.New("outpost: redis client is required")
	ErrSubscribeFailed = errors.New("outpost: subscribe failed")
	ErrPublishFailed   = errors.New("outpost: publish failed")
	ErrConnectRejected = errors.New("outpost: connection rejected")
)
