package common

import (
	"context"
	"encoding/json"
	"net"
	"net/url"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound reports that a target served no favicon at all, neither
	// a referenced icon nor the /favicon.ico fallback.
	ErrNotFound = errors.New("favicon not found")
)

type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTimeout
	KindNotFound
	KindConnection
	KindCancelled
	KindOther
)

var kindNameMap = map[ErrorKind]string{
	KindNone:       "none",
	KindTimeout:    "timeout",
	KindNotFound:   "notfound",
	KindConnection: "connection",
	KindCancelled:  "cancelled",
	KindOther:      "other",
}

func (k ErrorKind) String() string {
	if name, ok := kindNameMap[k]; ok {
		return name
	}
	return "other"
}

// FetchError wraps a fetch failure with its classified kind so callers can
// tell retriable network conditions apart from definitive misses.
type FetchError struct {
	Kind ErrorKind
	Err  error
}

func NewFetchError(err error) *FetchError {
	if err == nil {
		return nil
	}
	return &FetchError{Kind: ClassifyError(err), Err: err}
}

func (e *FetchError) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"kind":    e.Kind.String(),
		"message": e.Err.Error(),
	})
}

func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTimeout
	}
	var operr *net.OpError
	if errors.As(err, &operr) {
		return KindConnection
	}
	var dnserr *net.DNSError
	if errors.As(err, &dnserr) {
		return KindConnection
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return ClassifyError(uerr.Err)
	}
	return KindOther
}
