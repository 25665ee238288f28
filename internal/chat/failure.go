package chat

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"
)

// FailureKind classifies why an exchange did not produce a model reply.
type FailureKind string

const (
	FailureNone         FailureKind = "none"
	FailureUnconfigured FailureKind = "unconfigured"
	FailureSession      FailureKind = "session"
	FailureTimeout      FailureKind = "timeout"
	FailureCanceled     FailureKind = "canceled"
	FailureAuth         FailureKind = "auth"
	FailureRateLimited  FailureKind = "rate_limited"
	FailureRemote       FailureKind = "remote"
	FailureTransport    FailureKind = "transport"
	FailureEmptyReply   FailureKind = "empty_reply"
)

// Classify maps a submission error to a FailureKind. A nil error is
// FailureNone.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	var apiErr genai.APIError
	isAPIErr := errors.As(err, &apiErr)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	case isAPIErr && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden):
		return FailureAuth
	case isAPIErr && apiErr.Code == http.StatusTooManyRequests:
		return FailureRateLimited
	case errors.Is(err, ErrSessionUnavailable):
		return FailureSession
	case isAPIErr:
		return FailureRemote
	default:
		return FailureTransport
	}
}
