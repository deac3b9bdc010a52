package upstream

import (
	"fmt"

	"github.com/mstvnetwork/stream-proxy-server/internal/domain"
)

// UnexpectedStatusError reports an upstream status other than 200, 301 or 302.
type UnexpectedStatusError struct {
	StatusCode int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected upstream status %d", e.StatusCode)
}

func (e *UnexpectedStatusError) Is(target error) bool {
	return target == domain.ErrUnexpectedStatus
}

// UnreachableError reports a transport-level failure: DNS, refused
// connection, TLS, timeout or a cancelled request context.
type UnreachableError struct {
	Cause error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("upstream unreachable: %v", e.Cause)
}

func (e *UnreachableError) Unwrap() error { return e.Cause }

func (e *UnreachableError) Is(target error) bool {
	return target == domain.ErrUpstreamUnreachable
}
