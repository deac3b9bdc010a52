package domain

import "errors"

var (
	ErrChannelNotFound     = errors.New("channel not found")
	ErrDuplicateChannel    = errors.New("duplicate channel id")
	ErrInvalidChannel      = errors.New("invalid channel")
	ErrNoLocationHeader    = errors.New("redirect without location header")
	ErrUnexpectedStatus    = errors.New("unexpected upstream status")
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
)
