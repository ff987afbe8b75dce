package domain

import "errors"

var (
	ErrAlreadyLive        = errors.New("stream is already live")
	ErrNoSuchStream       = errors.New("no live session for stream")
	ErrNotAMember         = errors.New("connection is not a member of the claimed stream")
	ErrUnauthorizedRole   = errors.New("operation not permitted for this role")
	ErrConnectionNotFound = errors.New("connection not found")
)
