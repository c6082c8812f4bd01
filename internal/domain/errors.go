package domain

import "errors"

var (
	ErrUnknownKind     = errors.New("unknown node kind")
	ErrUnknownEdgeKind = errors.New("unknown edge kind")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrInvalidParent   = errors.New("parent is not an existing group node")
	ErrDanglingEdge    = errors.New("edge endpoint does not exist")
	ErrInvalidHandle   = errors.New("handle does not exist on node")
	ErrParentCycle     = errors.New("parent chain contains a cycle")
	ErrInvalidDocument = errors.New("invalid diagram document")
)
