package canvas

import "errors"

// Sentinel errors returned by canvas operations. None of them are fatal: the
// operation that returns one leaves the session state unchanged, and any
// in-progress drag has been reverted to ModeIdle.
var (
	// ErrInvalidReference is returned when an operation names a node,
	// connection or group id that does not exist.
	ErrInvalidReference = errors.New("canvas: unknown id")

	// ErrInvalidTransition is returned when an operation is not valid for the
	// current drag mode or selection, e.g. completing a connection while not
	// connecting, or ungrouping a selection that is not a group.
	ErrInvalidTransition = errors.New("canvas: invalid transition")

	// ErrDegenerateGeometry is returned when a geometric input cannot produce
	// a finite result (NaN/Inf coordinates, non-positive zoom factor).
	ErrDegenerateGeometry = errors.New("canvas: degenerate geometry")

	// ErrSelfLoop is returned when a connection would join a node to itself.
	ErrSelfLoop = errors.New("canvas: connection source and target are the same node")

	// ErrDuplicateConnection is returned when a connection with the same
	// (source, target) pair already exists.
	ErrDuplicateConnection = errors.New("canvas: connection already exists")

	// ErrDuplicateID is returned when an id is added twice or reused.
	ErrDuplicateID = errors.New("canvas: id already used")

	// ErrInvalidColor is returned for group colors outside GroupPalette.
	ErrInvalidColor = errors.New("canvas: color not in group palette")

	// ErrTooFewNodes is returned when grouping fewer than two nodes.
	ErrTooFewNodes = errors.New("canvas: a group needs at least two nodes")

	// ErrUnknownNodeType is returned when adding a node of an unknown type.
	ErrUnknownNodeType = errors.New("canvas: unknown node type")

	// ErrClipboardEmpty is returned when pasting before anything was copied.
	ErrClipboardEmpty = errors.New("canvas: clipboard is empty")
)
