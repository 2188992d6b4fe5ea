package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and cache tiers return these
// (optionally wrapped) so services can translate them into boundary responses.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the store
// - ErrConflict: a uniqueness constraint rejected the write
// - ErrInvalidInput: the caller supplied input the layer cannot use
// - ErrUnavailable: backing service temporarily unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnavailable  = errors.New("unavailable")
)
