package hry

import "errors"

// Errors
var (
	ErrPoolExhausted  = errors.New("cut-border element pool exhausted")
	ErrPartsExhausted = errors.New("cut-border part stack exhausted")
	ErrInternal       = errors.New("internal invariant violated")
	ErrDataFormat     = errors.New("data-format error")
	ErrBadMagic       = errors.New("bad container magic")
	ErrNonManifold    = errors.New("mesh is not manifold")
	ErrBadMesh        = errors.New("bad or inconsistent mesh")
	ErrBadCatalog     = errors.New("bad catalog param")
)
