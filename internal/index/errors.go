package index

import "errors"

// ErrDimensionMismatch reports a vector whose width differs from the width
// the index was created with.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")
