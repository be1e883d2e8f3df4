package retrieval

import "errors"

// ErrInconsistentStore reports a persisted index/chunk-store pair that
// violates alignment: one file present without the other, or a vector count
// that disagrees with the total chunk count. The store is unusable until an
// operator rebuilds it from the source documents; it is never auto-repaired.
var ErrInconsistentStore = errors.New("inconsistent retrieval store")
