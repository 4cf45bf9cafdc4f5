// Package databases holds what the mongo and postgres clients share.
package databases

import "errors"

// ErrNotFound is wrapped by FindOne when no document matches the filter.
var ErrNotFound = errors.New("document not found")
