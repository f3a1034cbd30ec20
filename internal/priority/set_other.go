//go:build !unix

package priority

import "errors"

// ErrUnsupported is returned by Set on platforms without process niceness.
var ErrUnsupported = errors.New("process priority is not supported on this platform")

// Set is unsupported on this platform.
func Set(int) error { return ErrUnsupported }
