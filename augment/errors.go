package augment

import "github.com/pkg/errors"

// Sentinel errors for the package. They are always returned wrapped with
// context (use errors.Is to test for them).
var (
	// ErrConfig marks an invalid augmentation space or policy configuration.
	// It is only ever returned at construction time, never mid-run.
	ErrConfig = errors.New("augment: invalid configuration")

	// ErrUnsupportedOp marks an operation name outside the allowed set.
	ErrUnsupportedOp = errors.New("augment: unsupported operation")

	// ErrImage marks an input that is not a usable image.
	ErrImage = errors.New("augment: not a valid image")

	// ErrNoHistory is returned by Replay before any successful Apply call.
	ErrNoHistory = errors.New("augment: no operations recorded yet")
)
