package args

import "errors"

var (
	// ErrMissingArguments is returned when a descriptor carries neither the
	// structured nor the legacy argument grammar.
	ErrMissingArguments = errors.New("descriptor declares no launch arguments")
	// ErrMissingMainArtifact is returned when the main jar is absent.
	ErrMissingMainArtifact = errors.New("main artifact missing")
)

// IsMissingArguments reports whether err wraps ErrMissingArguments.
func IsMissingArguments(err error) bool { return errors.Is(err, ErrMissingArguments) }

// IsMissingMainArtifact reports whether err wraps ErrMissingMainArtifact.
func IsMissingMainArtifact(err error) bool { return errors.Is(err, ErrMissingMainArtifact) }
