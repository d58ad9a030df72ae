package manifest

import "errors"

// missingManifestError signals an absent or unparsable version descriptor.
type missingManifestError struct {
	id   string
	path string
	err  error
}

func (e missingManifestError) Error() string {
	return "manifest not found: " + e.id + " (" + e.path + "): " + e.err.Error()
}

func (e missingManifestError) Unwrap() error { return e.err }

// IsMissingManifest reports whether err indicates a missing descriptor.
func IsMissingManifest(err error) bool {
	var me missingManifestError
	return errors.As(err, &me)
}

// invalidManifestError signals a descriptor that resolved but lacks a
// required field.
type invalidManifestError struct {
	id    string
	field string
}

func (e invalidManifestError) Error() string {
	return "manifest " + e.id + ": missing " + e.field
}

// IsInvalidManifest reports whether err indicates an incomplete descriptor.
func IsInvalidManifest(err error) bool {
	var ie invalidManifestError
	return errors.As(err, &ie)
}
