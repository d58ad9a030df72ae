package fetch

import (
	"errors"
	"fmt"
)

// IntegrityError signals a file whose content still mismatches its digest
// after a fresh download.
type IntegrityError struct {
	Path string
	Want string
	Got  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity mismatch for %s: want %s, got %s", e.Path, e.Want, e.Got)
}

// DownloadError wraps a transport or filesystem failure during download.
type DownloadError struct {
	URL  string
	Path string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s -> %s: %v", e.URL, e.Path, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// IsIntegrityMismatch reports whether err is an IntegrityError.
func IsIntegrityMismatch(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// IsDownloadFailure reports whether err is a DownloadError.
func IsDownloadFailure(err error) bool {
	var de *DownloadError
	return errors.As(err, &de)
}
