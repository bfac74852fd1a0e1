package normalize

import "fmt"

// ValidationError reports a raw payload that failed its vendor's
// structural schema. It is fatal to the call; no record is produced.
type ValidationError struct {
	Vendor string
	Detail string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s payload validation failed: %s: %v", e.Vendor, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s payload validation failed: %s", e.Vendor, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// UnsupportedModelError reports a model id with no configured vendor.
// It is raised before any parsing happens.
type UnsupportedModelError struct {
	Model string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model: %q", e.Model)
}

// UnsupportedCaptureError reports an unknown capture tag.
type UnsupportedCaptureError struct {
	Tag string
}

func (e *UnsupportedCaptureError) Error() string {
	return fmt.Sprintf("unsupported capture format: %q", e.Tag)
}
