package core

import (
	"errors"
	"fmt"
)

// ErrFormatLimitation marks a backend that cannot answer a query for the
// file's container format. Resolvers treat it as a miss for one tier.
var ErrFormatLimitation = errors.New("not supported for this container format")

// ErrInteropFault wraps a panic recovered from a third-party decoder.
var ErrInteropFault = errors.New("decoder fault")

// ExtractionError annotates a failure that is not an expected format
// limitation with the file and requested kind.
type ExtractionError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s from %q: %v", e.Kind, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Annotate wraps err in an ExtractionError unless it already is one.
func Annotate(path string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return err
	}
	return &ExtractionError{Path: path, Kind: kind, Err: err}
}

// IsMiss reports whether err is an expected limitation that only ends one
// tier of a fallback chain.
func IsMiss(err error) bool {
	return errors.Is(err, ErrFormatLimitation) || errors.Is(err, ErrInteropFault)
}

// Guard runs fn and converts a panic into ErrInteropFault. The dsoprea and
// goexif decoders panic on some malformed inputs.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInteropFault, r)
		}
	}()
	return fn()
}
