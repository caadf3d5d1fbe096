package video

import "errors"

var (
	// ErrResourceUnavailable is returned by Open when the stream cannot be
	// configured or the native encoder cannot be created.
	ErrResourceUnavailable = errors.New("video encoder resource unavailable")

	// ErrNoFormat indicates that no input pixel format was selected.
	ErrNoFormat = errors.New("no input format selected")

	// ErrUnsupportedDimensions indicates frame dimensions H.264 cannot encode.
	ErrUnsupportedDimensions = errors.New("unsupported frame dimensions")

	// ErrStreamClosed is returned when frames are fed to a stream that is
	// not open.
	ErrStreamClosed = errors.New("video stream closed")

	// ErrStreamOpen is returned by Open on a stream that is already open.
	ErrStreamOpen = errors.New("video stream already open")

	// ErrEncoderNotOpen is returned by an encoder used before Open.
	ErrEncoderNotOpen = errors.New("encoder not open")
)
