package script

import "errors"

var (
	// ErrStateClosed is returned when drawing with a closed scene
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNoFrameFunc is returned when a script does not define frame(tick)
	ErrNoFrameFunc = errors.New("script does not define frame(tick)")

	// ErrFrameTimeout is returned when frame(tick) overruns its deadline
	ErrFrameTimeout = errors.New("lua frame timeout")
)
