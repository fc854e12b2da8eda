package engine

import "errors"

var (
	// ErrInvalidConfiguration marks scenario, catalog or weapon-selection data
	// the engine refuses to guess around.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrEpisodeOver is returned by Step after termination or truncation.
	ErrEpisodeOver = errors.New("episode is over")
	// ErrEpisodeAborted is returned by Step after a fatal error; it wraps the cause.
	ErrEpisodeAborted = errors.New("episode aborted")
)
