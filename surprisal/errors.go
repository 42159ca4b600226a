// Package surprisal turns model outputs into frame-level surprisal scores:
// mean absolute prediction error for autoregressive models and a multi-step
// InfoNCE loss for contrastive models.
package surprisal

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is the root of every argument validation failure.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidShift reports an MAE shift outside [1, sequence length).
	ErrInvalidShift = fmt.Errorf("%w: shift", ErrInvalidArgument)

	// ErrTooFewTimesteps is returned when negatives are requested from a
	// sequence with fewer than two timesteps.
	ErrTooFewTimesteps = fmt.Errorf("%w: negative sampling needs at least two timesteps", ErrInvalidArgument)
)
