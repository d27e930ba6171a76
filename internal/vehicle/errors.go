package vehicle

import "errors"

// Domain errors for model updates and parameter loading.
var (
	// ErrInvalidInput indicates a non-finite commanded input.
	ErrInvalidInput = errors.New("vehicle: invalid input (NaN or Inf detected)")

	// ErrInvalidState indicates a non-finite state handed into or produced by
	// a model. An invalid incoming state is an upstream defect and aborts the
	// tick rather than being reset.
	ErrInvalidState = errors.New("vehicle: invalid state (NaN or Inf detected)")

	// ErrInvalidTimestep indicates a negative or non-finite dt.
	ErrInvalidTimestep = errors.New("vehicle: invalid timestep")

	// ErrUnknownModel indicates a model name with no registered variant.
	ErrUnknownModel = errors.New("vehicle: unknown model")

	// ErrBadParam indicates a missing or out-of-range physical parameter.
	// Raised at load time only, never during integration.
	ErrBadParam = errors.New("vehicle: bad parameter")
)
