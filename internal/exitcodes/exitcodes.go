package exitcodes

import "errors"

// Exit codes for the trash command
// Every refusal or failure of a run shares code 1 so scripts only need to test for zero
const (
	Success       = 0 // Items moved to the trash
	Failure       = 1 // Usage error, no matches, declined, protected path or trash failure
	InvalidConfig = 2 // Explicitly requested configuration file invalid or missing
)

// ErrInvalidConfig marks configuration errors that map to InvalidConfig
var ErrInvalidConfig = errors.New("invalid configuration")

// FromError maps a run error to a process exit code
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrInvalidConfig):
		return InvalidConfig
	default:
		return Failure
	}
}
