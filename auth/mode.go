package auth

import "fmt"

// Mode selects which backing flow the Manager uses. It is fixed at process
// configuration time and read-only afterwards; both flows live in one binary
// rather than behind build tags so they can be tested side by side.
type Mode string

const (
	// ModeLocal authenticates username/password credentials against the local
	// token service.
	ModeLocal Mode = "local"

	// ModeFederated delegates authentication to an external identity provider
	// via browser redirect.
	ModeFederated Mode = "federated"

	// ModeNone disables authentication entirely.
	ModeNone Mode = "none"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLocal, ModeFederated, ModeNone:
		return Mode(s), nil
	case "":
		return ModeNone, nil
	default:
		return ModeNone, fmt.Errorf("unknown auth mode %q", s)
	}
}
