package steam

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leighmacdonald/steamid/v4/steamid"
)

// ErrInvalidSteamID is returned for input that is not a 17-digit SteamID64.
var ErrInvalidSteamID = errors.New("please enter a valid 17-digit SteamID64")

const steamID64Len = 17

// ValidateSteamID checks user input before any request is issued. The input
// must be exactly 17 ASCII digits and decode to a valid account ID; the error
// for the latter names the rejected ID. Surrounding whitespace is dropped from
// the returned value.
func ValidateSteamID(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) != steamID64Len {
		return "", ErrInvalidSteamID
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] < '0' || trimmed[i] > '9' {
			return "", ErrInvalidSteamID
		}
	}
	sid := steamid.New(trimmed)
	if !sid.Valid() {
		return "", fmt.Errorf("%s is not a valid account ID: %w", trimmed, ErrInvalidSteamID)
	}
	return trimmed, nil
}
