package config

// Persistent state keys (Registry). The first two are shared with the
// exhibit's original preference file and must not be renamed.
const (
	KeyTurn           = "turn"
	KeyLocomotionMode = "locomotionMode"
	KeyVolume         = "volume"
)

// Keys lists every preference key the CLI and API accept.
var Keys = []string{KeyTurn, KeyLocomotionMode, KeyVolume}

// IsKnownKey reports whether key is a registered preference.
func IsKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
