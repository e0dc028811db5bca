// Package event carries exhibit notifications from the frame loop to UI, audio and
// logging collaborators.
package event

import "time"

// Type identifies a notification.
type Type string

const (
	// PromptShown fires when a hotspot's prompt becomes visible.
	// Payload: Hotspot
	PromptShown Type = "prompt.shown"

	// PromptHidden fires when a hotspot's prompt is hidden.
	// Payload: Hotspot
	PromptHidden Type = "prompt.hidden"

	// DisplayOpened fires after the shared display accepted a new owner.
	// Payload: Hotspot, Title
	DisplayOpened Type = "display.opened"

	// DisplayClosed fires after the shared display released its owner.
	// Payload: Hotspot
	DisplayClosed Type = "display.closed"

	// TeleportMode fires after the locomotion coordinator switched to teleport.
	// Payload: Mode
	TeleportMode Type = "locomotion.teleport"

	// SmoothMode fires after the locomotion coordinator switched to continuous movement.
	// Payload: Mode
	SmoothMode Type = "locomotion.smooth"

	// TurnChanged fires after the turn style was applied.
	// Payload: Mode
	TurnChanged Type = "turn.changed"

	// VolumeChanged fires after the master volume changed.
	// Payload: Value (0..100)
	VolumeChanged Type = "volume.changed"
)

// Event is a single notification. Unused payload fields stay zero.
type Event struct {
	Type      Type      `json:"type"`
	Hotspot   string    `json:"hotspot,omitempty"`
	Title     string    `json:"title,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Value     int       `json:"value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
