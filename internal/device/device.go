package device

import (
	"context"
	"errors"
)

// ErrDeviceUnavailable is returned when a switch command cannot reach the
// device. The executor retries on its next tick.
var ErrDeviceUnavailable = errors.New("smart switch unavailable")

// ErrNoDeviceSelected is returned when an on/off command is issued before a
// device has been selected.
var ErrNoDeviceSelected = errors.New("no smart switch selected")

// Type distinguishes the kinds of controllable devices.
type Type string

const (
	TypeSwitch Type = "switch"
	TypePlug   Type = "plug"
)

// Device is an on/off smart home device.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Room string `json:"room,omitempty"`
	On   bool   `json:"on"`
	Type Type   `json:"type"`
}

// SwitchController abstracts the boiler's on/off smart switch. Adapters for
// real vendor platforms implement the same interface as the stub.
type SwitchController interface {
	// DiscoverDevices lists the controllable devices on the platform.
	DiscoverDevices(ctx context.Context) ([]Device, error)

	// SelectDevice remembers which device future commands control.
	SelectDevice(ctx context.Context, deviceID string) error

	// SelectedDevice returns the chosen device, or nil if none selected.
	SelectedDevice(ctx context.Context) (*Device, error)

	// TurnOn switches the selected device on.
	TurnOn(ctx context.Context) error

	// TurnOff switches the selected device off.
	TurnOff(ctx context.Context) error

	// IsConnected reports whether the platform is reachable.
	IsConnected(ctx context.Context) bool
}
