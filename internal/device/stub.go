package device

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// StubController is an in-memory SwitchController for development and tests.
// Swap in a vendor adapter for real installations.
type StubController struct {
	log *zap.SugaredLogger

	mu       sync.Mutex
	devices  []Device
	states   map[string]bool
	selected string
}

// NewStubController returns a controller with a few mock devices. logger may
// be nil.
func NewStubController(logger *zap.SugaredLogger) *StubController {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	devices := []Device{
		{ID: "stub-1", Name: "Boiler Switch", Room: "Utility Room", Type: TypeSwitch},
		{ID: "stub-2", Name: "Kitchen Plug", Room: "Kitchen", On: true, Type: TypePlug},
		{ID: "stub-3", Name: "Water Heater", Room: "Bathroom", Type: TypePlug},
	}
	states := make(map[string]bool, len(devices))
	for _, d := range devices {
		states[d.ID] = d.On
	}
	return &StubController{
		log:     logger,
		devices: devices,
		states:  states,
	}
}

func (c *StubController) DiscoverDevices(ctx context.Context) ([]Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Device, len(c.devices))
	copy(out, c.devices)
	for i := range out {
		out[i].On = c.states[out[i].ID]
	}
	c.log.Debugw("discovered devices", "count", len(out))
	return out, nil
}

func (c *StubController) SelectDevice(ctx context.Context, deviceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range c.devices {
		if d.ID == deviceID {
			c.selected = deviceID
			c.log.Infow("selected device", "device", deviceID)
			return nil
		}
	}
	return ErrDeviceUnavailable
}

func (c *StubController) SelectedDevice(ctx context.Context) (*Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected == "" {
		return nil, nil
	}
	for _, d := range c.devices {
		if d.ID == c.selected {
			out := d
			out.On = c.states[d.ID]
			return &out, nil
		}
	}
	return nil, nil
}

func (c *StubController) TurnOn(ctx context.Context) error {
	return c.setState(true)
}

func (c *StubController) TurnOff(ctx context.Context) error {
	return c.setState(false)
}

func (c *StubController) setState(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected == "" {
		return ErrNoDeviceSelected
	}
	c.states[c.selected] = on
	c.log.Infow("switch command", "device", c.selected, "on", on)
	return nil
}

func (c *StubController) IsConnected(ctx context.Context) bool {
	return true
}
