package devmerge

import (
	"sync"

	"github.com/agentstation/devmerge/pkg/provenance"
	"github.com/agentstation/devmerge/pkg/reconciler"
)

// Hook function types for reconciliation events.
type (
	// DeviceMergedHook is called after a pair was reconciled.
	DeviceMergedHook func(id string, result *reconciler.Result)

	// DeviceUnpairedHook is called for a device present on one side only.
	DeviceUnpairedHook func(id string, side provenance.Side)
)

// Hooks registers event callbacks. Callbacks may run concurrently when
// pairs are reconciled in parallel.
type Hooks interface {
	// OnDeviceMerged registers a callback for reconciled pairs
	OnDeviceMerged(DeviceMergedHook)

	// OnDeviceUnpaired registers a callback for devices without a counterpart
	OnDeviceUnpaired(DeviceUnpairedHook)
}

// hooks manages event callbacks.
type hooks struct {
	mu               sync.RWMutex
	onDeviceMerged   []DeviceMergedHook
	onDeviceUnpaired []DeviceUnpairedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnDeviceMerged registers a callback for reconciled pairs.
func (c *client) OnDeviceMerged(fn DeviceMergedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onDeviceMerged = append(c.hooks.onDeviceMerged, fn)
}

// OnDeviceUnpaired registers a callback for devices without a counterpart.
func (c *client) OnDeviceUnpaired(fn DeviceUnpairedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onDeviceUnpaired = append(c.hooks.onDeviceUnpaired, fn)
}

func (h *hooks) triggerMerged(id string, result *reconciler.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onDeviceMerged {
		hook(id, result)
	}
}

func (h *hooks) triggerUnpaired(id string, side provenance.Side) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onDeviceUnpaired {
		hook(id, side)
	}
}
