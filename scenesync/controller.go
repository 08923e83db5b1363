// Package scenesync maps controller buttons to host scenes and pushes scene
// names back to the controller.
package scenesync

import (
	"context"
	"errors"
	"fmt"

	"github.com/hypebeast/go-osc/osc"

	"touchscenes/endpointstore"
	"touchscenes/logger"
	"touchscenes/mdnsmanager"
	"touchscenes/metrics"
)

// DefaultSlots is the number of scene buttons on the stock controller layout.
const DefaultSlots = 8

// Sender delivers one OSC value to an endpoint. A zero endpoint is a no-op.
type Sender interface {
	Send(ep endpointstore.Endpoint, address string, value interface{}) error
}

// Registrar binds OSC addresses to handlers.
type Registrar interface {
	Register(address string, handler func(*osc.Message)) error
}

// Controller keeps the remote controller and the host in step.
type Controller struct {
	host    Host
	store   *endpointstore.Store
	sender  Sender
	slots   int
	log     logger.Logger
	metrics *metrics.Metrics
}

// New creates a Controller for slots buttons. slots < 1 selects DefaultSlots.
func New(host Host, store *endpointstore.Store, sender Sender, slots int, log logger.Logger, m *metrics.Metrics) *Controller {
	if host == nil {
		host = NopHost{}
	}
	if slots < 1 {
		slots = DefaultSlots
	}
	return &Controller{
		host:    host,
		store:   store,
		sender:  sender,
		slots:   slots,
		log:     log,
		metrics: m,
	}
}

// Slots returns the number of scene buttons.
func (c *Controller) Slots() int { return c.slots }

// ButtonAddress is the inbound address of button i.
func ButtonAddress(i int) string { return fmt.Sprintf("/scene%d", i) }

// LabelAddresses are the outbound addresses a scene name is sent to. Layouts
// bind labels differently, so all conventions are written.
func LabelAddresses(i int) []string {
	return []string{
		fmt.Sprintf("/scene%d/name", i),
		fmt.Sprintf("/scene%d-label", i),
		fmt.Sprintf("/scene%d/name/label", i),
		fmt.Sprintf("/scene%d/name/text", i),
	}
}

// PlaceholderName labels a slot that has no host scene.
func PlaceholderName(i int) string { return fmt.Sprintf("Scene %d", i) }

// RegisterButtons binds /scene1 .. /sceneN on r.
func (c *Controller) RegisterButtons(r Registrar) error {
	for i := 1; i <= c.slots; i++ {
		if err := r.Register(ButtonAddress(i), c.ButtonHandler(i)); err != nil {
			return fmt.Errorf("register %s: %w", ButtonAddress(i), err)
		}
	}
	return nil
}

// ButtonHandler returns the handler for button slot. It reacts only to a
// single float argument equal to 1.0, the press edge; releases send 0.0.
func (c *Controller) ButtonHandler(slot int) func(*osc.Message) {
	return func(msg *osc.Message) {
		if !isPress(msg.Arguments) {
			return
		}
		c.log.Debug("scene button pressed", logger.Int("slot", slot))
		if err := c.SwitchScene(slot); err != nil {
			c.log.Warn("scene switch failed", logger.Int("slot", slot), logger.Error(err))
		}
		c.SyncSceneNames()
	}
}

func isPress(args []interface{}) bool {
	if len(args) != 1 {
		return false
	}
	switch v := args[0].(type) {
	case float32:
		return v == 1.0
	case float64:
		return v == 1.0
	default:
		return false
	}
}

// SwitchScene activates the host scene at 1-indexed position n. Positions
// outside the host's scene list are ignored.
func (c *Controller) SwitchScene(n int) error {
	scenes, err := c.host.ListScenes()
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil
		}
		return fmt.Errorf("list scenes: %w", err)
	}
	defer c.host.ReleaseScenes(scenes)

	if n < 1 || n > len(scenes) {
		c.log.Debug("no scene in slot", logger.Int("slot", n), logger.Int("scenes", len(scenes)))
		return nil
	}

	scene := scenes[n-1]
	if err := c.host.SetActiveScene(scene); err != nil {
		return fmt.Errorf("activate scene %d: %w", n, err)
	}
	c.metrics.SceneSwitched()
	c.log.Info("switched scene",
		logger.Int("slot", n),
		logger.String("scene", c.host.SceneName(scene)))
	return nil
}

// SyncSceneNames sends the current scene names to the remote controller.
// It does nothing when no controller is known or the host is unavailable.
func (c *Controller) SyncSceneNames() {
	ep, ok := c.store.Get()
	if !ok {
		return
	}

	scenes, err := c.host.ListScenes()
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			c.log.Warn("list scenes failed", logger.Error(err))
		}
		return
	}
	defer c.host.ReleaseScenes(scenes)

	for i := 1; i <= c.slots; i++ {
		if i <= len(scenes) {
			name := c.host.SceneName(scenes[i-1])
			for _, addr := range LabelAddresses(i) {
				c.send(ep, addr, name)
			}
			continue
		}
		c.send(ep, LabelAddresses(i)[0], PlaceholderName(i))
	}
	c.metrics.SceneNamesSynced()
}

func (c *Controller) send(ep endpointstore.Endpoint, addr, value string) {
	if err := c.sender.Send(ep, addr, value); err != nil {
		c.log.Debug("osc send failed",
			logger.String("to", ep.String()),
			logger.String("address", addr),
			logger.Error(err))
	}
}

// Apply updates the remote endpoint from a discovery event. A newly found or
// changed controller gets the current labels right away.
func (c *Controller) Apply(ev mdnsmanager.Event) {
	switch ev.Kind {
	case mdnsmanager.EventAdded, mdnsmanager.EventUpdated:
		c.store.Set(ev.Instance, ev.Endpoint)
		c.metrics.EndpointEvent(ev.Kind.String(), true)
		c.log.Info("remote controller "+ev.Kind.String(),
			logger.String("instance", ev.Instance),
			logger.String("endpoint", ev.Endpoint.String()))
		c.SyncSceneNames()
	case mdnsmanager.EventRemoved:
		c.store.Clear()
		c.metrics.EndpointEvent(ev.Kind.String(), false)
		c.log.Info("remote controller removed", logger.String("instance", ev.Instance))
	}
}

// Run applies events until the channel is closed or ctx is done.
func (c *Controller) Run(ctx context.Context, events <-chan mdnsmanager.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.Apply(ev)
		case <-ctx.Done():
			return
		}
	}
}
