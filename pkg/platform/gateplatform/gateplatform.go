// Package gateplatform runs hostkit plugins on a Gate proxy.
//
// Gate plugins get the proxy's event manager via (*proxy.Proxy).Event().
// Registering it makes proxy events dispatched by hostkit code reach
// listeners subscribed on the same manager as Gate's native events.
package gateplatform

import (
	bus "github.com/robinbraemer/event"

	"go.minekube.com/hostkit/pkg/event"
	"go.minekube.com/hostkit/pkg/platform"
)

// Register registers the Gate platform services backed by mgr on b.
func Register(b *platform.Builder, mgr bus.Manager) error {
	side := platform.On(platform.Gate)
	if err := platform.Register[bus.Manager](b, side, mgr); err != nil {
		return err
	}
	return platform.Provide(b, side, func(s *platform.Services) (event.Dispatcher, error) {
		m, err := platform.Service[bus.Manager](s)
		if err != nil {
			return nil, err
		}
		return event.NewBus(m), nil
	})
}
