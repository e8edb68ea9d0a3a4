package hostkit

import (
	"go.minekube.com/hostkit/pkg/config"
	"go.minekube.com/hostkit/pkg/event"
)

// ConfigUpdateEvent is fired when the config file changed and
// the new config is valid. Cancelling it keeps the current config.
type ConfigUpdateEvent struct {
	event.Base
	config *config.Config
	prev   *config.Config
}

// Config returns the new config.
func (e *ConfigUpdateEvent) Config() *config.Config { return e.config }

// PrevConfig returns the config that is replaced.
func (e *ConfigUpdateEvent) PrevConfig() *config.Config { return e.prev }
