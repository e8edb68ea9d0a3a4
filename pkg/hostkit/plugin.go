package hostkit

import (
	"context"

	"go.minekube.com/hostkit/pkg/platform"
)

// Plugins is used to register plugins with the runtime.
// The plugin's init hook is run after the LOAD stage and
// before the runtime enters ENABLE.
//
// If one init hook errors, the runtime cancels the boot and
// enters DISABLE so other plugins can gracefully de-initialize.
// A hook returning an errs.SilentError only skips that plugin.
var Plugins []Plugin

// Plugin provides the ability to extend a host with portable code.
//
// Plugin code depends on hostkit's service registry and proxy events
// only, so the same plugin runs on every platform an adapter exists for:
//   - Look up host capabilities with platform.Service on rt.Services().
//   - Fire proxy events with rt.Call and subscribe to them on rt.Event().
//   - Subscribe to event.LifeCycleEvent to act on stage changes.
type Plugin struct {
	Name string                                       // The name identifying the plugin.
	Init func(ctx context.Context, rt *Runtime) error // The hook to initialize the plugin.
}

// Adapters register platform specific services and awake hooks
// on the Builder of every new Runtime, e.g. gateplatform.Register.
var Adapters []Adapter

// Adapter binds hostkit to a host platform.
type Adapter struct {
	Name     string                          // The name identifying the adapter.
	Register func(b *platform.Builder) error // Registers the adapter's services.
}
