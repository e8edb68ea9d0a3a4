// Package hostkit is the runtime running portable plugins on a host platform.
package hostkit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	bus "github.com/robinbraemer/event"
	"github.com/spf13/viper"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.minekube.com/hostkit/pkg/config"
	"go.minekube.com/hostkit/pkg/event"
	"go.minekube.com/hostkit/pkg/internal/reload"
	"go.minekube.com/hostkit/pkg/platform"
	"go.minekube.com/hostkit/pkg/util/errs"
)

// ErrAlreadyStarted is returned when starting a Runtime twice.
var ErrAlreadyStarted = errors.New("runtime was already started")

// Options are Runtime options.
type Options struct {
	// Config requires a valid hostkit configuration.
	Config *config.Config
	// ConfigFile is the file Config was loaded from.
	// It is watched for changes if Config.AutoReload is enabled.
	ConfigFile string
	// Logger is the logger used for the runtime and its services.
	// A Logger without sink, including logr.Discard(), falls back to the
	// logger of the context passed to New. To silence the runtime pass a
	// context carrying logr.Discard() instead.
	Logger logr.Logger
	// Event is the event manager plugins subscribe to.
	// If not set, a new one is created.
	Event bus.Manager
	// Builder optionally contains services and awake hooks
	// registered by platform adapters and plugins.
	Builder *platform.Builder
	// Plugins to initialize. Defaults to the global Plugins.
	Plugins []Plugin
	// Adapters to register on Builder. Defaults to the global Adapters.
	Adapters []Adapter
}

// Runtime runs plugins on the configured platform.
type Runtime struct {
	log        logr.Logger
	event      bus.Manager
	services   *platform.Services
	plugins    []Plugin
	configFile string

	mu  sync.RWMutex // Protects following fields
	cfg *config.Config

	started atomic.Bool
}

// New builds the service registry for the configured platform
// and enters the CONST and INIT stages.
func New(ctx context.Context, options Options) (*Runtime, error) {
	if options.Config == nil {
		return nil, errs.ErrMissingConfig
	}
	if _, errList := options.Config.Validate(); len(errList) != 0 {
		return nil, fmt.Errorf("invalid config: %w", multierr.Combine(errList...))
	}
	p, err := options.Config.PlatformOrDefault()
	if err != nil {
		return nil, err
	}

	log := options.Logger
	if log.GetSink() == nil {
		log = logr.FromContextOrDiscard(ctx)
	}
	if options.Event == nil {
		options.Event = bus.New()
	}
	if options.Builder == nil {
		options.Builder = platform.NewBuilder()
	}
	if options.Plugins == nil {
		options.Plugins = Plugins
	}
	if options.Adapters == nil {
		options.Adapters = Adapters
	}

	r := &Runtime{
		log:        log,
		event:      options.Event,
		plugins:    options.Plugins,
		configFile: options.ConfigFile,
		cfg:        options.Config,
	}

	if err = registerDefaults(options.Builder, options.Event); err != nil {
		return nil, fmt.Errorf("error registering default services: %w", err)
	}
	for _, a := range options.Adapters {
		if err = a.Register(options.Builder); err != nil {
			return nil, fmt.Errorf("error registering platform adapter %q: %w", a.Name, err)
		}
	}
	r.services, err = options.Builder.Build(ctx, platform.BuildOptions{
		Platform: p,
		Disabled: options.Config.Services.Disabled,
		Logger:   log.WithName("services"),
	})
	if err != nil {
		return nil, fmt.Errorf("error building services for platform %s: %w", p, err)
	}
	// A platform adapter may provide the host's own event manager.
	if mgr, err := platform.Service[bus.Manager](r.services); err == nil && mgr != nil {
		r.event = mgr
	}

	ctx = logr.NewContext(ctx, log)
	for _, stage := range []platform.LifeCycle{platform.Const, platform.Init} {
		if err = r.enter(ctx, stage); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// registerDefaults registers the services every platform has.
// Platform adapters may register their own for their side.
func registerDefaults(b *platform.Builder, mgr bus.Manager) error {
	if err := platform.Register[bus.Manager](b, platform.AnySide, mgr); err != nil {
		return err
	}
	return platform.Provide(b, platform.AnySide, func(s *platform.Services) (event.Dispatcher, error) {
		m, err := platform.Service[bus.Manager](s)
		if err != nil {
			return nil, err
		}
		return event.NewBus(m), nil
	})
}

// Start enters the LOAD stage, initializes plugins and enters ENABLE
// and ACTIVE. It blocks until ctx is canceled and then enters DISABLE.
// A Runtime can only be started once.
func (r *Runtime) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	ctx = logr.NewContext(ctx, r.log)

	if err := r.enter(ctx, platform.Load); err != nil {
		return r.shutdown(err)
	}
	if err := r.initPlugins(ctx); err != nil {
		return r.shutdown(err)
	}
	for _, stage := range []platform.LifeCycle{platform.Enable, platform.Active} {
		if err := r.enter(ctx, stage); err != nil {
			return r.shutdown(err)
		}
	}
	r.log.Info("runtime is active",
		"platform", r.services.Platform(),
		"plugins", len(r.plugins),
		"services", len(r.services.Types()))

	eg, egCtx := errgroup.WithContext(ctx)
	if cfg := r.Config(); cfg.AutoReload && r.configFile != "" {
		eg.Go(func() error {
			return reload.Watch(egCtx, r.configFile, r.reloadConfig)
		})
	}
	eg.Go(func() error {
		<-egCtx.Done()
		return nil
	})
	return r.shutdown(eg.Wait())
}

func (r *Runtime) initPlugins(ctx context.Context) error {
	for _, pl := range r.plugins {
		if pl.Init == nil {
			continue
		}
		log := r.log.WithValues("plugin", pl.Name)
		err := initPlugin(logr.NewContext(ctx, log), r, pl)
		if errs.IsSilent(err) {
			log.V(1).Info("skipped plugin", "reason", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("error initializing plugin %q: %w", pl.Name, err)
		}
		log.Info("initialized plugin")
	}
	return nil
}

func initPlugin(ctx context.Context, r *Runtime, pl Plugin) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return pl.Init(ctx, r)
}

// enter runs the awake hooks of stage and then fires a LifeCycleEvent.
func (r *Runtime) enter(ctx context.Context, stage platform.LifeCycle) error {
	r.log.V(1).Info("entering life cycle stage", "stage", stage.String())
	if err := r.services.RunAwake(ctx, stage); err != nil {
		return fmt.Errorf("error entering %s: %w", stage, err)
	}
	r.Call(event.NewLifeCycleEvent(stage, r.services.Platform()))
	return nil
}

// shutdown enters DISABLE bounded by the configured shutdown timeout
// and combines its error with cause.
func (r *Runtime) shutdown(cause error) error {
	ctx := logr.NewContext(context.Background(), r.log)
	var cancel context.CancelFunc
	if timeout := r.Config().ShutdownTimeout; timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.enter(ctx, platform.Disable) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("failed waiting for %s to end within grace period of %s: %w",
			platform.Disable, r.Config().ShutdownTimeout, ctx.Err())
	}
	if err != nil {
		r.log.Error(err, "error during shutdown")
	}
	r.event.Wait()
	return multierr.Append(cause, err)
}

// reloadConfig loads and validates the config file and
// applies it unless a listener cancels the ConfigUpdateEvent.
func (r *Runtime) reloadConfig() error {
	v := viper.New()
	v.SetConfigFile(r.configFile)
	cfg, warns, err := config.NewValid(v)
	if err != nil {
		return err
	}
	for _, w := range warns {
		r.log.Info("config validation warn", "warn", w.Error())
	}

	prev := r.Config()
	if cfg.Platform != prev.Platform {
		r.log.Info("platform change requires a restart, keeping current platform",
			"current", prev.Platform, "configured", cfg.Platform)
		cfg.Platform = prev.Platform
	}

	e := &ConfigUpdateEvent{config: cfg, prev: prev}
	if !r.Call(e) {
		r.log.Info("config update was cancelled by a listener")
		return nil
	}
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
	return nil
}

// Call dispatches e through the runtime's event Dispatcher service.
// See event.Call.
func (r *Runtime) Call(e event.Event) bool {
	return event.CallWith(r.services, e)
}

// Config returns the current config.
func (r *Runtime) Config() *config.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// Services returns the service registry.
func (r *Runtime) Services() *platform.Services { return r.services }

// Event returns the event manager plugins subscribe to.
func (r *Runtime) Event() bus.Manager { return r.event }

// Logger returns the runtime's logger.
func (r *Runtime) Logger() logr.Logger { return r.log }

// Platform returns the platform the runtime runs on.
func (r *Runtime) Platform() platform.Platform { return r.services.Platform() }
