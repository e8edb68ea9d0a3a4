package hostkit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	bus "github.com/robinbraemer/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.minekube.com/hostkit/pkg/config"
	"go.minekube.com/hostkit/pkg/event"
	"go.minekube.com/hostkit/pkg/platform"
	"go.minekube.com/hostkit/pkg/platform/gateplatform"
	"go.minekube.com/hostkit/pkg/util/errs"
)

const shutdownGrace = 5 * time.Second

func testConfig() *config.Config {
	cfg := config.DefaultConfig
	cfg.ShutdownTimeout = time.Second
	return &cfg
}

// recorder records stages and plugin inits in order.
type recorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, s)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.steps...)
}

// start runs rt.Start until the ACTIVE stage was entered
// and returns a func canceling it and returning Start's error.
func start(t *testing.T, rt *Runtime) (stop func() error) {
	t.Helper()
	active := make(chan struct{})
	var once sync.Once
	event.SubscribeWith(rt.Event(), event.Options{Priority: event.Monitor}, func(e *event.LifeCycleEvent) {
		if e.Stage() == platform.Active {
			once.Do(func() { close(active) })
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Start(ctx) }()

	select {
	case <-active:
	case err := <-done:
		cancel()
		t.Fatalf("runtime stopped before becoming active: %v", err)
	case <-time.After(shutdownGrace):
		t.Fatal("runtime did not become active")
	}
	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(shutdownGrace):
			t.Fatal("runtime did not stop")
			return nil
		}
	}
}

func TestNewMissingConfig(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.ErrorIs(t, err, errs.ErrMissingConfig)
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Platform = "fabric"
	_, err := New(context.Background(), Options{Config: cfg})
	assert.ErrorContains(t, err, "unknown platform")
}

func TestLifeCycle(t *testing.T) {
	rec := &recorder{}
	mgr := bus.New()
	event.Subscribe(mgr, func(e *event.LifeCycleEvent) {
		rec.add("event:" + e.Stage().String())
	})

	b := platform.NewBuilder()
	for _, stage := range platform.LifeCycles {
		stage := stage
		require.NoError(t, b.Awake(stage, platform.AnySide, "hook", func(context.Context, *platform.Services) error {
			rec.add("hook:" + stage.String())
			return nil
		}))
	}

	rt, err := New(context.Background(), Options{
		Config:  testConfig(),
		Event:   mgr,
		Builder: b,
		Plugins: []Plugin{{Name: "demo", Init: func(ctx context.Context, rt *Runtime) error {
			rec.add("plugin:demo")
			return nil
		}}},
	})
	require.NoError(t, err)
	assert.Equal(t, platform.Standalone, rt.Platform())
	assert.True(t, platform.Has[event.Dispatcher](rt.Services()))

	stop := start(t, rt)
	require.NoError(t, stop())

	assert.Equal(t, []string{
		"hook:CONST", "event:CONST",
		"hook:INIT", "event:INIT",
		"hook:LOAD", "event:LOAD",
		"plugin:demo",
		"hook:ENABLE", "event:ENABLE",
		"hook:ACTIVE", "event:ACTIVE",
		"hook:DISABLE", "event:DISABLE",
	}, rec.get())

	assert.ErrorIs(t, rt.Start(context.Background()), ErrAlreadyStarted)
}

func TestPluginErrorAbortsBoot(t *testing.T) {
	rec := &recorder{}
	b := platform.NewBuilder()
	require.NoError(t, b.Awake(platform.Disable, platform.AnySide, "cleanup", func(context.Context, *platform.Services) error {
		rec.add("disable")
		return nil
	}))
	rt, err := New(context.Background(), Options{
		Config:  testConfig(),
		Builder: b,
		Plugins: []Plugin{
			{Name: "broken", Init: func(context.Context, *Runtime) error { return errors.New("no database") }},
			{Name: "never", Init: func(context.Context, *Runtime) error {
				rec.add("never")
				return nil
			}},
		},
	})
	require.NoError(t, err)

	err = rt.Start(context.Background())
	assert.ErrorContains(t, err, `error initializing plugin "broken": no database`)
	assert.Equal(t, []string{"disable"}, rec.get())
}

func TestSilentPluginErrorIsSkipped(t *testing.T) {
	rec := &recorder{}
	rt, err := New(context.Background(), Options{
		Config: testConfig(),
		Plugins: []Plugin{
			{Name: "optional", Init: func(context.Context, *Runtime) error {
				return errs.NewSilentErr("requires platform %s", platform.Bukkit)
			}},
			{Name: "wrapped", Init: func(context.Context, *Runtime) error {
				return errs.WrapSilent(errors.New("no dispatcher"))
			}},
			{Name: "noop", Init: nil},
			{Name: "next", Init: func(context.Context, *Runtime) error {
				rec.add("next")
				return nil
			}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, start(t, rt)())
	assert.Equal(t, []string{"next"}, rec.get())
}

func TestPluginPanic(t *testing.T) {
	rt, err := New(context.Background(), Options{
		Config: testConfig(),
		Plugins: []Plugin{{Name: "panics", Init: func(context.Context, *Runtime) error {
			panic("oops")
		}}},
	})
	require.NoError(t, err)
	assert.ErrorContains(t, rt.Start(context.Background()), "panic: oops")
}

func TestAwakeErrorFailsNew(t *testing.T) {
	b := platform.NewBuilder()
	require.NoError(t, b.Awake(platform.Init, platform.AnySide, "init", func(context.Context, *platform.Services) error {
		return errors.New("bad init")
	}))
	_, err := New(context.Background(), Options{Config: testConfig(), Builder: b})
	assert.ErrorContains(t, err, "error entering INIT")
}

func TestShutdownTimeout(t *testing.T) {
	b := platform.NewBuilder()
	release := make(chan struct{})
	defer close(release)
	require.NoError(t, b.Awake(platform.Disable, platform.AnySide, "slow", func(context.Context, *platform.Services) error {
		<-release
		return nil
	}))
	cfg := testConfig()
	cfg.ShutdownTimeout = 50 * time.Millisecond
	rt, err := New(context.Background(), Options{Config: cfg, Builder: b})
	require.NoError(t, err)

	err = start(t, rt)()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type greetEvent struct {
	event.Base
	name string
}

func TestPluginFiresProxyEvents(t *testing.T) {
	var results []bool
	rt, err := New(context.Background(), Options{
		Config: testConfig(),
		Plugins: []Plugin{{Name: "greeter", Init: func(ctx context.Context, rt *Runtime) error {
			event.Subscribe(rt.Event(), func(e *greetEvent) {
				if e.name == "herobrine" {
					e.SetCancelled(true)
				}
			})
			results = append(results,
				rt.Call(&greetEvent{name: "steve"}),
				rt.Call(&greetEvent{name: "herobrine"}))
			return nil
		}}},
	})
	require.NoError(t, err)
	require.NoError(t, start(t, rt)())
	assert.Equal(t, []bool{true, false}, results)
}

func TestGatePlatform(t *testing.T) {
	proxyEvents := bus.New()
	var stages []platform.LifeCycle
	event.Subscribe(proxyEvents, func(e *event.LifeCycleEvent) {
		stages = append(stages, e.Stage())
	})

	b := platform.NewBuilder()
	require.NoError(t, gateplatform.Register(b, proxyEvents))
	cfg := testConfig()
	cfg.Platform = "gate"

	rt, err := New(context.Background(), Options{Config: cfg, Builder: b})
	require.NoError(t, err)
	assert.Equal(t, platform.Gate, rt.Platform())
	assert.Equal(t, proxyEvents, rt.Event())
	assert.Equal(t, []platform.LifeCycle{platform.Const, platform.Init}, stages)
}

func TestDisabledDispatcher(t *testing.T) {
	cfg := testConfig()
	cfg.Services.Disabled = []string{"event.Dispatcher"}
	rt, err := New(context.Background(), Options{Config: cfg})
	require.NoError(t, err)

	var called bool
	event.Subscribe(rt.Event(), func(e *greetEvent) { called = true })
	assert.True(t, rt.Call(&greetEvent{}))
	assert.False(t, called)
}

func TestReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("shutdownTimeout: 1s\n"), 0644))

	rt, err := New(context.Background(), Options{Config: testConfig(), ConfigFile: path})
	require.NoError(t, err)

	var updates []*ConfigUpdateEvent
	event.Subscribe(rt.Event(), func(e *ConfigUpdateEvent) {
		updates = append(updates, e)
		if e.Config().Debug && e.Config().ShutdownTimeout == 2*time.Second {
			e.SetCancelled(true)
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("debug: true\nplatform: gate\n"), 0644))
	require.NoError(t, rt.reloadConfig())
	require.Len(t, updates, 1)
	assert.True(t, rt.Config().Debug)
	assert.Equal(t, "standalone", rt.Config().Platform, "platform requires restart")
	assert.False(t, updates[0].PrevConfig().Debug)

	require.NoError(t, os.WriteFile(path, []byte("debug: true\nshutdownTimeout: 2s\n"), 0644))
	require.NoError(t, rt.reloadConfig())
	require.Len(t, updates, 2)
	assert.Equal(t, 10*time.Second, rt.Config().ShutdownTimeout, "cancelled update is not applied")

	require.NoError(t, os.WriteFile(path, []byte("platform: fabric\n"), 0644))
	assert.Error(t, rt.reloadConfig())
	require.Len(t, updates, 2)
}

func TestAdapters(t *testing.T) {
	proxyEvents := bus.New()
	cfg := testConfig()
	cfg.Platform = "gate"
	rt, err := New(context.Background(), Options{
		Config: cfg,
		Adapters: []Adapter{{Name: "gate", Register: func(b *platform.Builder) error {
			return gateplatform.Register(b, proxyEvents)
		}}},
	})
	require.NoError(t, err)
	assert.Equal(t, proxyEvents, rt.Event())

	_, err = New(context.Background(), Options{
		Config: testConfig(),
		Adapters: []Adapter{{Name: "broken", Register: func(*platform.Builder) error {
			return errors.New("no host")
		}}},
	})
	assert.ErrorContains(t, err, `error registering platform adapter "broken": no host`)
}

func TestLoggerFallsBackToContext(t *testing.T) {
	var lines []string
	ctxLog := funcr.New(func(_, args string) { lines = append(lines, args) }, funcr.Options{})
	ctx := logr.NewContext(context.Background(), ctxLog)

	rt, err := New(ctx, Options{Config: testConfig(), Logger: logr.Discard(), Plugins: []Plugin{}})
	require.NoError(t, err)
	rt.Logger().Info("hello")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], "hello")

	lines = nil
	quiet := logr.NewContext(context.Background(), logr.Discard())
	rt, err = New(quiet, Options{Config: testConfig(), Plugins: []Plugin{}})
	require.NoError(t, err)
	rt.Logger().Info("hello")
	assert.Empty(t, lines)
}
