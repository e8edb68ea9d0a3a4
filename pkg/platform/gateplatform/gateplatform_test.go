package gateplatform

import (
	"context"
	"testing"

	bus "github.com/robinbraemer/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.minekube.com/hostkit/pkg/event"
	"go.minekube.com/hostkit/pkg/platform"
)

type kickEvent struct {
	event.Base
	reason string
}

func TestGateDispatcher(t *testing.T) {
	proxyEvents := bus.New()
	event.Subscribe(proxyEvents, func(e *kickEvent) {
		if e.reason == "" {
			e.SetCancelled(true)
		}
	})

	b := platform.NewBuilder()
	require.NoError(t, Register(b, proxyEvents))
	require.NoError(t, platform.Register[event.Dispatcher](b, platform.AnySide, event.Nop))

	s, err := b.Build(context.Background(), platform.BuildOptions{Platform: platform.Gate})
	require.NoError(t, err)

	assert.False(t, event.CallWith(s, &kickEvent{}))
	assert.True(t, event.CallWith(s, &kickEvent{reason: "afk"}))

	mgr, err := platform.Service[bus.Manager](s)
	require.NoError(t, err)
	assert.Equal(t, proxyEvents, mgr)
}

func TestGateServicesOnlyOnGate(t *testing.T) {
	b := platform.NewBuilder()
	require.NoError(t, Register(b, bus.New()))
	s, err := b.Build(context.Background(), platform.BuildOptions{Platform: platform.Bukkit})
	require.NoError(t, err)
	assert.False(t, platform.Has[event.Dispatcher](s))
	assert.False(t, platform.Has[bus.Manager](s))
}
