package event

import "go.minekube.com/hostkit/pkg/platform"

// LifeCycleEvent is fired when the runtime enters a LifeCycle stage.
// It can not be cancelled.
type LifeCycleEvent struct {
	Base
	stage    platform.LifeCycle
	platform platform.Platform
}

// NewLifeCycleEvent returns a pending LifeCycleEvent.
func NewLifeCycleEvent(stage platform.LifeCycle, p platform.Platform) *LifeCycleEvent {
	return &LifeCycleEvent{stage: stage, platform: p}
}

// Stage returns the entered stage.
func (e *LifeCycleEvent) Stage() platform.LifeCycle { return e.stage }

// Platform returns the platform the runtime runs on.
func (e *LifeCycleEvent) Platform() platform.Platform { return e.platform }

// AllowCancelled returns false, a stage change can not be prevented.
func (e *LifeCycleEvent) AllowCancelled() bool { return false }
