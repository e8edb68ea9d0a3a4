package platform

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-logr/logr"

	"go.minekube.com/hostkit/pkg/inst"
)

// HookFunc is run when the runtime enters a LifeCycle stage.
type HookFunc func(ctx context.Context, s *Services) error

// Builder collects service registrations and awake hooks.
// It is safe for concurrent use until Build is called.
type Builder struct {
	mu    sync.Mutex
	built bool
	regs  []*registration
	hooks []*hook
}

type registration struct {
	typ   reflect.Type
	side  Side
	build func(s *Services) (any, error)
}

type hook struct {
	stage LifeCycle
	side  Side
	name  string
	fn    HookFunc
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Provide registers a factory for the capability type S on the given side.
// The factory may look up other services of the registry being built;
// those are resolved first. Every factory runs at most once.
func Provide[S any](b *Builder, side Side, factory func(s *Services) (S, error)) error {
	if factory == nil {
		return fmt.Errorf("nil factory for %v", typeOf[S]())
	}
	return b.add(&registration{
		typ:  typeOf[S](),
		side: side,
		build: func(s *Services) (any, error) {
			return factory(s)
		},
	})
}

// Register registers a pre-built instance of the capability type S on the given side.
func Register[S any](b *Builder, side Side, instance S) error {
	return Provide(b, side, func(*Services) (S, error) { return instance, nil })
}

// Awake registers fn to run when the runtime enters stage on the given side.
// Hooks of a stage run in registration order.
func (b *Builder) Awake(stage LifeCycle, side Side, name string, fn HookFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return ErrFrozen
	}
	b.hooks = append(b.hooks, &hook{stage: stage, side: side, name: name, fn: fn})
	return nil
}

func (b *Builder) add(r *registration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return ErrFrozen
	}
	b.regs = append(b.regs, r)
	return nil
}

// BuildOptions are options for Build.
type BuildOptions struct {
	// Platform selects the registrations to use.
	// Defaults to Standalone.
	Platform Platform
	// Disabled are names of service types (as printed by reflect.Type.String)
	// that resolve to a failure instead of being constructed.
	Disabled []string
	// Logger is used for build diagnostics and by the returned Getters.
	// A Logger without sink, including logr.Discard(), falls back to
	// the logger of the context passed to Build.
	Logger logr.Logger
}

// Build selects the registrations matching the platform, resolves every
// service and returns the immutable registry. A Builder can only be built once.
//
// A service whose factory fails does not fail the build; it is kept
// as a failed Getter and reported whenever it is looked up.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (*Services, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return nil, ErrFrozen
	}

	if opts.Platform == "" {
		opts.Platform = Standalone
	}
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.FromContextOrDiscard(ctx)
	}

	selected := map[reflect.Type]*registration{}
	var order []reflect.Type
	for _, r := range b.regs {
		if !r.side.Matches(opts.Platform) {
			continue
		}
		prev, ok := selected[r.typ]
		switch {
		case !ok:
			order = append(order, r.typ)
		case prev.side.specific() == r.side.specific():
			return nil, fmt.Errorf("%w for %v on platform %s", ErrDuplicateService, r.typ, opts.Platform)
		case prev.side.specific():
			continue // keep the platform specific registration
		}
		selected[r.typ] = r
	}

	disabled := make(map[string]bool, len(opts.Disabled))
	for _, name := range opts.Disabled {
		disabled[name] = true
	}

	s := &Services{
		platform: opts.Platform,
		log:      log,
		getters:  make(map[reflect.Type]inst.Getter[any], len(selected)),
		hooks:    map[LifeCycle][]*hook{},
	}
	st := &buildState{regs: selected, resolving: map[reflect.Type]bool{}, disabled: disabled}
	s.state = st
	for _, t := range order {
		s.resolve(t)
	}
	s.state = nil

	for _, h := range b.hooks {
		if h.side.Matches(opts.Platform) {
			s.hooks[h.stage] = append(s.hooks[h.stage], h)
		}
	}

	b.built = true
	log.V(1).Info("Built service registry",
		"platform", opts.Platform,
		"services", len(s.getters),
		"hooks", len(b.hooks))
	return s, nil
}

type buildState struct {
	regs      map[reflect.Type]*registration
	resolving map[reflect.Type]bool
	disabled  map[string]bool
}

// resolve constructs the service of type t, resolving
// its dependencies recursively while the registry is being built.
func (s *Services) resolve(t reflect.Type) (inst.Getter[any], bool) {
	if g, ok := s.getters[t]; ok {
		return g, true
	}
	st := s.state
	if st == nil {
		return inst.Getter[any]{}, false
	}
	r, ok := st.regs[t]
	if !ok {
		return inst.Getter[any]{}, false
	}
	if st.disabled[t.String()] {
		g := failedOf(t, fmt.Errorf("%w: %v", ErrServiceDisabled, t)).WithLogger(s.log)
		s.getters[t] = g
		return g, true
	}
	if st.resolving[t] {
		// The outer resolve records the failure for t.
		return failedOf(t, fmt.Errorf("%w at %v", ErrServiceCycle, t)), true
	}

	st.resolving[t] = true
	g := inst.Erase(inst.Resolve(func() (any, error) { return r.build(s) }))
	delete(st.resolving, t)
	if err := g.Err(); err != nil {
		s.log.V(1).Info("Service failed to resolve", "type", t.String(), "error", err)
		g = failedOf(t, causeOf(err))
	} else {
		g = instantOf(t, g)
	}
	g = g.WithLogger(s.log)
	s.getters[t] = g
	return g, true
}
