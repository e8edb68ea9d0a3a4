package platform

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"go.minekube.com/hostkit/pkg/inst"
)

// Services is an immutable registry of resolved host capabilities.
type Services struct {
	platform Platform
	log      logr.Logger
	getters  map[reflect.Type]inst.Getter[any]
	hooks    map[LifeCycle][]*hook

	state *buildState // only set while building
}

// Platform returns the platform the registry was built for.
func (s *Services) Platform() Platform { return s.platform }

// Types returns the registered service types sorted by name.
func (s *Services) Types() []reflect.Type {
	types := make([]reflect.Type, 0, len(s.getters))
	for t := range s.getters {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })
	return types
}

// Status returns the resolution error of the service type t,
// nil if it resolved and ErrServiceNotFound if it is not registered.
func (s *Services) Status(t reflect.Type) error {
	g, ok := s.getters[t]
	if !ok {
		return ErrServiceNotFound
	}
	return g.Err()
}

// Getter returns the resolution result of the capability type S.
// An unregistered type yields a failed Getter caused by ErrServiceNotFound.
func Getter[S any](s *Services) inst.Getter[S] {
	t := typeOf[S]()
	if s == nil {
		return inst.Failed[S](fmt.Errorf("%w: %v", ErrServiceNotFound, t))
	}
	g, ok := s.resolve(t)
	if !ok {
		return inst.Failed[S](fmt.Errorf("%w: %v", ErrServiceNotFound, t)).WithLogger(s.log)
	}
	return inst.Assert[S](g).WithLogger(s.log)
}

// Service returns the instance of the capability type S or the
// *inst.ResolutionError describing why there is none.
func Service[S any](s *Services) (S, error) {
	g := Getter[S](s)
	if err := g.Err(); err != nil {
		var zero S
		return zero, err
	}
	v, _ := g.Get()
	return v, nil
}

// Has reports whether a usable instance of S is registered.
func Has[S any](s *Services) bool {
	return Getter[S](s).OK()
}

// RunAwake runs the hooks registered for stage in registration order.
// For the Disable stage every hook runs and errors are combined,
// for every other stage the first error stops the remaining hooks.
func (s *Services) RunAwake(ctx context.Context, stage LifeCycle) (err error) {
	for _, h := range s.hooks[stage] {
		hookErr := runHook(ctx, s, h)
		if hookErr == nil {
			continue
		}
		hookErr = fmt.Errorf("awake hook %q (%s): %w", h.name, stage, hookErr)
		if stage != Disable {
			return hookErr
		}
		err = multierr.Append(err, hookErr)
	}
	return err
}

func runHook(ctx context.Context, s *Services, h *hook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.fn(ctx, s)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// failedOf returns a failed erased Getter with source type t.
func failedOf(t reflect.Type, cause error) inst.Getter[any] {
	return inst.Retype(inst.Failed[any](cause), t)
}

// instantOf returns g with source type t.
func instantOf(t reflect.Type, g inst.Getter[any]) inst.Getter[any] {
	return inst.Retype(g, t)
}

// causeOf strips the *inst.ResolutionError added by inst.Resolve.
func causeOf(err error) error {
	var resErr *inst.ResolutionError
	if errors.As(err, &resErr) && resErr.Cause != nil {
		return resErr.Cause
	}
	return err
}
