// Package inst holds the outcome of resolving a typed singleton instance.
//
// A Getter is either a success holding the resolved instance or a failure
// holding the cause that prevented its construction. Callers do not need to
// know which: Get returns false for a failure and the cause is reported to
// the package logger each time it is accessed.
package inst

import (
	"fmt"
	"reflect"

	"github.com/go-logr/logr"
)

// Getter is the result of an attempt to obtain an instance of T.
// The zero value is a failure without a cause.
type Getter[T any] struct {
	source reflect.Type
	value  T
	ok     bool // set by Instant only
	err    *ResolutionError
	log    *logr.Logger // overrides the package logger if set
}

// Instant returns a Getter that always returns v.
func Instant[T any](v T) Getter[T] {
	return Getter[T]{source: typeOf[T](), value: v, ok: true}
}

// Failed returns a Getter that never returns an instance
// and reports cause each time Get is called.
func Failed[T any](cause error) Getter[T] {
	t := typeOf[T]()
	return Getter[T]{source: t, err: &ResolutionError{Type: t, Cause: cause}}
}

// Resolve runs fn and returns a Getter for its outcome.
// A returned error or a panic inside fn results in a failed Getter.
func Resolve[T any](fn func() (T, error)) (g Getter[T]) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", r)
			}
			g = Failed[T](err)
		}
	}()
	v, err := fn()
	if err != nil {
		return Failed[T](err)
	}
	return Instant(v)
}

// Get returns the instance and true if resolution succeeded.
// Otherwise it returns the zero value and false and logs the
// ResolutionError. Every call on a failed Getter logs again.
func (g Getter[T]) Get() (T, bool) {
	if g.ok {
		return g.value, true
	}
	g.logger().Error(g.failure(), "Exception getting an instance", "type", g.typeName())
	var zero T
	return zero, false
}

// OK reports whether resolution succeeded.
func (g Getter[T]) OK() bool { return g.ok }

// Err returns nil on success or the *ResolutionError of a failed Getter.
// Unlike Get it has no side effect.
func (g Getter[T]) Err() error {
	if g.ok {
		return nil
	}
	return g.failure()
}

// failure returns the ResolutionError of a failed Getter,
// one without a cause for the zero value.
func (g Getter[T]) failure() *ResolutionError {
	if g.err != nil {
		return g.err
	}
	return &ResolutionError{Type: g.Source()}
}

// Source returns the type the Getter resolves.
func (g Getter[T]) Source() reflect.Type {
	if g.source == nil {
		return typeOf[T]()
	}
	return g.source
}

// WithLogger returns a copy of g reporting failures to log
// instead of the package logger.
func (g Getter[T]) WithLogger(log logr.Logger) Getter[T] {
	g.log = &log
	return g
}

func (g Getter[T]) String() string {
	if g.ok {
		return fmt.Sprintf("Instant[%s]", g.typeName())
	}
	return fmt.Sprintf("Failed[%s](%v)", g.typeName(), g.failure().Cause)
}

func (g Getter[T]) typeName() string {
	if t := g.Source(); t != nil {
		return t.String()
	}
	return "<nil>"
}

func (g Getter[T]) logger() logr.Logger {
	if g.log != nil {
		return *g.log
	}
	return Log()
}

// typeOf returns the reflect.Type of T, including interface types.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Erase converts g into a Getter of any, keeping its source type and outcome.
func Erase[T any](g Getter[T]) Getter[any] {
	out := Getter[any]{source: g.Source(), log: g.log}
	if !g.ok {
		out.err = g.failure()
		return out
	}
	out.value, out.ok = g.value, true
	return out
}

// Assert converts an erased Getter back into a Getter of T.
// It fails if g holds a value that is not a T.
func Assert[T any](g Getter[any]) Getter[T] {
	if !g.ok {
		return Getter[T]{source: g.source, err: g.failure(), log: g.log}
	}
	v, ok := g.value.(T)
	if !ok && g.value != nil {
		return Failed[T](fmt.Errorf("%w: have %T", ErrTypeMismatch, g.value))
	}
	return Getter[T]{source: typeOf[T](), value: v, ok: true, log: g.log}
}

// Retype returns g reporting t as its source type.
// It is used by registries holding erased Getters of many types.
func Retype(g Getter[any], t reflect.Type) Getter[any] {
	if !g.ok {
		g.err = &ResolutionError{Type: t, Cause: g.failure().Cause}
	}
	g.source = t
	return g
}
