package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/samber/do"
)

// Factory builds a service. It may resolve its own dependencies from c.
// Factories must not depend on themselves, directly or through others.
type Factory func(ctx context.Context, c *Container) (any, error)

type kind int

const (
	kindShared kind = iota
	kindFactory
	kindValue
)

// instance is what the injector holds for every name. Shared instances
// close their value on shutdown.
type instance struct {
	value   any
	factory Factory
	owner   *Container
	kind    kind
}

func (in *instance) Shutdown() error {
	if in.kind != kindShared {
		return nil
	}
	if cl, ok := in.value.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			in.owner.closeErrs = append(in.owner.closeErrs, err)
		}
	}
	return nil
}

// Container is a name to service registry over a samber/do injector.
// Shared services are built once on first Get; factories build a new
// instance on every Get; values are returned as registered.
type Container struct {
	injector  *do.Injector
	kinds     map[string]kind
	order     []string
	building  sync.Map // name -> context.Context of the Get building it
	closeErrs []error
	mu        sync.RWMutex
}

// New creates an empty container.
func New() *Container {
	return &Container{
		injector: do.New(),
		kinds:    make(map[string]kind),
	}
}

// Set registers a shared service built once by f.
func (c *Container) Set(name string, f Factory) {
	c.register(name, kindShared)
	do.OverrideNamed(c.injector, name, func(*do.Injector) (*instance, error) {
		ctx, ok := c.building.Load(name)
		if !ok {
			ctx = context.Background()
		}
		v, err := f(ctx.(context.Context), c)
		if err != nil {
			return nil, err
		}
		return &instance{value: v, owner: c, kind: kindShared}, nil
	})
}

// Factory registers f to build a new instance on every Get.
func (c *Container) Factory(name string, f Factory) {
	c.register(name, kindFactory)
	do.OverrideNamedValue(c.injector, name, &instance{factory: f, owner: c, kind: kindFactory})
}

// Value registers a ready value.
func (c *Container) Value(name string, v any) {
	c.register(name, kindValue)
	do.OverrideNamedValue(c.injector, name, &instance{value: v, owner: c, kind: kindValue})
}

func (c *Container) register(name string, k kind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.kinds[name]; !ok {
		c.order = append(c.order, name)
	}
	c.kinds[name] = k
}

// Has reports whether name is registered.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.kinds[name]
	return ok
}

// Names returns registered names in registration order.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Get resolves a service by name. A shared service is built with the
// context of the first Get that needs it.
func (c *Container) Get(ctx context.Context, name string) (any, error) {
	if !c.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	c.building.Store(name, ctx)
	in, err := do.InvokeNamed[*instance](c.injector, name)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %q", ErrResolve, name), err)
	}

	if in.kind == kindFactory {
		v, err := in.factory(ctx, c)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("%w: %q", ErrResolve, name), err)
		}
		return v, nil
	}
	return in.value, nil
}

// MustGet is like Get but panics on error.
func (c *Container) MustGet(ctx context.Context, name string) any {
	v, err := c.Get(ctx, name)
	if err != nil {
		panic(err)
	}
	return v
}

// Resolve returns a service converted to T.
func Resolve[T any](ctx context.Context, c *Container, name string) (T, error) {
	var zero T
	v, err := c.Get(ctx, name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T", ErrTypeMismatch, name, v)
	}
	return typed, nil
}

// Close shuts the injector down, closing every built shared service that
// implements io.Closer. Services close in reverse build order, so a service
// closes before the dependencies it resolved. Its signature fits shutdown hooks.
func (c *Container) Close(_ context.Context) error {
	c.closeErrs = nil
	if err := c.injector.Shutdown(); err != nil {
		return err
	}
	return errors.Join(c.closeErrs...)
}
