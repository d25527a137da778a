package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/errors"
	"github.com/wippyai/polyglot/inspect"
	"github.com/wippyai/polyglot/iterator"
	"github.com/wippyai/polyglot/traits"
)

// Options configures a Bridge.
type Options struct {
	Registry *traits.Registry
	Logger   *zap.Logger
}

// DefaultOptions uses the process-wide trait registry and a no-op logger.
func DefaultOptions() Options {
	return Options{
		Registry: traits.Default(),
		Logger:   zap.NewNop(),
	}
}

// Bridge exposes the values of one foreign runtime as proxies, descriptions
// and iterators. Safe for concurrent use if the oracle is.
type Bridge struct {
	oracle    polyglot.Oracle
	registry  *traits.Registry
	inspector *inspect.Inspector
	logger    *zap.Logger
}

// New creates a bridge over an oracle.
func New(o polyglot.Oracle, opts Options) *Bridge {
	def := DefaultOptions()
	if opts.Registry == nil {
		opts.Registry = def.Registry
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	b := &Bridge{
		oracle:   o,
		registry: opts.Registry,
		logger:   opts.Logger,
	}
	b.inspector = inspect.New(o, inspect.Options{Labeler: b})
	return b
}

// Oracle returns the oracle this bridge queries.
func (b *Bridge) Oracle() polyglot.Oracle {
	return b.oracle
}

// Registry returns the trait registry classes are resolved against.
func (b *Bridge) Registry() *traits.Registry {
	return b.registry
}

// Classify lists the traits v exposes, in canonical order.
func (b *Bridge) Classify(v polyglot.Value) []string {
	o := b.oracle
	var names []string
	if o.IsHostMap(v) {
		names = append(names, traits.TraitMap)
	}
	if o.HasArrayElements(v) {
		names = append(names, traits.TraitArray)
	}
	if o.IsExecutable(v) {
		names = append(names, traits.TraitExecutable)
	}
	if o.HasIterator(v) {
		names = append(names, traits.TraitIterable)
	}
	if o.IsClass(v) {
		names = append(names, traits.TraitMetaObject)
	}
	if o.IsPointer(v) {
		names = append(names, traits.TraitPointer)
	}
	if o.IsString(v) {
		names = append(names, traits.TraitString)
	}
	if p, ok := o.(polyglot.PrimitiveOracle); ok {
		switch {
		case p.IsNumber(v):
			names = append(names, traits.TraitNumber)
		case p.IsBoolean(v):
			names = append(names, traits.TraitBoolean)
		case p.IsNull(v):
			names = append(names, traits.TraitNull)
		}
	}
	return names
}

// ClassOf resolves the composite class for v's capabilities.
func (b *Bridge) ClassOf(v polyglot.Value) (*traits.Class, error) {
	return b.registry.Resolve(b.Classify(v)...)
}

// Label implements inspect.Labeler with the class name of v.
func (b *Bridge) Label(v polyglot.Value) (string, error) {
	c, err := b.ClassOf(v)
	if err != nil {
		return "", err
	}
	return c.Name(), nil
}

// Wrap binds v to its class.
func (b *Bridge) Wrap(v polyglot.Value) (*traits.Proxy, error) {
	c, err := b.ClassOf(v)
	if err != nil {
		return nil, errors.New(errors.PhaseBridge, errors.KindUnknownTrait).
			Detail("resolve class for %T", v).
			Cause(err).
			Build()
	}
	b.logger.Debug("wrapped foreign value",
		zap.String("class", c.Name()),
		zap.Uint64("identity", b.oracle.IdentityHash(v)),
	)
	return traits.NewProxy(c, b.oracle, v), nil
}

// Describe renders v. See inspect.Inspector.Describe.
func (b *Bridge) Describe(v polyglot.Value) (string, error) {
	return b.inspector.Describe(v)
}

// Shallow renders v one level deep. See inspect.Inspector.Shallow.
func (b *Bridge) Shallow(v polyglot.Value) (string, error) {
	return b.inspector.Shallow(v)
}

// Iterator obtains a lookahead iterator over v's enumeration.
func (b *Bridge) Iterator(v polyglot.Value) (*iterator.Iterator, error) {
	return iterator.New(b.oracle, v)
}
