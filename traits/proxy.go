package traits

import (
	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/errors"
)

// Proxy binds a foreign value to the class resolved for its capabilities.
type Proxy struct {
	class  *Class
	oracle polyglot.Oracle
	value  polyglot.Value
}

// NewProxy creates a proxy. The caller picks the class; use the bridge
// package to derive it from the value's capabilities.
func NewProxy(c *Class, o polyglot.Oracle, v polyglot.Value) *Proxy {
	return &Proxy{class: c, oracle: o, value: v}
}

func (p *Proxy) Class() *Class { return p.class }

func (p *Proxy) Oracle() polyglot.Oracle { return p.oracle }

func (p *Proxy) Value() polyglot.Value { return p.value }

// RespondsTo reports whether the proxy's class answers name.
func (p *Proxy) RespondsTo(name string) bool {
	_, ok := p.class.Method(name)
	return ok
}

// Call dispatches a method through the class's method table.
func (p *Proxy) Call(name string, args ...polyglot.Value) (polyglot.Value, error) {
	m, ok := p.class.Method(name)
	if !ok {
		return nil, errors.NoMethod(p.class.Name(), name)
	}
	return m(p, args...)
}
