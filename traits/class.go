package traits

import (
	"sort"

	"github.com/wippyai/polyglot"
)

// BaseClassName is the name of the class every composite class derives from.
const BaseClassName = "ForeignObject"

// Method is one capability operation a class answers.
type Method func(p *Proxy, args ...polyglot.Value) (polyglot.Value, error)

// Trait names a capability and carries the methods it contributes.
type Trait struct {
	Methods map[string]Method
	Name    string
}

// Class is a composite proxy type for one ordered trait combination.
// Immutable once built.
type Class struct {
	methods map[string]Method
	owners  map[string]string
	name    string
	key     string
	traits  []string
}

func newBaseClass(base Trait) *Class {
	c := &Class{
		methods: make(map[string]Method, len(base.Methods)),
		owners:  make(map[string]string, len(base.Methods)),
		name:    BaseClassName,
	}
	for name, m := range base.Methods {
		c.methods[name] = m
		c.owners[name] = BaseClassName
	}
	return c
}

// compose derives a class from base. Traits are applied in reverse of the
// given order, so on overlapping method names the first-listed trait wins.
func compose(base *Class, key string, names []string, defs []Trait) *Class {
	c := &Class{
		methods: make(map[string]Method, len(base.methods)),
		owners:  make(map[string]string, len(base.owners)),
		name:    "Foreign" + key,
		key:     key,
		traits:  append([]string(nil), names...),
	}
	for name, m := range base.methods {
		c.methods[name] = m
		c.owners[name] = base.owners[name]
	}
	for i := len(defs) - 1; i >= 0; i-- {
		for name, m := range defs[i].Methods {
			c.methods[name] = m
			c.owners[name] = defs[i].Name
		}
	}
	return c
}

// Name returns the class name, "Foreign" followed by the canonical key.
func (c *Class) Name() string { return c.name }

// Key returns the canonical trait combination key. Empty for the base class.
func (c *Class) Key() string { return c.key }

// Traits returns the trait names in the order they were requested.
func (c *Class) Traits() []string {
	return append([]string(nil), c.traits...)
}

// IsBase reports whether c is the base foreign class.
func (c *Class) IsBase() bool { return c.key == "" }

// Method looks up a method by name.
func (c *Class) Method(name string) (Method, bool) {
	m, ok := c.methods[name]
	return m, ok
}

// Owner returns the trait that provides a method, or BaseClassName.
func (c *Class) Owner(name string) (string, bool) {
	o, ok := c.owners[name]
	return o, ok
}

// Methods returns all method names, sorted.
func (c *Class) Methods() []string {
	names := make([]string, 0, len(c.methods))
	for name := range c.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ancestors lists the lookup chain from the class itself to the base class.
func (c *Class) Ancestors() []string {
	if c.IsBase() {
		return []string{c.name}
	}
	out := make([]string, 0, len(c.traits)+2)
	out = append(out, c.name)
	out = append(out, c.traits...)
	return append(out, BaseClassName)
}

// String returns the class name.
func (c *Class) String() string { return c.name }
