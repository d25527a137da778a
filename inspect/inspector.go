package inspect

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/errors"
	"github.com/wippyai/polyglot/traits"
)

// Labeler names the host-side class of a foreign value.
type Labeler interface {
	Label(v polyglot.Value) (string, error)
}

// LabelFunc adapts a function to Labeler.
type LabelFunc func(v polyglot.Value) (string, error)

func (f LabelFunc) Label(v polyglot.Value) (string, error) { return f(v) }

// StaticLabel labels every value with the same name.
func StaticLabel(name string) Labeler {
	return LabelFunc(func(polyglot.Value) (string, error) { return name, nil })
}

// Options configures an Inspector.
type Options struct {
	Labeler Labeler
}

// DefaultOptions labels every value as the base foreign class.
func DefaultOptions() Options {
	return Options{
		Labeler: StaticLabel(traits.BaseClassName),
	}
}

// Inspector renders foreign values as text. It keeps no state between
// calls and is safe for concurrent use if the oracle is.
type Inspector struct {
	oracle polyglot.Oracle
	labels Labeler
}

// New creates an inspector over an oracle.
func New(o polyglot.Oracle, opts Options) *Inspector {
	if opts.Labeler == nil {
		opts.Labeler = DefaultOptions().Labeler
	}
	return &Inspector{oracle: o, labels: opts.Labeler}
}

// Describe renders v as
//
//	#<Label[lang] meta 0xADDR [e1, e2]>      pointer with array elements
//	#<Label:0xHASH {k=>v} proc>             executable host map, with or
//	                                        without array elements
//	#<Label:0xHASH a=1, b="x">              object with readable members
//	#<Label class pkg.Name>                 class object
//
// Nested values are rendered with Shallow only, so the output never expands
// more than one container level.
func (in *Inspector) Describe(v polyglot.Value) (string, error) {
	o := in.oracle
	v = o.Unbox(v)

	hash := "0x" + strconv.FormatUint(o.IdentityHash(v), 16)

	label, err := in.label(v)
	if err != nil {
		return "", err
	}

	if o.IsClass(v) {
		name, err := o.ClassName(v)
		if err != nil {
			return "", errors.Oracle(errors.PhaseInspect, []string{"class"}, err)
		}
		return "#<" + label + " class " + name + ">", nil
	}

	var b strings.Builder
	b.WriteString("#<")
	b.WriteString(label)

	if o.HasMetaObject(v) {
		meta, err := o.MetaObject(v)
		if err != nil {
			return "", errors.Oracle(errors.PhaseInspect, []string{"meta"}, err)
		}
		name, err := o.MetaQualifiedName(meta)
		if err != nil {
			return "", errors.Oracle(errors.PhaseInspect, []string{"meta"}, err)
		}
		b.WriteByte(' ')
		b.WriteString(name)
	}

	if o.IsPointer(v) {
		addr, err := o.AsPointer(v)
		if err != nil {
			return "", errors.Oracle(errors.PhaseInspect, []string{"pointer"}, err)
		}
		b.WriteString(" 0x")
		b.WriteString(strconv.FormatUint(addr, 16))
	} else {
		b.WriteByte(':')
		b.WriteString(hash)
	}

	// a host map that also has array elements renders as a map
	switch {
	case o.IsHostMap(v):
		if err := in.writeEntries(&b, v); err != nil {
			return "", err
		}
	case o.HasArrayElements(v):
		if err := in.writeElements(&b, v); err != nil {
			return "", err
		}
	case o.HasMembers(v):
		if err := in.writeMembers(&b, v); err != nil {
			return "", err
		}
	}

	if o.IsExecutable(v) {
		b.WriteString(" proc")
	}

	b.WriteByte('>')
	return b.String(), nil
}

func (in *Inspector) label(v polyglot.Value) (string, error) {
	label, err := in.labels.Label(v)
	if err != nil {
		return "", errors.New(errors.PhaseInspect, errors.KindOracleFailure).
			Path("label").
			Detail("resolve class label").
			Cause(err).
			Build()
	}
	if lang, ok := in.oracle.Language(v); ok {
		label += "[" + lang + "]"
	}
	return label, nil
}

func (in *Inspector) writeElements(b *strings.Builder, v polyglot.Value) error {
	n, err := in.oracle.ArraySize(v)
	if err != nil {
		return errors.Oracle(errors.PhaseInspect, []string{"elements"}, err)
	}
	b.WriteString(" [")
	for i := 0; i < n; i++ {
		e, err := in.oracle.ArrayElement(v, i)
		if err != nil {
			return errors.Oracle(errors.PhaseInspect, []string{"elements", strconv.Itoa(i)}, err)
		}
		s, err := in.Shallow(e)
		if err != nil {
			return err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s)
	}
	b.WriteByte(']')
	return nil
}

func (in *Inspector) writeEntries(b *strings.Builder, v polyglot.Value) error {
	entries, err := in.oracle.HostMapEntries(v)
	if err != nil {
		return errors.Oracle(errors.PhaseInspect, []string{"entries"}, err)
	}
	b.WriteString(" {")
	for i, e := range entries {
		k, err := in.Shallow(e.Key)
		if err != nil {
			return err
		}
		val, err := in.Shallow(e.Value)
		if err != nil {
			return err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString("=>")
		b.WriteString(val)
	}
	b.WriteByte('}')
	return nil
}

// writeMembers appends the readable members; nothing when there are none.
func (in *Inspector) writeMembers(b *strings.Builder, v polyglot.Value) error {
	names, err := in.oracle.Members(v)
	if err != nil {
		return errors.Oracle(errors.PhaseInspect, []string{"members"}, err)
	}
	first := true
	for _, name := range names {
		if !in.oracle.IsMemberReadable(v, name) {
			continue
		}
		mv, err := in.oracle.ReadMember(v, name)
		if err != nil {
			return errors.Oracle(errors.PhaseInspect, []string{"members", name}, err)
		}
		s, err := in.Shallow(mv)
		if err != nil {
			return err
		}
		if first {
			b.WriteByte(' ')
			first = false
		} else {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(s)
	}
	return nil
}

// Shallow renders v one step deep: strings quoted, containers as a fixed
// placeholder, anything else in its primitive form. It never calls Describe.
func (in *Inspector) Shallow(v polyglot.Value) (string, error) {
	o := in.oracle
	switch {
	case o.IsString(v):
		s, err := o.AsString(v)
		if err != nil {
			return "", errors.Oracle(errors.PhaseInspect, []string{"string"}, err)
		}
		return strconv.Quote(s), nil
	case o.IsHostMap(v):
		return "{...}", nil
	case o.HasArrayElements(v):
		return "[...]", nil
	case o.HasMembers(v):
		return "{...}", nil
	}
	if s, ok := o.Format(v); ok {
		return s, nil
	}
	return in.Placeholder(v), nil
}

// Placeholder renders v without looking inside it. Values that are not
// containers get a diagnostic marker carrying their identity and origin;
// reaching that branch means the oracle classified v inconsistently.
func (in *Inspector) Placeholder(v polyglot.Value) string {
	o := in.oracle
	if o.IsHostMap(v) {
		return "{...}"
	}
	if o.HasArrayElements(v) {
		return "[...]"
	}
	if o.HasMembers(v) {
		return "{...}"
	}

	hash := "0x" + strconv.FormatUint(o.IdentityHash(v), 16)
	origin := "Foreign"
	if lang, ok := o.Language(v); ok {
		origin = lang
	}
	Logger().Debug("foreign value has no primitive form",
		zap.String("origin", origin),
		zap.String("identity", hash),
	)
	return "<" + origin + ":" + hash + " ...>"
}
