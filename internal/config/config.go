package config

// Prefix is the key prefix every demo property is bound under.
const Prefix = "demo"

// DefaultSourceName is reported as the origin of values nobody supplied.
const DefaultSourceName = "default"

const defaultFoo = "bar"

// binding maps a record field to its key below Prefix and the value used when no
// source supplies it.
type binding struct {
	field    string
	name     string
	fallback string
	assign   func(*Record, string)
}

var bindings = []binding{
	{
		field:    "foo",
		name:     "foo",
		fallback: defaultFoo,
		assign:   func(r *Record, v string) { r.foo = v },
	},
}

// Record is the resolved demo configuration. It has no setters; copies are safe
// to share between goroutines.
type Record struct {
	foo string
}

// Foo returns the resolved demo.foo value.
func (r Record) Foo() string {
	return r.foo
}

// Resolution describes where a bound key got its value from.
type Resolution struct {
	Field  string
	Key    string
	Value  string
	Source string
}

// Defaulted reports whether no source supplied the key.
func (r Resolution) Defaulted() bool {
	return r.Source == DefaultSourceName
}

// Load resolves the record from sources ordered highest precedence first.
func Load(sources ...Source) Record {
	var rec Record
	for i, res := range Explain(sources...) {
		bindings[i].assign(&rec, res.Value)
	}
	return rec
}

// Explain resolves every bound key and reports the winning source for each.
func Explain(sources ...Source) []Resolution {
	view := NewView(Prefix, sources...)
	out := make([]Resolution, 0, len(bindings))
	for _, b := range bindings {
		res := Resolution{
			Field:  b.field,
			Key:    view.Key(b.name),
			Value:  b.fallback,
			Source: DefaultSourceName,
		}
		if value, origin, ok := view.Lookup(b.name); ok {
			res.Value = value
			res.Source = origin
		}
		out = append(out, res)
	}
	return out
}

// Keys lists the fully qualified keys the record binds.
func Keys() []string {
	keys := make([]string, 0, len(bindings))
	for _, b := range bindings {
		keys = append(keys, withDottedPrefix(Prefix, b.name))
	}
	return keys
}
