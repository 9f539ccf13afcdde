package trainconfig

import (
	"github.com/compozy/traincfg/pkg/document"
)

// Policy decides what happens when a rule's field is missing or present.
type Policy int

const (
	// Optional fields are filled with a default when missing.
	Optional Policy = iota
	// Required fields abort normalization when missing.
	Required
	// Retired fields abort normalization when present.
	Retired
)

func (p Policy) String() string {
	switch p {
	case Required:
		return "required"
	case Retired:
		return "retired"
	default:
		return "optional"
	}
}

// Presence decides whether a value found under a rule's key counts as set.
type Presence int

const (
	// NonNull treats a key holding null the same as a missing key.
	NonNull Presence = iota
	// Truthy also treats false, zero and empty values as missing.
	Truthy
)

// Rule governs one top-level field of the configuration.
//
// Rules run in table order. A present value goes through Coerce and then
// Check; a missing optional value is replaced by Default and left alone.
type Rule struct {
	Key      string
	Policy   Policy
	Presence Presence
	// Aliases are legacy names consulted, in order, before Key. A value found
	// under an alias is moved to Key.
	Aliases []string
	// Derived lists extra keys that receive a copy of the final value.
	Derived []string
	// Deprecated, when set, is reported whenever the field is supplied.
	Deprecated string
	// Missing is the reason reported when a required field is absent, or
	// when a retired field is present.
	Missing       string
	Default       func(cfg *document.Map) any
	DefaultNotice string
	Coerce        Coercer
	Check         func(n *normalization, v any) (any, error)
}

// lookup finds the value for r, returning the key it was found under.
func (r Rule) lookup(cfg *document.Map) (value any, key string, found bool) {
	for _, k := range append(append([]string{}, r.Aliases...), r.Key) {
		v, ok := cfg.Get(k)
		if !ok {
			continue
		}
		if v == nil {
			continue
		}
		if r.Presence == Truthy && !document.Truthy(v) {
			continue
		}
		return v, k, true
	}
	return nil, "", false
}

func (n *normalization) apply(r Rule) error {
	if r.Policy == Retired {
		if document.Has(n.cfg, r.Key) {
			return &FieldError{Field: r.Key, Reason: r.Missing, Kind: ErrRetiredField}
		}
		return nil
	}

	value, foundKey, found := r.lookup(n.cfg)
	if !found {
		if r.Policy == Required {
			return missingField(r.Key, r.Missing)
		}
		var def any
		if r.Default != nil {
			def = r.Default(n.cfg)
		}
		msg := r.DefaultNotice
		if msg == "" {
			msg = "using default " + r.Key
		}
		n.notice(NoticeDefault, r.Key, msg, def)
		n.set(r, def)
		return nil
	}

	if r.Deprecated != "" {
		n.notice(NoticeDeprecated, foundKey, r.Deprecated, value)
	}
	if r.Coerce != nil {
		coerced, err := r.Coerce(value)
		if err != nil {
			return invalidValue(foundKey, "cannot be coerced", err)
		}
		value = coerced
	}
	if r.Check != nil {
		checked, err := r.Check(n, value)
		if err != nil {
			return err
		}
		value = checked
	}
	n.set(r, value)
	return nil
}

func (n *normalization) set(r Rule, value any) {
	for _, alias := range r.Aliases {
		n.cfg.Delete(alias)
	}
	n.cfg.Set(r.Key, value)
	for _, derived := range r.Derived {
		n.cfg.Set(derived, document.Clone(value))
	}
}
