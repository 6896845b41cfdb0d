package module

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"
)

// Kind is the type of a module option.
type Kind int

const (
	KindBool Kind = iota
	KindNumber
	KindChoice
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindChoice:
		return "choice"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Option declares one configurable setting of a module.
type Option struct {
	Name    string
	Kind    Kind
	Default any
	// Choices lists the allowed values of a KindChoice option.
	Choices []string
	// Min and Max bound a KindNumber option when Min < Max.
	Min float64
	Max float64
}

// BoolOption declares a toggle.
func BoolOption(name string, def bool) Option {
	return Option{Name: name, Kind: KindBool, Default: def}
}

// NumberOption declares a numeric setting bounded by [lo, hi].
func NumberOption(name string, def, lo, hi float64) Option {
	return Option{Name: name, Kind: KindNumber, Default: def, Min: lo, Max: hi}
}

// ChoiceOption declares an enumerated setting.
func ChoiceOption(name, def string, choices ...string) Option {
	return Option{Name: name, Kind: KindChoice, Default: def, Choices: choices}
}

// Label is the human readable name of the option.
func (o Option) Label() string {
	return FormatLabel(o.Name)
}

// coerce converts v to the option's type, falling back to the default when it does not fit.
func (o Option) coerce(v any) any {
	switch o.Kind {
	case KindBool:
		if b, ok := v.(bool); ok {
			return b
		}
	case KindNumber:
		if f, ok := toFloat(v); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			if o.Min < o.Max {
				f = math.Max(o.Min, math.Min(o.Max, f))
			}
			return f
		}
	case KindChoice:
		if s, ok := v.(string); ok && slices.Contains(o.Choices, s) {
			return s
		}
	}
	return o.Default
}

func (o Option) validate() error {
	if o.Name == "" {
		return fmt.Errorf("option with empty name")
	}
	switch o.Kind {
	case KindBool:
		if _, ok := o.Default.(bool); !ok {
			return fmt.Errorf("option %q: default %v is not a bool", o.Name, o.Default)
		}
	case KindNumber:
		f, ok := toFloat(o.Default)
		if !ok {
			return fmt.Errorf("option %q: default %v is not a number", o.Name, o.Default)
		}
		if o.Min < o.Max && (f < o.Min || f > o.Max) {
			return fmt.Errorf("option %q: default %v outside [%v, %v]", o.Name, f, o.Min, o.Max)
		}
	case KindChoice:
		s, ok := o.Default.(string)
		if !ok || !slices.Contains(o.Choices, s) {
			return fmt.Errorf("option %q: default %v is not one of %v", o.Name, o.Default, o.Choices)
		}
	default:
		return fmt.Errorf("option %q: unknown kind %v", o.Name, o.Kind)
	}
	return nil
}

// Schema is the ordered option set of a module. An empty schema means the module is not configurable.
type Schema []Option

// Validate checks every option and that names are unique.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, o := range s {
		if err := o.validate(); err != nil {
			return err
		}
		if _, dup := seen[o.Name]; dup {
			return fmt.Errorf("option %q declared twice", o.Name)
		}
		seen[o.Name] = struct{}{}
	}
	return nil
}

// Lookup finds an option by name.
func (s Schema) Lookup(name string) (Option, bool) {
	for _, o := range s {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// Defaults returns the default configuration.
func (s Schema) Defaults() Config {
	cfg := make(Config, len(s))
	for _, o := range s {
		cfg[o.Name] = o.coerce(o.Default)
	}
	return cfg
}

// Normalize merges cfg over the defaults. Unknown keys are dropped and values that do not
// fit their option are replaced by the option default.
func (s Schema) Normalize(cfg Config) Config {
	out := s.Defaults()
	for _, o := range s {
		if v, ok := cfg[o.Name]; ok {
			out[o.Name] = o.coerce(v)
		}
	}
	return out
}

// Config maps option names to values.
type Config map[string]any

// Merge returns a copy of c with other's entries layered on top.
func (c Config) Merge(other Config) Config {
	out := make(Config, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Bool returns the named toggle, false when missing.
func (c Config) Bool(name string) bool {
	b, _ := c[name].(bool)
	return b
}

// Number returns the named number, 0 when missing.
func (c Config) Number(name string) float64 {
	f, _ := toFloat(c[name])
	return f
}

// String returns the named choice, "" when missing.
func (c Config) String(name string) string {
	s, _ := c[name].(string)
	return s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}

// FormatLabel turns an option or choice name such as "starDensity" or "mostly-toast"
// into a display label ("Star Density", "Mostly Toast"). Runs of capitals stay together,
// so "maxHTTPRetries" becomes "Max HTTP Retries".
func FormatLabel(name string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	rs := []rune(name)
	for i, r := range rs {
		switch {
		case r == '-' || r == '_' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if !unicode.IsUpper(prev) || nextLower {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	for i, w := range words {
		wr := []rune(w)
		wr[0] = unicode.ToUpper(wr[0])
		words[i] = string(wr)
	}
	return strings.Join(words, " ")
}
