package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value is one configuration entry: a canonical scalar string, or an
// ordered list of canonical strings for vector options (one per
// filament/extruder slot).
type Value struct {
	Type   OptionType
	Scalar string
	List   []string
}

func (v Value) clone() Value {
	if v.List == nil {
		return v
	}
	list := make([]string, len(v.List))
	copy(list, v.List)
	return Value{Type: v.Type, List: list}
}

// ParseError reports a value that could not be deserialized under its
// registered option type, or a key outside the option registry.
type ParseError struct {
	Key     string
	Value   string
	Message string
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config key %q: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("config key %q value %q: %s", e.Key, e.Value, e.Message)
}

// Config is the session's resolved configuration: an option-key to value
// mapping built by layering defaults, presets, and individual overrides.
// Last write wins per key. Not safe for concurrent mutation; each session
// owns its config exclusively.
type Config struct {
	values map[string]Value
}

// New creates an empty configuration.
func New() *Config {
	return &Config{values: make(map[string]Value)}
}

// Len returns the number of keys present.
func (c *Config) Len() int {
	return len(c.values)
}

// Has reports whether a key is present.
func (c *Config) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Keys returns all present keys in sorted order. Sorted order is the
// engine's key iteration order for serialization.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetDeserialize parses a raw string under the key's registered type and
// stores its canonical form. An unknown key or a malformed value returns
// a *ParseError and leaves the configuration unchanged.
func (c *Config) SetDeserialize(key, raw string) error {
	t, ok := TypeOf(key)
	if !ok {
		return &ParseError{Key: key, Message: "unknown configuration key"}
	}
	val, err := deserialize(key, t, raw)
	if err != nil {
		return err
	}
	c.values[key] = val
	return nil
}

// Apply copies every entry of other into c, overwriting existing keys.
// Nil is a no-op.
func (c *Config) Apply(other *Config) {
	if other == nil {
		return
	}
	for k, v := range other.values {
		c.values[k] = v.clone()
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := New()
	out.Apply(c)
	return out
}

// Get returns the stored value for a key.
func (c *Config) Get(key string) (Value, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Float returns a scalar option as float64. Percent options return the
// numeric part.
func (c *Config) Float(key string) (float64, bool) {
	v, ok := c.values[key]
	if !ok || v.Type.Vector() {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v.Scalar, "%"), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FloatAt returns element i of a float-vector option. Following the
// engine's per-extruder convention, a shorter vector repeats its last
// element; a missing or empty option returns def.
func (c *Config) FloatAt(key string, i int, def float64) float64 {
	v, ok := c.values[key]
	if !ok || !v.Type.Vector() || len(v.List) == 0 {
		return def
	}
	if i >= len(v.List) {
		i = len(v.List) - 1
	}
	f, err := strconv.ParseFloat(v.List[i], 64)
	if err != nil {
		return def
	}
	return f
}

// String returns a scalar option's canonical string form.
func (c *Config) String(key string) (string, bool) {
	v, ok := c.values[key]
	if !ok || v.Type.Vector() {
		return "", false
	}
	return v.Scalar, true
}

// Points returns a points option as XY pairs.
func (c *Config) Points(key string) ([][2]float64, bool) {
	v, ok := c.values[key]
	if !ok || v.Type != TypePoints {
		return nil, false
	}
	pts, err := parsePoints(v.Scalar)
	if err != nil {
		return nil, false
	}
	return pts, true
}

// deserialize validates raw under t and returns the canonical value.
func deserialize(key string, t OptionType, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	fail := func(msg string) (Value, error) {
		return Value{}, &ParseError{Key: key, Value: raw, Message: msg}
	}

	switch t {
	case TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fail("not a number")
		}
		return Value{Type: t, Scalar: formatFloat(f)}, nil

	case TypeInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fail("not an integer")
		}
		return Value{Type: t, Scalar: strconv.Itoa(n)}, nil

	case TypeBool:
		b, err := parseBool(raw)
		if err != nil {
			return fail("not a boolean")
		}
		return Value{Type: t, Scalar: formatBool(b)}, nil

	case TypePercent:
		trimmed := strings.TrimSuffix(raw, "%")
		f, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
		if err != nil {
			return fail("not a percentage")
		}
		return Value{Type: t, Scalar: formatFloat(f) + "%"}, nil

	case TypeString:
		return Value{Type: t, Scalar: raw}, nil

	case TypePoints:
		pts, err := parsePoints(raw)
		if err != nil {
			return fail(err.Error())
		}
		return Value{Type: t, Scalar: formatPoints(pts)}, nil

	case TypeFloats, TypeInts, TypeBools, TypeStrings:
		parts := splitVector(raw)
		list := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			switch t {
			case TypeFloats:
				f, err := strconv.ParseFloat(p, 64)
				if err != nil {
					return fail("not a number list")
				}
				list = append(list, formatFloat(f))
			case TypeInts:
				n, err := strconv.Atoi(p)
				if err != nil {
					return fail("not an integer list")
				}
				list = append(list, strconv.Itoa(n))
			case TypeBools:
				b, err := parseBool(p)
				if err != nil {
					return fail("not a boolean list")
				}
				list = append(list, formatBool(b))
			case TypeStrings:
				list = append(list, p)
			}
		}
		return Value{Type: t, List: list}, nil
	}
	return fail("unhandled option type")
}

// SetList stores a pre-split vector value, validating each element.
// Used by the preset catalog, whose profile files carry vectors as JSON
// arrays rather than comma-joined strings.
func (c *Config) SetList(key string, elems []string) error {
	t, ok := TypeOf(key)
	if !ok {
		return &ParseError{Key: key, Message: "unknown configuration key"}
	}
	if !t.Vector() {
		return &ParseError{Key: key, Message: "not a vector option"}
	}
	val, err := deserialize(key, t, strings.Join(elems, ","))
	if err != nil {
		return err
	}
	c.values[key] = val
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// parsePoints parses "0x0,256x0,256x256,0x256" into XY pairs.
func parsePoints(s string) ([][2]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty point list")
	}
	parts := strings.Split(s, ",")
	pts := make([][2]float64, 0, len(parts))
	for _, part := range parts {
		xy := strings.SplitN(strings.TrimSpace(part), "x", 2)
		if len(xy) != 2 {
			return nil, fmt.Errorf("invalid point %q", part)
		}
		x, err := strconv.ParseFloat(xy[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point %q", part)
		}
		y, err := strconv.ParseFloat(xy[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point %q", part)
		}
		pts = append(pts, [2]float64{x, y})
	}
	return pts, nil
}

func formatPoints(pts [][2]float64) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = formatFloat(p[0]) + "x" + formatFloat(p[1])
	}
	return strings.Join(parts, ",")
}

func splitVector(s string) []string {
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, ",")
}
