package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Key is a dot-separated path into Config, such as "ai.breaker.failures",
// checked against the yaml tags of the Config types.
type Key struct {
	Name     string
	Segments []string
	// Secret marks credentials, which `config get` masks.
	Secret bool

	typ reflect.Type
}

// ParseKey resolves name against the Config schema.
func ParseKey(name string) (Key, error) {
	if name == "" {
		return Key{}, &ConfigError{Message: "empty config key"}
	}

	segments := strings.Split(name, ".")
	t := reflect.TypeOf(Config{})
	var field reflect.StructField
	for i, seg := range segments {
		if seg == "" {
			return Key{}, &ConfigError{Message: fmt.Sprintf("config key %q contains an empty segment", name)}
		}
		if t.Kind() != reflect.Struct {
			return Key{}, &ConfigError{Message: fmt.Sprintf("%s is a value, not a section", strings.Join(segments[:i], "."))}
		}
		f, ok := fieldByYAMLName(t, seg)
		if !ok {
			return Key{}, &ConfigError{Message: fmt.Sprintf("unknown config key %q", name)}
		}
		field = f
		t = f.Type
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
	}

	return Key{
		Name:     name,
		Segments: segments,
		Secret:   field.Tag.Get("secret") == "true",
		typ:      t,
	}, nil
}

func fieldByYAMLName(t reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if tag == name {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

// Section reports whether the key names a group of settings.
func (k Key) Section() bool {
	return k.typ.Kind() == reflect.Struct
}

// Coerce converts a command-line argument to the key's type. List values are
// comma separated.
func (k Key) Coerce(s string) (any, error) {
	switch k.typ.Kind() {
	case reflect.Struct:
		return nil, &ConfigError{Message: k.Name + " is a section, set one of its keys instead"}
	case reflect.String:
		return s, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, k.typeError("true or false", s)
		}
		return b, nil
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, k.typeError("an integer", s)
		}
		return int(n), nil
	case reflect.Uint32:
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, k.typeError("a non-negative integer", s)
		}
		return int(n), nil
	case reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, k.typeError("a number", s)
		}
		return f, nil
	case reflect.Slice:
		var items []string
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	}
	return nil, &ConfigError{Message: fmt.Sprintf("%s has unsupported type %s", k.Name, k.typ)}
}

func (k Key) typeError(want, got string) error {
	return &ConfigError{Message: fmt.Sprintf("%s expects %s, got %q", k.Name, want, got)}
}

// Get reads the key from a raw config map.
func (k Key) Get(raw map[string]any) (any, bool) {
	current := any(raw)
	for _, seg := range k.Segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return current, true
}

// Set writes value into a raw config map, creating sections as needed.
func (k Key) Set(raw map[string]any, value any) {
	current := raw
	for _, seg := range k.Segments[:len(k.Segments)-1] {
		next, ok := current[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[seg] = next
		}
		current = next
	}
	current[k.Segments[len(k.Segments)-1]] = value
}

// Unset removes the key from a raw config map and reports whether it was set.
func (k Key) Unset(raw map[string]any) bool {
	current := raw
	for _, seg := range k.Segments[:len(k.Segments)-1] {
		next, ok := current[seg].(map[string]any)
		if !ok {
			return false
		}
		current = next
	}
	last := k.Segments[len(k.Segments)-1]
	if _, ok := current[last]; !ok {
		return false
	}
	delete(current, last)
	return true
}

// Redact masks credentials in v, which is the value stored at k. Sections are
// walked so nested credentials are masked too.
func (k Key) Redact(v any) any {
	if k.Secret {
		if s, ok := v.(string); ok {
			return Mask(s)
		}
		return v
	}
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for name, child := range m {
		if ck, err := ParseKey(k.Name + "." + name); err == nil {
			child = ck.Redact(child)
		}
		out[name] = child
	}
	return out
}

// Mask hides all but a short prefix of a credential. ${VAR} references are
// not secret and are returned as is.
func Mask(s string) string {
	switch {
	case s == "":
		return ""
	case envVarPattern.FindString(s) == s:
		return s
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****"
	}
}

// Decode converts a raw config map into a Config, rejecting unknown keys and
// mistyped values. Defaults are applied; environment overrides are not.
func Decode(raw map[string]any) (Config, error) {
	cfg := Defaults()

	data, err := yaml.Marshal(raw)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, &ConfigError{Message: err.Error()}
	}

	applyDefaults(&cfg)
	return cfg, nil
}
