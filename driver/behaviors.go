package driver

import (
	"fmt"
	"sort"
	"time"
)

// Behaviors is the tunable map forwarded verbatim from configuration to a
// driver. Keys are driver-defined; softmc never interprets them. Values are
// loosely typed because they usually arrive from decoded config files.
type Behaviors map[string]any

// Duration reads name as a time.Duration. Accepts a time.Duration, an int
// (seconds) or a string in time.ParseDuration syntax.
func (b Behaviors) Duration(name string) (time.Duration, bool, error) {
	v, ok := b[name]
	if !ok {
		return 0, false, nil
	}
	switch t := v.(type) {
	case time.Duration:
		return t, true, nil
	case int:
		return time.Duration(t) * time.Second, true, nil
	case int64:
		return time.Duration(t) * time.Second, true, nil
	case string:
		d, err := time.ParseDuration(t)
		if err != nil {
			return 0, false, fmt.Errorf("behavior %q: %w", name, err)
		}
		return d, true, nil
	default:
		return 0, false, fmt.Errorf("behavior %q: want duration, got %T", name, v)
	}
}

// Int reads name as an int.
func (b Behaviors) Int(name string) (int, bool, error) {
	v, ok := b[name]
	if !ok {
		return 0, false, nil
	}
	switch t := v.(type) {
	case int:
		return t, true, nil
	case int64:
		return int(t), true, nil
	case uint:
		return int(t), true, nil
	default:
		return 0, false, fmt.Errorf("behavior %q: want int, got %T", name, v)
	}
}

// Bool reads name as a bool.
func (b Behaviors) Bool(name string) (bool, bool, error) {
	v, ok := b[name]
	if !ok {
		return false, false, nil
	}
	t, ok := v.(bool)
	if !ok {
		return false, false, fmt.Errorf("behavior %q: want bool, got %T", name, v)
	}
	return t, true, nil
}

// Unknown returns the behavior names not present in known, sorted.
// Drivers reject unknown names instead of silently ignoring them.
func (b Behaviors) Unknown(known ...string) []string {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	var out []string
	for k := range b {
		if _, ok := set[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
