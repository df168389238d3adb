package cli

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve is a [kong.ConfigurationLoader] reading a YAML mapping of flag
// names to values:
//
//	log-level: debug
//	log-pretty: false
//	generate:
//	  output: ./gen
//
// Nested mappings are flattened with '-' so command flags can be grouped
// by command. Hyphens and underscores are interchangeable in keys.
// Command-line flags override config file values.
func resolve(r io.Reader) (kong.Resolver, error) {
	var doc map[string]any

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	cfg := config{}
	cfg.flatten("", doc)

	return cfg, nil
}

// config implements [kong.Resolver] over a flattened YAML document.
type config map[string]any

func (c config) flatten(prefix string, doc map[string]any) {
	for k, v := range doc {
		key := strings.ReplaceAll(prefix+k, "_", "-")

		if m, ok := v.(map[string]any); ok {
			c.flatten(key+"-", m)

			continue
		}

		c[key] = scalar(v)
	}
}

// scalar converts numbers to strings, which kong parses per flag type.
func scalar(v any) any {
	switch x := v.(type) {
	case uint64:
		return strconv.FormatUint(x, 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			out[i] = toString(e)
		}

		return strings.Join(out, ",")
	}

	return v
}

func toString(v any) string {
	if s, ok := scalar(v).(string); ok {
		return s
	}

	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b)
	}

	return ""
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver]. A command flag is looked up under
// its command path first.
func (c config) Resolve(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
	if parent != nil && parent.Command != nil {
		if v, ok := c[parent.Command.Name+"-"+flag.Name]; ok {
			return v, nil
		}
	}

	if v, ok := c[flag.Name]; ok {
		return v, nil
	}

	return nil, nil //nolint:nilnil
}
