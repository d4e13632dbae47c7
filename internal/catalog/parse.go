package catalog

import (
	"strconv"
	"strings"
)

// ParsedArgs is the result of ParseTokens.
type ParsedArgs struct {
	Flags  []string       // primary flags in first-seen order
	Values map[string]any // primary flag -> converted value, nil when missing
	// Positional joins the tokens that are not flags of the catalog.
	Positional string
}

// ParseTokens converts a raw token list, e.g. ["--steps", "20", "--vae-tiling"],
// into typed values keyed by primary flag. Boolean flags become true. A flag
// followed by another known flag, or by nothing, gets a nil value. Values that
// do not convert to the declared type are kept as raw strings.
func (c *Catalog) ParseTokens(tokens []string) ParsedArgs {
	out := ParsedArgs{Values: make(map[string]any)}
	var positional []string

	set := func(flag string, v any) {
		if _, seen := out.Values[flag]; !seen {
			out.Flags = append(out.Flags, flag)
		}
		out.Values[flag] = v
	}

	for i := 0; i < len(tokens); i++ {
		def, ok := c.ByFlag(tokens[i])
		if !ok {
			positional = append(positional, tokens[i])
			continue
		}
		key := def.Primary()
		if def.Type == TypeBoolean {
			set(key, true)
			continue
		}
		if i+1 >= len(tokens) {
			set(key, nil)
			continue
		}
		next := tokens[i+1]
		if _, isFlag := c.ByFlag(next); isFlag {
			set(key, nil)
			continue
		}
		set(key, convertToken(next, def.Type))
		i++
	}

	if len(positional) > 0 {
		out.Positional = strings.Join(positional, " ")
	}
	return out
}

func convertToken(value string, t ValueType) any {
	switch t {
	case TypeInteger:
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	case TypeFloat:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	case TypeBoolean:
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		}
		return false
	}
	return value
}
