// Package catalog holds the command definitions of the generation engine.
//
// A Catalog is loaded once and never mutated. Every lookup degrades to
// "not found" instead of failing, so callers treat unknown flags as untyped
// passthrough values.
package catalog

import (
	"slices"
	"sort"
	"strings"
)

// Internal names of the definitions the panel treats specially.
const (
	NamePrompt         = "Prompt"
	NameNegativePrompt = "Negative Prompt"
	NameModel          = "Model"
	NameLoraDir        = "LoRA Model Dir"
	NameEmbeddingDir   = "Embedding Dir"
)

// OthersCategory collects definitions not placed in any layout category.
const OthersCategory = "others"

// DefaultPersistentCategories are the categories whose flags survive a model switch.
var DefaultPersistentCategories = []string{"performance", "output"}

// ValueType is the declared type of a definition's value.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeInteger ValueType = "integer"
	TypeFloat   ValueType = "float"
	TypeBoolean ValueType = "boolean"
	TypeEnum    ValueType = "enum"
)

// normalizeType maps the spellings found in command files onto a ValueType.
func normalizeType(raw string) ValueType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "integer", "int":
		return TypeInteger
	case "float":
		return TypeFloat
	case "boolean", "bool", "flag":
		return TypeBoolean
	case "enum", "list":
		return TypeEnum
	default:
		return TypeString
	}
}

// PathHint tells an editor which kind of path picker a value needs.
type PathHint string

const (
	PathNone      PathHint = ""
	PathFileOpen  PathHint = "file_open"
	PathFileSave  PathHint = "file_save"
	PathDirectory PathHint = "directory"
)

// Kind is the closed set of value kinds an editor has to support.
type Kind int

const (
	KindString Kind = iota
	KindBoolean
	KindEnum
	KindNumeric
	KindPath
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindEnum:
		return "enum"
	case KindNumeric:
		return "numeric"
	case KindPath:
		return "path"
	default:
		return "string"
	}
}

// Definition describes one engine argument.
type Definition struct {
	Name     string    `yaml:"name" json:"name"`
	Flag     string    `yaml:"flag" json:"flag"` // comma separated aliases, e.g. "-s, --seed"
	Desc     string    `yaml:"desc" json:"desc"`
	Type     ValueType `yaml:"type" json:"type"`
	Default  any       `yaml:"default,omitempty" json:"default,omitempty"`
	Required bool      `yaml:"required,omitempty" json:"required,omitempty"`
	Options  []string  `yaml:"options,omitempty" json:"options,omitempty"`
	PathHint PathHint  `yaml:"open_mode,omitempty" json:"open_mode,omitempty"`
}

// Flags returns every alias of the definition, trimmed, in declaration order.
func (d Definition) Flags() []string {
	var flags []string
	for _, f := range strings.Split(d.Flag, ",") {
		if f = strings.TrimSpace(f); f != "" {
			flags = append(flags, f)
		}
	}
	return flags
}

// Primary returns the alias used when emitting the flag: the first long
// option, or the first alias when there is none.
func (d Definition) Primary() string {
	flags := d.Flags()
	for _, f := range flags {
		if strings.HasPrefix(f, "--") {
			return f
		}
	}
	if len(flags) == 0 {
		return ""
	}
	return flags[0]
}

// Kind returns the editor kind of the definition.
func (d Definition) Kind() Kind {
	switch {
	case d.Type == TypeBoolean:
		return KindBoolean
	case d.Type == TypeEnum:
		return KindEnum
	case d.Type == TypeInteger || d.Type == TypeFloat:
		return KindNumeric
	case d.PathHint != PathNone:
		return KindPath
	default:
		return KindString
	}
}

// Layout groups flags into categories.
type Layout struct {
	Categories map[string][]string `yaml:"categories,omitempty" json:"categories,omitempty"`
	Defaults   []string            `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Ignored    []string            `yaml:"ignored,omitempty" json:"ignored,omitempty"`
}

type flagSet map[string]struct{}

func (s flagSet) add(flags ...string) {
	for _, f := range flags {
		s[f] = struct{}{}
	}
}

func (s flagSet) has(flag string) bool {
	_, ok := s[flag]
	return ok
}

// Catalog is an immutable registry of definitions.
type Catalog struct {
	defs     []Definition
	byFlag   map[string]int
	layout   Layout
	category map[string]string // alias -> category

	promptFlags   flagSet
	negativeFlags flagSet
	excluded      flagSet
	persistent    flagSet
}

// New builds a catalog. persistentCategories selects the sticky categories;
// nil means DefaultPersistentCategories.
func New(defs []Definition, layout Layout, persistentCategories []string) *Catalog {
	if persistentCategories == nil {
		persistentCategories = DefaultPersistentCategories
	}
	c := &Catalog{
		byFlag:        make(map[string]int),
		layout:        layout,
		category:      make(map[string]string),
		promptFlags:   flagSet{},
		negativeFlags: flagSet{},
		excluded:      flagSet{},
		persistent:    flagSet{},
	}
	for _, d := range defs {
		d.Type = normalizeType(string(d.Type))
		c.defs = append(c.defs, d)
		idx := len(c.defs) - 1
		for _, f := range d.Flags() {
			c.byFlag[f] = idx
		}
	}

	// Layout entries may name a definition by its raw flag string or by any alias.
	for cat, members := range layout.Categories {
		for _, m := range members {
			for _, f := range c.aliasesOf(m) {
				c.category[f] = cat
			}
		}
	}

	if d, ok := c.ByInternalName(NamePrompt); ok {
		c.promptFlags.add(d.Flags()...)
	}
	if d, ok := c.ByInternalName(NameNegativePrompt); ok {
		c.negativeFlags.add(d.Flags()...)
	}
	for _, ig := range layout.Ignored {
		c.excluded.add(c.aliasesOf(ig)...)
	}
	for f := range c.promptFlags {
		c.excluded.add(f)
	}
	for f := range c.negativeFlags {
		c.excluded.add(f)
	}
	for _, name := range []string{NameLoraDir, NameEmbeddingDir} {
		if d, ok := c.ByInternalName(name); ok {
			c.excluded.add(d.Flags()...)
		}
	}

	for f, cat := range c.category {
		if slices.Contains(persistentCategories, cat) {
			c.persistent.add(f)
		}
	}
	return c
}

// Empty returns a catalog without definitions.
func Empty() *Catalog {
	return New(nil, Layout{}, nil)
}

// aliasesOf expands a raw flag string into the aliases of its definition.
// Unknown flags expand to their own trimmed aliases.
func (c *Catalog) aliasesOf(raw string) []string {
	d := Definition{Flag: raw}
	flags := d.Flags()
	for _, f := range flags {
		if idx, ok := c.byFlag[f]; ok {
			return c.defs[idx].Flags()
		}
	}
	return flags
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// All returns a copy of all definitions in declaration order.
func (c *Catalog) All() []Definition {
	return slices.Clone(c.defs)
}

// ByFlag finds the definition owning flag. Any alias matches.
func (c *Catalog) ByFlag(flag string) (Definition, bool) {
	idx, ok := c.byFlag[strings.TrimSpace(flag)]
	if !ok {
		return Definition{}, false
	}
	return c.defs[idx], true
}

// ByInternalName finds a definition by its untranslated name.
func (c *Catalog) ByInternalName(name string) (Definition, bool) {
	for _, d := range c.defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// PrimaryFlag returns the primary flag of the named definition, or "".
func (c *Catalog) PrimaryFlag(name string) string {
	d, ok := c.ByInternalName(name)
	if !ok {
		return ""
	}
	return d.Primary()
}

// IsPromptFlag reports whether flag is an alias of the positive prompt.
func (c *Catalog) IsPromptFlag(flag string) bool {
	return c.promptFlags.has(flag)
}

// IsNegativePromptFlag reports whether flag is an alias of the negative prompt.
func (c *Catalog) IsNegativePromptFlag(flag string) bool {
	return c.negativeFlags.has(flag)
}

// IsExcluded reports whether flag is kept out of the generic parameter map.
func (c *Catalog) IsExcluded(flag string) bool {
	return c.excluded.has(flag)
}

// IsPersistent reports whether flag belongs to a sticky category.
func (c *Catalog) IsPersistent(flag string) bool {
	return c.persistent.has(flag)
}

// PersistentFlags returns the sorted flags of the sticky categories.
func (c *Catalog) PersistentFlags() []string {
	flags := make([]string, 0, len(c.persistent))
	for f := range c.persistent {
		flags = append(flags, f)
	}
	sort.Strings(flags)
	return flags
}

// Category returns the layout category of flag, or OthersCategory.
func (c *Catalog) Category(flag string) string {
	if cat, ok := c.category[flag]; ok {
		return cat
	}
	return OthersCategory
}

// Categorized groups the non-ignored definitions by layout category.
// Empty categories are omitted.
func (c *Catalog) Categorized() map[string][]Definition {
	ignored := flagSet{}
	for _, ig := range c.layout.Ignored {
		ignored.add(c.aliasesOf(ig)...)
	}
	out := make(map[string][]Definition)
	for _, d := range c.defs {
		primary := d.Primary()
		if primary == "" || ignored.has(primary) {
			continue
		}
		cat := c.Category(primary)
		out[cat] = append(out[cat], d)
	}
	return out
}

// Defaults returns the definitions the layout enables by default, in layout
// order. Entries the catalog does not define are skipped.
func (c *Catalog) Defaults() []Definition {
	var out []Definition
	seen := make(map[int]bool)
	for _, raw := range c.layout.Defaults {
		for _, f := range c.aliasesOf(raw) {
			idx, ok := c.byFlag[f]
			if !ok || seen[idx] {
				continue
			}
			seen[idx] = true
			out = append(out, c.defs[idx])
			break
		}
	}
	return out
}
