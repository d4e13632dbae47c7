// Package compiler turns a request.State into the prompt text and argument
// list the generation engine is invoked with.
package compiler

import (
	"log/slog"
	"strings"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/catalog"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/logging"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/prompttag"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
)

// Flags used when the catalog does not define the corresponding argument.
const (
	FallbackPromptFlag         = "-p"
	FallbackModelFlag          = "-m"
	FallbackNegativePromptFlag = "--negative-prompt"
	FallbackLoraDirFlag        = "--lora-model-dir"
	FallbackEmbeddingDirFlag   = "--embd-dir"
)

// Catalog is the read access the compiler needs. *catalog.Catalog implements it.
type Catalog interface {
	ByFlag(flag string) (catalog.Definition, bool)
	PrimaryFlag(name string) string
}

// Compiler compiles request states. It holds no per-request state and is safe
// for concurrent use.
type Compiler struct {
	cat    Catalog
	logger *slog.Logger
}

// New creates a compiler. A nil catalog compiles every parameter as an
// untyped string; a nil logger discards output.
func New(cat Catalog, logger *slog.Logger) *Compiler {
	if cat == nil {
		cat = catalog.Empty()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Compiler{cat: cat, logger: logger}
}

// Compile returns the final positive prompt and the ordered argument list.
//
// Arguments come in this order: every parameter in insertion order with its
// value coerced to the declared type, one LoRA directory, one embedding
// directory, and the combined negative prompt. The positive prompt is the
// user prompt followed by positive embedding tokens, LoRA trigger words and
// finally LoRA tags.
func (c *Compiler) Compile(s *request.State) (string, []request.Arg) {
	args := c.parameters(s)

	positive := []string{s.Prompt}
	var negative []string
	embDir := ""
	for name, a := range s.Embeddings.All() {
		var tokens []string
		if a.Triggers != "" && s.ShouldAutoAppend(request.KindEmbedding) {
			tokens = append(tokens, prompttag.Weighted(a.Triggers, a.Strength))
		}
		tokens = append(tokens, prompttag.Weighted(name, a.Strength))
		if a.Target == request.TargetNegative {
			negative = append(negative, tokens...)
		} else {
			positive = append(positive, tokens...)
		}
		if embDir == "" {
			embDir = a.Dir
		}
	}

	var triggers, tags []string
	loraDir := ""
	for name, a := range s.Loras.All() {
		if a.Triggers != "" && s.ShouldAutoAppend(request.KindLora) {
			triggers = append(triggers, a.Triggers)
		}
		tags = append(tags, prompttag.LoraTag(name, a.Strength))
		if loraDir == "" {
			loraDir = a.Dir
		}
	}
	positive = append(positive, triggers...)
	positive = append(positive, tags...)

	if loraDir != "" {
		args = append(args, request.Arg{Flag: c.flag(catalog.NameLoraDir, FallbackLoraDirFlag), Value: loraDir})
	}
	if embDir != "" {
		args = append(args, request.Arg{Flag: c.flag(catalog.NameEmbeddingDir, FallbackEmbeddingDirFlag), Value: embDir})
	}

	neg := joinTrimmed(append([]string{s.NegativePrompt}, negative...))
	if neg != "" {
		args = append(args, request.Arg{Flag: c.flag(catalog.NameNegativePrompt, FallbackNegativePromptFlag), Value: neg})
	}
	return joinTrimmed(positive), args
}

// parameters coerces the generic parameters in insertion order.
func (c *Compiler) parameters(s *request.State) []request.Arg {
	args := make([]request.Arg, 0, s.Parameters.Len())
	for flag, v := range s.Parameters.All() {
		t := catalog.TypeString
		if def, ok := c.cat.ByFlag(flag); ok {
			t = def.Type
		}
		out, ok := coerce(t, v)
		if !ok {
			c.logger.Debug("parameter value does not convert, using default", "flag", flag, "type", t, "value", v)
		}
		args = append(args, request.Arg{Flag: flag, Value: out})
	}
	return args
}

// flag returns the primary flag of the named definition, or fallback.
func (c *Compiler) flag(name, fallback string) string {
	if f := c.cat.PrimaryFlag(name); f != "" {
		return f
	}
	return fallback
}

// CommandLine builds the engine argv: executable, model and prompt followed
// by every argument. A nil value emits the bare flag.
func (c *Compiler) CommandLine(executable, modelPath, prompt string, args []request.Arg) []string {
	argv := []string{executable}
	if modelPath != "" {
		argv = append(argv, c.flag(catalog.NameModel, FallbackModelFlag), modelPath)
	}
	if prompt != "" {
		argv = append(argv, c.flag(catalog.NamePrompt, FallbackPromptFlag), prompt)
	}
	for _, a := range args {
		if a.Value == nil {
			argv = append(argv, a.Flag)
			continue
		}
		argv = append(argv, a.Flag, request.FormatValue(a.Value))
	}
	return argv
}

func joinTrimmed(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
