package compiler

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/catalog"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Definition{
		{Name: catalog.NameModel, Flag: "-m, --model"},
		{Name: catalog.NamePrompt, Flag: "-p, --prompt"},
		{Name: catalog.NameNegativePrompt, Flag: "-n, --negative-prompt"},
		{Name: catalog.NameLoraDir, Flag: "--lora-model-dir"},
		{Name: catalog.NameEmbeddingDir, Flag: "--embd-dir"},
		{Name: "Steps", Flag: "--steps", Type: catalog.TypeInteger},
		{Name: "CFG Scale", Flag: "--cfg-scale", Type: catalog.TypeFloat},
		{Name: "VAE Tiling", Flag: "--vae-tiling", Type: catalog.TypeBoolean},
		{Name: "Sampler", Flag: "--sampling-method", Type: catalog.TypeEnum},
		{Name: "Output", Flag: "-o, --output", Type: catalog.TypeString},
	}, catalog.Layout{}, nil)
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name   string
		typ    catalog.ValueType
		in     any
		want   any
		wantOK bool
	}{
		{"int from string", catalog.TypeInteger, "20", 20, true},
		{"int from float string truncates", catalog.TypeInteger, "7.9", 7, true},
		{"int from negative float", catalog.TypeInteger, -2.5, -2, true},
		{"int from json float", catalog.TypeInteger, 30.0, 30, true},
		{"int from garbage", catalog.TypeInteger, "many", 0, false},
		{"int from nil", catalog.TypeInteger, nil, 0, false},
		{"int from NaN", catalog.TypeInteger, "NaN", 0, false},
		{"int from Inf", catalog.TypeInteger, math.Inf(1), 0, false},
		{"int from bool", catalog.TypeInteger, true, 1, true},
		{"float from string", catalog.TypeFloat, " 7.5 ", 7.5, true},
		{"float from int", catalog.TypeFloat, 7, 7.0, true},
		{"float from garbage", catalog.TypeFloat, "x", 0.0, false},
		{"boolean is nulled", catalog.TypeBoolean, true, nil, true},
		{"boolean false is nulled too", catalog.TypeBoolean, "false", nil, true},
		{"string from nil", catalog.TypeString, nil, "", true},
		{"string from number", catalog.TypeString, 3, "3", true},
		{"enum from string", catalog.TypeEnum, "euler", "euler", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerce(tt.typ, tt.in)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("coerce(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompile_LoraScenario(t *testing.T) {
	// Arrange
	s := request.New()
	s.Prompt = "a cat"
	s.SetLora("style_x", request.Attachment{Strength: 1.2, Dir: "/loras", Triggers: "photoreal"})

	// Act
	prompt, args := New(testCatalog(), nil).Compile(s)

	// Assert
	if prompt != "a cat <lora:style_x:1.2>" {
		t.Errorf("prompt = %q", prompt)
	}
	want := []request.Arg{{Flag: "--lora-model-dir", Value: "/loras"}}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_NegativeEmbeddingScenario(t *testing.T) {
	s := request.New()
	s.SetEmbedding("bad_hands", request.Attachment{Strength: 1.0, Target: request.TargetNegative})

	prompt, args := New(testCatalog(), nil).Compile(s)

	if prompt != "" {
		t.Errorf("prompt = %q, want empty", prompt)
	}
	want := []request.Arg{{Flag: "--negative-prompt", Value: "bad_hands"}}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_TriggerBlocksAndOrder(t *testing.T) {
	// Arrange
	s := request.New()
	s.Prompt = "portrait"
	s.NegativePrompt = "blurry"
	s.SetAutoAppend(request.KindLora, true)
	s.SetAutoAppend(request.KindEmbedding, true)
	s.SetLora("a", request.Attachment{Strength: 1, Dir: "/l1", Triggers: "trig a"})
	s.SetLora("b", request.Attachment{Strength: 0.5, Dir: "/l2", Triggers: "trig b"})
	s.SetEmbedding("good", request.Attachment{Strength: 1.1, Dir: "/e", Triggers: "shiny", Target: request.TargetPositive})
	s.SetEmbedding("bad", request.Attachment{Strength: 1, Dir: "/e2", Target: request.TargetNegative})
	s.Parameters.Set("--steps", "20")
	s.Parameters.Set("--vae-tiling", true)

	// Act
	prompt, args := New(testCatalog(), nil).Compile(s)

	// Assert
	wantPrompt := "portrait (shiny:1.1) (good:1.1) trig a trig b <lora:a:1.0> <lora:b:0.5>"
	if prompt != wantPrompt {
		t.Errorf("prompt = %q, want %q", prompt, wantPrompt)
	}
	wantArgs := []request.Arg{
		{Flag: "--steps", Value: 20},
		{Flag: "--vae-tiling", Value: nil},
		{Flag: "--lora-model-dir", Value: "/l1"},
		{Flag: "--embd-dir", Value: "/e"},
		{Flag: "--negative-prompt", Value: "blurry bad"},
	}
	if diff := cmp.Diff(wantArgs, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_TriggersOffByDefault(t *testing.T) {
	s := request.New()
	s.SetEmbedding("good", request.Attachment{Strength: 1, Triggers: "shiny"})

	prompt, args := New(testCatalog(), nil).Compile(s)

	if prompt != "good" {
		t.Errorf("prompt = %q, want %q", prompt, "good")
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none for a ghost embedding", args)
	}
}

func TestCompile_DirectoryCollapse(t *testing.T) {
	s := request.New()
	s.SetLora("a", request.Attachment{Strength: 1, Dir: "/dir/one"})
	s.SetLora("b", request.Attachment{Strength: 1, Dir: "/dir/two"})

	_, args := New(testCatalog(), nil).Compile(s)

	var dirs []any
	for _, a := range args {
		if a.Flag == "--lora-model-dir" {
			dirs = append(dirs, a.Value)
		}
	}
	if len(dirs) != 1 {
		t.Fatalf("got %d LoRA directory args, want 1", len(dirs))
	}
	if dirs[0] != "/dir/one" && dirs[0] != "/dir/two" {
		t.Errorf("directory = %v, want one of the inputs", dirs[0])
	}
}

func TestCompile_EmptyCatalogUsesFallbacks(t *testing.T) {
	s := request.New()
	s.NegativePrompt = "ugly"
	s.Parameters.Set("--steps", 20)
	s.SetLora("x", request.Attachment{Strength: 1, Dir: "/l"})

	prompt, args := New(nil, nil).Compile(s)

	if prompt != "<lora:x:1.0>" {
		t.Errorf("prompt = %q", prompt)
	}
	want := []request.Arg{
		{Flag: "--steps", Value: "20"},
		{Flag: FallbackLoraDirFlag, Value: "/l"},
		{Flag: FallbackNegativePromptFlag, Value: "ugly"},
	}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_DoesNotMutateState(t *testing.T) {
	s := request.New()
	s.Prompt = "x"
	s.Parameters.Set("--steps", "12")
	s.SetLora("l", request.Attachment{Strength: 1})

	New(testCatalog(), nil).Compile(s)

	if v, _ := s.Parameters.Get("--steps"); v != "12" {
		t.Errorf("parameter changed to %#v", v)
	}
	if s.Prompt != "x" {
		t.Errorf("prompt changed to %q", s.Prompt)
	}
}

func TestCommandLine(t *testing.T) {
	c := New(testCatalog(), nil)
	args := []request.Arg{
		{Flag: "--steps", Value: 20},
		{Flag: "--vae-tiling", Value: nil},
		{Flag: "--cfg-scale", Value: 7.0},
	}

	got := c.CommandLine("sd", "/models/v1.safetensors", "a cat", args)

	want := []string{"sd", "--model", "/models/v1.safetensors", "--prompt", "a cat", "--steps", "20", "--vae-tiling", "--cfg-scale", "7.0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}

	bare := New(nil, nil).CommandLine("sd", "m.gguf", "p", nil)
	if diff := cmp.Diff([]string{"sd", "-m", "m.gguf", "-p", "p"}, bare); diff != "" {
		t.Errorf("fallback argv mismatch (-want +got):\n%s", diff)
	}
}
