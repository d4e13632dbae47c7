package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
)

// capture disables colors and redirects Output for the duration of a test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	color.NoColor = true
	var buf bytes.Buffer
	Output = &buf
	t.Cleanup(func() {
		color.NoColor = false
		Output = os.Stdout
	})
	return &buf
}

func assertContains(t *testing.T, output string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("output should contain %q, got:\n%s", w, output)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a long prompt here", 6, "a lon…"},
		{"multi\n  line   text", 0, "multi line text"},
		{"café au lait", 5, "café…"},
		{"xy", 1, "…"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("ShortID() = %q", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("ShortID(short) = %q", got)
	}
}

func TestStatusBadge(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		status   string
		contains string
	}{
		{"running", "● Running"},
		{"pending", "○ Pending"},
		{"failed", "✗ Failed"},
		{"weird", "? weird"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := StatusBadge(tt.status); !strings.Contains(got, tt.contains) {
				t.Errorf("StatusBadge(%q) = %q, want to contain %q", tt.status, got, tt.contains)
			}
		})
	}
}

func TestPrintMessages(t *testing.T) {
	buf := capture(t)

	PrintSuccess("saved")
	PrintError("failed")
	PrintWarning("careful")
	PrintInfo("note")

	assertContains(t, buf.String(), "✓ saved", "✗ failed", "⚠ careful", "• note")
}

func TestPrintPresetList(t *testing.T) {
	buf := capture(t)
	PrintPresetList([]string{"portrait", "landscape"})
	assertContains(t, buf.String(), "Available presets:", "p:portrait", "p:landscape")

	buf.Reset()
	PrintPresetList(nil)
	assertContains(t, buf.String(), "No presets available.")
}

func TestPrintPresetDetails(t *testing.T) {
	buf := capture(t)

	PrintPresetDetails(PresetDetails{
		Name:   "portrait",
		Model:  "n:sdxl",
		Prompt: "a cat",
		Params: []string{"--steps 30"},
		Loras:  []string{"style_x 0.8"},
	})

	out := buf.String()
	assertContains(t, out, "Name: portrait", "Model: n:sdxl", "Prompt: a cat", "Params:", "  --steps 30", "LoRAs:", "  style_x 0.8")
	if strings.Contains(out, "Embeddings:") || strings.Contains(out, "Negative:") {
		t.Errorf("empty sections printed:\n%s", out)
	}
}

func TestPrintAssetList(t *testing.T) {
	buf := capture(t)

	PrintAssetList([]AssetInfo{
		{Kind: "lora", Name: "style_x", Alias: "Style X (v2)", Hash: "abcdef0123456789"},
		{Kind: "embedding", Name: "bad_hands", Alias: "bad_hands"},
	})

	out := buf.String()
	assertContains(t, out, "Library:", "style_x", "(Style X (v2))", "h:abcdef01", "bad_hands")
	if strings.Contains(out, "(bad_hands)") {
		t.Error("alias equal to name should not be repeated")
	}

	buf.Reset()
	PrintAssetList(nil)
	assertContains(t, buf.String(), "No assets in library.")
}

func TestPrintAssetDetails(t *testing.T) {
	buf := capture(t)

	PrintAssetDetails(AssetDetails{
		ID: "id-1", Kind: "lora", Name: "style_x", Path: "/loras/style_x.safetensors",
		Triggers: "photoreal", Strength: 0.8, Hash: "h1", RemoteVersionID: "77",
	})

	assertContains(t, buf.String(), "Name: style_x", "Kind: lora", "Path: /loras/style_x.safetensors",
		"Triggers: photoreal", "Strength: 0.8", "Hash: h1", "Remote Version: 77")
}

func TestPrintHistory(t *testing.T) {
	buf := capture(t)

	PrintHistory([]HistoryRow{
		{ID: "0123456789", Time: "2025-01-01 10:00", Model: "sdxl", Prompt: "a cat", Outputs: 2},
	}, 5)

	assertContains(t, buf.String(), "History: (1 of 5)", "01234567", "2025-01-01 10:00", "sdxl", "a cat", "[2]")

	buf.Reset()
	PrintHistory(nil, 0)
	assertContains(t, buf.String(), "No history.")
}

func TestPrintQueue(t *testing.T) {
	buf := capture(t)

	PrintQueue([]QueueRow{
		{ID: "aaaaaaaaaa", Priority: 1, Status: "running", Model: "sdxl", Prompt: "first"},
		{ID: "bbbbbbbbbb", Priority: 2, Status: "pending", Model: "sdxl", Prompt: "second"},
	})

	out := buf.String()
	assertContains(t, out, "Queue:", "aaaaaaaa", "● Running", "first", "○ Pending", "second")
	if strings.Index(out, "first") > strings.Index(out, "second") {
		t.Error("queue printed out of order")
	}

	buf.Reset()
	PrintQueue(nil)
	assertContains(t, buf.String(), "Queue is empty.")
}

func TestPrintCompiled(t *testing.T) {
	buf := capture(t)

	PrintCompiled("a cat <lora:x:1.0>", []ArgRow{
		{Flag: "--steps", Value: "20"},
		{Flag: "--vae-tiling", Bare: true},
	})

	assertContains(t, buf.String(), "Prompt: a cat <lora:x:1.0>", "Args:", "  --steps 20", "  --vae-tiling\n")
}

func TestPrintCatalog(t *testing.T) {
	buf := capture(t)

	PrintCatalog(map[string][]CatalogEntry{
		"sampling":    {{Flag: "--steps", Type: "integer", Kind: "numeric", Desc: "number of steps"}},
		"performance": {{Flag: "--threads", Type: "string", Kind: "string", Desc: "threads"}},
	})

	out := buf.String()
	assertContains(t, out, "sampling:", "performance:", "--steps", "number of steps", "integer/numeric")
	if strings.Contains(out, "string/string") {
		t.Error("kind repeated when equal to the type")
	}
	if strings.Index(out, "performance:") > strings.Index(out, "sampling:") {
		t.Error("categories not sorted")
	}

	buf.Reset()
	PrintCatalog(nil)
	assertContains(t, buf.String(), "Catalog is empty.")
}
