// Package ui provides formatted output utilities for the CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Color functions for consistent styling.
var (
	Green  = color.New(color.FgGreen).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Blue   = color.New(color.FgBlue).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Dim    = color.New(color.Faint).SprintFunc() // Dimmed text (more readable than gray)
	Bold   = color.New(color.Bold).SprintFunc()
)

// Output is the destination for UI output.
// Defaults to os.Stdout but can be overridden for testing.
var Output io.Writer = os.Stdout

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// ShortID returns the first 8 characters of an entry id.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// StatusBadge returns a colored queue status indicator with label.
func StatusBadge(status string) string {
	switch status {
	case "running":
		return Green("● Running")
	case "pending":
		return Yellow("○ Pending")
	case "failed":
		return Red("✗ Failed")
	default:
		return Dim("? " + status)
	}
}

// PrintSuccess prints a success message with green checkmark.
func PrintSuccess(message string) {
	fmt.Fprintf(Output, "%s %s\n", Green("✓"), message)
}

// PrintError prints an error message with red X.
func PrintError(message string) {
	fmt.Fprintf(Output, "%s %s\n", Red("✗"), message)
}

// PrintWarning prints a warning message with yellow exclamation.
func PrintWarning(message string) {
	fmt.Fprintf(Output, "%s %s\n", Yellow("⚠"), message)
}

// PrintInfo prints an info message with blue dot.
func PrintInfo(message string) {
	fmt.Fprintf(Output, "%s %s\n", Blue("•"), message)
}

// PrintPresetList prints a list of available presets with formatting.
func PrintPresetList(presets []string) {
	if len(presets) == 0 {
		fmt.Fprintln(Output, "No presets available.")
		return
	}

	fmt.Fprintln(Output, Bold("Available presets:"))
	for _, p := range presets {
		fmt.Fprintf(Output, "  %s:%s\n", Cyan("p"), Cyan(p))
	}
}

// PresetDetails contains preset information for display.
type PresetDetails struct {
	Name           string
	Model          string
	Prompt         string
	NegativePrompt string
	Params         []string // "flag value" pairs, disabled ones marked
	Loras          []string
	Embeddings     []string
}

// PrintPresetDetails prints preset details in a formatted style.
func PrintPresetDetails(p PresetDetails) {
	fmt.Fprintf(Output, "%s %s\n", Bold("Name:"), Cyan(p.Name))
	if p.Model != "" {
		fmt.Fprintf(Output, "%s %s\n", Bold("Model:"), p.Model)
	}
	if p.Prompt != "" {
		fmt.Fprintf(Output, "%s %s\n", Bold("Prompt:"), p.Prompt)
	}
	if p.NegativePrompt != "" {
		fmt.Fprintf(Output, "%s %s\n", Bold("Negative:"), p.NegativePrompt)
	}
	printBlock("Params:", p.Params)
	printBlock("LoRAs:", p.Loras)
	printBlock("Embeddings:", p.Embeddings)
}

func printBlock(label string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(Output, Bold(label))
	for _, l := range lines {
		fmt.Fprintf(Output, "  %s\n", l)
	}
}

// AssetInfo represents a library asset for display.
type AssetInfo struct {
	Kind  string
	Name  string
	Alias string
	Hash  string
}

// PrintAssetList prints library assets grouped in the given order.
func PrintAssetList(assets []AssetInfo) {
	if len(assets) == 0 {
		fmt.Fprintln(Output, "No assets in library.")
		return
	}

	fmt.Fprintln(Output, Bold("Library:"))
	for _, a := range assets {
		line := fmt.Sprintf("  %s %s", Dim(fmt.Sprintf("%-9s", a.Kind)), Cyan(a.Name))
		if a.Alias != "" && a.Alias != a.Name {
			line += " " + Dim("("+a.Alias+")")
		}
		if a.Hash != "" {
			line += " " + Yellow("h:"+ShortID(a.Hash))
		}
		fmt.Fprintln(Output, line)
	}
}

// AssetDetails contains asset metadata for display.
type AssetDetails struct {
	ID              string
	Kind            string
	Name            string
	Alias           string
	Path            string
	Triggers        string
	Strength        float64
	Hash            string
	RemoteVersionID string
	BaseModel       string
}

// PrintAssetDetails prints asset metadata in a formatted style.
func PrintAssetDetails(a AssetDetails) {
	fmt.Fprintf(Output, "%s %s\n", Bold("Name:"), Cyan(a.Name))
	if a.Alias != "" {
		fmt.Fprintf(Output, "%s %s\n", Bold("Alias:"), a.Alias)
	}
	fmt.Fprintf(Output, "%s %s\n", Bold("Kind:"), a.Kind)
	fmt.Fprintf(Output, "%s %s\n", Bold("ID:"), Dim(a.ID))
	fmt.Fprintf(Output, "%s %s\n", Bold("Path:"), Blue(a.Path))
	if a.Triggers != "" {
		fmt.Fprintf(Output, "%s %s\n", Bold("Triggers:"), a.Triggers)
	}
	fmt.Fprintf(Output, "%s %g\n", Bold("Strength:"), a.Strength)
	if a.Hash != "" {
		fmt.Fprintf(Output, "%s %s\n", Bold("Hash:"), Yellow(a.Hash))
	}
	if a.RemoteVersionID != "" {
		fmt.Fprintf(Output, "%s %s\n", Bold("Remote Version:"), a.RemoteVersionID)
	}
	if a.BaseModel != "" {
		fmt.Fprintf(Output, "%s %s\n", Bold("Base Model:"), a.BaseModel)
	}
}

// HistoryRow is one history entry for display.
type HistoryRow struct {
	ID      string
	Time    string
	Model   string
	Prompt  string
	Outputs int
}

// PrintHistory prints history entries, newest first.
func PrintHistory(rows []HistoryRow, total int) {
	if len(rows) == 0 {
		fmt.Fprintln(Output, "No history.")
		return
	}

	fmt.Fprintf(Output, "%s %s\n", Bold("History:"), Dim(fmt.Sprintf("(%d of %d)", len(rows), total)))
	for _, r := range rows {
		fmt.Fprintf(Output, "  %s %s %s %s %s\n",
			Cyan(ShortID(r.ID)),
			Dim(r.Time),
			Yellow(r.Model),
			Truncate(r.Prompt, 60),
			Dim(fmt.Sprintf("[%d]", r.Outputs)),
		)
	}
}

// QueueRow is one queue item for display.
type QueueRow struct {
	ID       string
	Priority int
	Status   string
	Model    string
	Prompt   string
}

// PrintQueue prints queue items in run order.
func PrintQueue(rows []QueueRow) {
	if len(rows) == 0 {
		fmt.Fprintln(Output, "Queue is empty.")
		return
	}

	fmt.Fprintln(Output, Bold("Queue:"))
	for _, r := range rows {
		fmt.Fprintf(Output, "  %3d %s %s %s %s\n",
			r.Priority,
			Cyan(ShortID(r.ID)),
			StatusBadge(r.Status),
			Yellow(r.Model),
			Truncate(r.Prompt, 60),
		)
	}
}

// ArgRow is one compiled argument for display. Bare flags have no value.
type ArgRow struct {
	Flag  string
	Value string
	Bare  bool
}

// PrintCompiled prints a compiled prompt and its argument list.
func PrintCompiled(prompt string, args []ArgRow) {
	fmt.Fprintf(Output, "%s %s\n", Bold("Prompt:"), prompt)
	if len(args) == 0 {
		return
	}
	fmt.Fprintln(Output, Bold("Args:"))
	for _, a := range args {
		if a.Bare {
			fmt.Fprintf(Output, "  %s\n", Cyan(a.Flag))
			continue
		}
		fmt.Fprintf(Output, "  %s %s\n", Cyan(a.Flag), a.Value)
	}
}

// CatalogEntry is one engine argument for display. Kind is shown next to
// the type when the two differ.
type CatalogEntry struct {
	Flag string
	Type string
	Kind string
	Desc string
}

// PrintCatalog prints the engine arguments grouped by category, categories
// sorted by name.
func PrintCatalog(categories map[string][]CatalogEntry) {
	if len(categories) == 0 {
		fmt.Fprintln(Output, "Catalog is empty.")
		return
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		if i > 0 {
			fmt.Fprintln(Output)
		}
		fmt.Fprintln(Output, Bold(name+":"))
		for _, e := range categories[name] {
			typ := e.Type
			if e.Kind != "" && e.Kind != e.Type {
				typ += "/" + e.Kind
			}
			fmt.Fprintf(Output, "  %-28s %s %s\n", Cyan(e.Flag), Dim(typ), e.Desc)
		}
	}
}
