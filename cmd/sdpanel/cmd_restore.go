package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/catalog"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/preset"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/reconstruct"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/ui"
)

type RestoreCmd struct {
	Prompt   string `required:"" help:"Compiled positive prompt"`
	Args     string `default:"[]" help:"Compiled arguments as JSON: [{\"flag\":..,\"value\":..}] or [\"--flag\",\"value\",..]"`
	Negative string `help:"Negative prompt, used when the arguments carry none"`
	Metadata string `help:"Generation metadata as JSON ({\"used_networks\":[..]})"`
	Model    string `help:"Model identifier to record"`
	Save     string `help:"Save the restored request as a preset with this name. An existing preset keeps its persistent parameters"`
}

func (c *RestoreCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	args, err := parseArgsJSON(c.Args, a.catalog)
	if err != nil {
		return err
	}
	var meta *request.Metadata
	if c.Metadata != "" {
		meta = &request.Metadata{}
		if err := json.Unmarshal([]byte(c.Metadata), meta); err != nil {
			return errInvalidInput("invalid --metadata: %v", err)
		}
	}

	lib, err := a.library(context.Background())
	if err != nil {
		return err
	}
	s := a.reconstructor(lib).Reconstruct(reconstruct.Input{
		ModelID:        c.Model,
		Prompt:         c.Prompt,
		NegativePrompt: c.Negative,
		Args:           args,
		Metadata:       meta,
	})
	a.applyAutoAppend(s, nil)

	if c.Save == "" {
		ui.PrintPresetDetails(presetDetails(preset.FromState("restored", s)))
		return nil
	}
	p, path, err := a.savePreset(c.Save, s)
	if err != nil {
		return err
	}
	ui.PrintPresetDetails(presetDetails(p))
	ui.PrintSuccess(fmt.Sprintf("Saved preset '%s' to %s", p.Name, path))
	return nil
}

// parseArgsJSON accepts either a list of {flag, value} objects or a raw
// token list, which is typed through the catalog.
func parseArgsJSON(raw string, cat *catalog.Catalog) ([]request.Arg, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var args []request.Arg
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args, nil
	}

	var tokens []string
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return nil, errInvalidInput("invalid --args: want a JSON list of {\"flag\",\"value\"} objects or of strings")
	}
	parsed := cat.ParseTokens(tokens)
	args = make([]request.Arg, 0, len(parsed.Flags))
	for _, f := range parsed.Flags {
		args = append(args, request.Arg{Flag: f, Value: parsed.Values[f]})
	}
	if parsed.Positional != "" {
		ui.PrintWarning(fmt.Sprintf("Ignoring unknown tokens: %s", parsed.Positional))
	}
	return args, nil
}
