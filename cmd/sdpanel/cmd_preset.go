package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/editor"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/identifier"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/pathutil"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/preset"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/ui"
)

type PresetCmd struct {
	List   PresetListCmd `cmd:"" name:"ls" help:"List available presets"`
	Show   PresetShowCmd `cmd:"" help:"Show preset details"`
	New    PresetNewCmd  `cmd:"" help:"Create a preset from the catalog defaults"`
	Edit   PresetEditCmd `cmd:"" help:"Open a preset in your editor"`
	Remove PresetRmCmd   `cmd:"" name:"rm" help:"Remove a preset"`
}

type PresetListCmd struct{}

func (c *PresetListCmd) Run() error {
	paths, err := getPaths()
	if err != nil {
		return err
	}

	names, err := preset.NewLoader(paths.Presets).List()
	if err != nil {
		ui.PrintWarning(err.Error())
	}
	if len(names) == 0 {
		fmt.Fprintln(ui.Output, "No presets available.")
		fmt.Fprintf(ui.Output, "Add presets to: %s\n", paths.Presets)
		return nil
	}
	ui.PrintPresetList(names)
	return nil
}

type PresetShowCmd struct {
	Source string `arg:"" help:"Preset to show (p:name or f:path/to/preset.yaml)" predictor:"preset-source"`
}

func (c *PresetShowCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.loadPreset(c.Source)
	if err != nil {
		return err
	}
	ui.PrintPresetDetails(presetDetails(p))
	return nil
}

// presetDetails formats a preset for display.
func presetDetails(p *preset.Preset) ui.PresetDetails {
	d := ui.PresetDetails{
		Name:           p.Name,
		Model:          p.Model,
		Prompt:         p.Prompt,
		NegativePrompt: p.NegativePrompt,
	}
	for _, param := range p.Params {
		line := param.Flag
		if param.Value != nil {
			line += " " + request.FormatValue(param.Value)
		}
		if !param.IsEnabled() {
			line += " " + ui.Dim("(disabled)")
		}
		d.Params = append(d.Params, line)
	}
	for _, n := range p.Loras {
		d.Loras = append(d.Loras, networkLine(n))
	}
	for _, n := range p.Embeddings {
		line := networkLine(n)
		if n.Target == request.TargetNegative {
			line += " " + ui.Dim("(negative)")
		}
		d.Embeddings = append(d.Embeddings, line)
	}
	return d
}

func networkLine(n preset.Network) string {
	line := fmt.Sprintf("%s:%g", n.Name, n.Strength)
	if n.Dir == "" {
		line += " " + ui.Yellow("(not in library)")
	}
	return line
}

type PresetNewCmd struct {
	Name     string `arg:"" help:"Name of the new preset"`
	Model    string `help:"Model (f:path/to/model, h:<hash>, r:<remote version> or n:<name>)" predictor:"asset"`
	Prompt   string `help:"Positive prompt"`
	Negative string `help:"Negative prompt"`
}

func (c *PresetNewCmd) Run() error {
	if err := preset.ValidateName(c.Name); err != nil {
		return errInvalidInput("invalid name: %v", err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s := request.New()
	applied := s.ApplyModelDefaults(catalogDefaults(a.catalog), a.catalog)
	s.ModelID = c.Model
	if c.Prompt != "" {
		s.SetPrompt(c.Prompt)
	}
	if c.Negative != "" {
		s.SetNegativePrompt(c.Negative)
	}

	p := preset.FromState(c.Name, s)
	p.AutoAppend = nil // follow config.yaml until the preset sets it
	if err := p.Validate(); err != nil {
		return errInvalidInput("%v", err)
	}

	path, err := preset.NewLoader(a.paths.Presets).Create(p)
	if preset.IsAlreadyExists(err) {
		return errInvalidInput("preset '%s' already exists", c.Name)
	}
	if err != nil {
		return fmt.Errorf("create preset: %w", err)
	}

	ui.PrintPresetDetails(presetDetails(p))
	ui.PrintSuccess(fmt.Sprintf("Created '%s' with %d default parameter(s) at %s", c.Name, len(applied), path))
	ui.PrintInfo(fmt.Sprintf("sdpanel compile p:%s", c.Name))
	return nil
}

type PresetEditCmd struct {
	Source string `arg:"" help:"Preset to edit (p:name or f:path/to/preset.yaml)" predictor:"preset-source"`
}

func (c *PresetEditCmd) Run() error {
	paths, err := getPaths()
	if err != nil {
		return err
	}

	filePath, err := presetFilePath(c.Source, paths.Presets)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", filePath)
		}
		return fmt.Errorf("check file: %w", err)
	}

	ed, err := editor.Find()
	if err != nil {
		return err
	}
	return ed.Open(context.Background(), filePath)
}

// presetFilePath resolves a preset reference to an absolute file path.
func presetFilePath(ref, presetsDir string) (string, error) {
	id, err := identifier.Parse(ref)
	if err != nil {
		return "", errInvalidInput("invalid identifier: %v", err)
	}

	switch id.Type {
	case identifier.TypePresetName:
		path, err := preset.NewLoader(presetsDir).FindPath(id.Value)
		if err != nil {
			return "", mapPresetError(err, id.Value)
		}
		return path, nil

	case identifier.TypeFilePath:
		resolved, err := pathutil.ResolvePath(id.Value, "")
		if err != nil {
			return "", fmt.Errorf("resolve path: %w", err)
		}
		absPath, err := filepath.Abs(resolved)
		if err != nil {
			return "", fmt.Errorf("make absolute path: %w", err)
		}
		return absPath, nil

	default:
		return "", errInvalidInput("cannot edit %s\nUse: sdpanel preset edit p:name or sdpanel preset edit f:path/to/preset.yaml", id)
	}
}

type PresetRmCmd struct {
	Name  string `arg:"" help:"Preset name to remove" predictor:"preset"`
	Force bool   `short:"f" help:"Do not ask for confirmation"`
}

func (c *PresetRmCmd) Run() error {
	paths, err := getPaths()
	if err != nil {
		return err
	}

	loader := preset.NewLoader(paths.Presets)
	if ok, err := loader.Exists(c.Name); err != nil {
		return err
	} else if !ok {
		return errPresetNotFound(c.Name)
	}

	if !c.Force && !promptConfirm(fmt.Sprintf("Delete preset '%s'?", c.Name)) {
		fmt.Fprintln(ui.Output, "Cancelled.")
		return nil
	}

	if err := loader.Remove(c.Name); err != nil {
		return mapPresetError(err, c.Name)
	}
	ui.PrintSuccess(fmt.Sprintf("Preset '%s' removed.", c.Name))
	return nil
}
