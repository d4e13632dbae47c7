package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/library"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/preset"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/store"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/ui"
)

type CompileCmd struct {
	Source  string `arg:"" help:"Preset to compile (p:name or f:path/to/preset.yaml)" predictor:"preset-source"`
	JSON    bool   `help:"Print the compiled request as JSON"`
	Argv    bool   `help:"Print the engine command line"`
	Enqueue bool   `help:"Add the compiled request to the queue"`
}

// compiledRequest is the JSON form printed by --json.
type compiledRequest struct {
	Model          string            `json:"model,omitempty"`
	ModelPath      string            `json:"model_path,omitempty"`
	Prompt         string            `json:"prompt"`
	NegativePrompt string            `json:"negative_prompt,omitempty"`
	Args           []request.Arg     `json:"args"`
	Argv           []string          `json:"argv"`
	Metadata       *request.Metadata `json:"metadata,omitempty"`
}

func (c *CompileCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	res, err := a.compile(ctx, c.Source)
	if err != nil {
		return err
	}

	if c.Enqueue {
		it, err := a.enqueue(ctx, res)
		if err != nil {
			return err
		}
		if !c.JSON && !c.Argv {
			ui.PrintSuccess(fmt.Sprintf("Queued as %s (position %d)", ui.ShortID(it.ID), it.Priority))
		}
	}

	switch {
	case c.JSON:
		out, err := json.MarshalIndent(compiledRequest{
			Model:          res.state.ModelID,
			ModelPath:      res.modelPath,
			Prompt:         res.prompt,
			NegativePrompt: res.state.NegativePrompt,
			Args:           res.args,
			Argv:           res.argv,
			Metadata:       request.BuildMetadata(res.state),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		fmt.Fprintln(ui.Output, string(out))
	case c.Argv:
		quoted := make([]string, len(res.argv))
		for i, arg := range res.argv {
			quoted[i] = shellQuote(arg)
		}
		fmt.Fprintln(ui.Output, strings.Join(quoted, " "))
	default:
		ui.PrintCompiled(res.prompt, argRows(res.args))
	}
	return nil
}

// compiled is a preset turned into engine input.
type compiled struct {
	state     *request.State
	modelPath string
	prompt    string
	args      []request.Arg
	argv      []string
}

// generation is the stored form of the compiled request.
func (c *compiled) generation() store.Generation {
	return store.Generation{
		ModelID:        c.state.ModelID,
		Prompt:         c.prompt,
		NegativePrompt: c.state.NegativePrompt,
		Args:           c.args,
		Metadata:       request.BuildMetadata(c.state),
	}
}

// compile loads the preset named by ref, resolves its model against the
// library and compiles it.
func (a *app) compile(ctx context.Context, ref string) (*compiled, error) {
	p, err := a.loadPreset(ref)
	if err != nil {
		return nil, err
	}
	lib, err := a.library(ctx)
	if err != nil {
		return nil, err
	}

	s := p.State()
	a.applyAutoAppend(s, p)

	res := &compiled{state: s}
	if p.Model != "" {
		res.modelPath, err = preset.ResolveModel(p, lib.Snapshot(library.KindCheckpoint))
		if err != nil {
			a.logger.Warn("model unresolved", "preset", p.Name, "model", p.Model, "error", err)
			return nil, errAssetNotFound(p.Model)
		}
	}

	comp := a.compiler()
	res.prompt, res.args = comp.Compile(s)
	res.argv = comp.CommandLine(a.settings.Engine, res.modelPath, res.prompt, res.args)
	a.logger.Debug("compiled preset", "preset", p.Name, "args", len(res.args))
	return res, nil
}

// enqueue stores a compiled request at the end of the queue.
func (a *app) enqueue(ctx context.Context, res *compiled) (store.QueueItem, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return store.QueueItem{}, err
	}
	defer st.Close()

	it, err := st.Enqueue(ctx, res.generation())
	if err != nil {
		return store.QueueItem{}, fmt.Errorf("enqueue: %w", err)
	}
	a.logger.Info("request queued", "id", it.ID, "priority", it.Priority)
	return it, nil
}
