package main

import (
	"context"
	"fmt"
	"time"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/preset"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/reconstruct"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/store"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

type HistoryCmd struct {
	List   HistoryListCmd   `cmd:"" name:"ls" help:"List past generations"`
	Show   HistoryShowCmd   `cmd:"" help:"Show a stored generation"`
	Replay HistoryReplayCmd `cmd:"" help:"Rebuild requests from stored generations"`
	Remove HistoryRmCmd     `cmd:"" name:"rm" help:"Delete a stored generation"`
}

type HistoryListCmd struct {
	Limit  int `short:"n" default:"20" help:"Number of entries to show (0 = all)"`
	Offset int `help:"Number of newest entries to skip"`
}

func (c *HistoryListCmd) Run() error {
	return withStore(func(ctx context.Context, _ *app, st *store.Store) error {
		entries, err := st.ListHistory(ctx, c.Limit, c.Offset)
		if err != nil {
			return err
		}
		total, err := st.CountHistory(ctx)
		if err != nil {
			return err
		}
		rows := make([]ui.HistoryRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, ui.HistoryRow{
				ID:      e.ID,
				Time:    e.CreatedAt.Local().Format(timeLayout),
				Model:   e.ModelID,
				Prompt:  e.Prompt,
				Outputs: len(e.Outputs),
			})
		}
		ui.PrintHistory(rows, total)
		return nil
	})
}

type HistoryShowCmd struct {
	ID string `arg:"" help:"Entry id or unique prefix" predictor:"history-id"`
}

func (c *HistoryShowCmd) Run() error {
	return withStore(func(ctx context.Context, _ *app, st *store.Store) error {
		id, err := st.ResolveHistoryID(ctx, c.ID)
		if err != nil {
			return mapStoreError(err)
		}
		e, err := st.History(ctx, id)
		if err != nil {
			return mapStoreError(err)
		}
		printGeneration(e.ID, e.CreatedAt, e.Generation)
		for _, out := range e.Outputs {
			fmt.Fprintf(ui.Output, "  %s %s\n", ui.Dim("output"), ui.Blue(out))
		}
		return nil
	})
}

// printGeneration prints a stored generation with its argument list.
func printGeneration(id string, created time.Time, g store.Generation) {
	fmt.Fprintf(ui.Output, "%s %s\n", ui.Bold("ID:"), ui.Cyan(id))
	fmt.Fprintf(ui.Output, "%s %s\n", ui.Bold("Created:"), created.Local().Format(timeLayout))
	if g.ModelID != "" {
		fmt.Fprintf(ui.Output, "%s %s\n", ui.Bold("Model:"), g.ModelID)
	}
	ui.PrintCompiled(g.Prompt, argRows(g.Args))
	if g.Metadata != nil {
		for _, n := range g.Metadata.UsedNetworks {
			fmt.Fprintf(ui.Output, "  %s %s:%g %s\n", ui.Dim(string(n.Type)), n.OriginalName, n.Strength, ui.Yellow(ui.ShortID(n.ContentHash)))
		}
	}
}

type HistoryReplayCmd struct {
	IDs  []string `arg:"" help:"Entry ids or unique prefixes" predictor:"history-id"`
	Save string   `help:"Save the rebuilt request as a preset (single entry only). An existing preset keeps its persistent parameters"`
}

func (c *HistoryReplayCmd) Run() error {
	if c.Save != "" && len(c.IDs) != 1 {
		return errInvalidInput("--save takes exactly one entry, got %d", len(c.IDs))
	}
	return withStore(func(ctx context.Context, a *app, st *store.Store) error {
		ids := make([]string, 0, len(c.IDs))
		inputs := make([]reconstruct.Input, 0, len(c.IDs))
		for _, ref := range c.IDs {
			id, err := st.ResolveHistoryID(ctx, ref)
			if err != nil {
				return mapStoreError(err)
			}
			e, err := st.History(ctx, id)
			if err != nil {
				return mapStoreError(err)
			}
			ids = append(ids, id)
			inputs = append(inputs, generationInput(e.Generation))
		}

		lib, err := a.library(ctx)
		if err != nil {
			return err
		}
		states, err := reconstruct.Batch(ctx, a.reconstructor(lib), inputs, a.settings.Workers)
		if err != nil {
			return err
		}

		for i, s := range states {
			a.applyAutoAppend(s, nil)
			if i > 0 {
				fmt.Fprintln(ui.Output)
			}
			if c.Save == "" {
				ui.PrintPresetDetails(presetDetails(preset.FromState("replay-"+ui.ShortID(ids[i]), s)))
				continue
			}
			p, path, err := a.savePreset(c.Save, s)
			if err != nil {
				return err
			}
			ui.PrintPresetDetails(presetDetails(p))
			ui.PrintSuccess(fmt.Sprintf("Saved preset '%s' to %s", p.Name, path))
		}
		return nil
	})
}

// generationInput prepares a stored generation for reconstruction.
func generationInput(g store.Generation) reconstruct.Input {
	return reconstruct.Input{
		ModelID:        g.ModelID,
		Prompt:         g.Prompt,
		NegativePrompt: g.NegativePrompt,
		Args:           g.Args,
		Metadata:       g.Metadata,
	}
}

type HistoryRmCmd struct {
	ID string `arg:"" help:"Entry id or unique prefix" predictor:"history-id"`
}

func (c *HistoryRmCmd) Run() error {
	return withStore(func(ctx context.Context, _ *app, st *store.Store) error {
		id, err := st.ResolveHistoryID(ctx, c.ID)
		if err != nil {
			return mapStoreError(err)
		}
		if err := st.DeleteHistory(ctx, id); err != nil {
			return mapStoreError(err)
		}
		ui.PrintSuccess(fmt.Sprintf("Entry %s removed.", ui.ShortID(id)))
		return nil
	})
}

// withStore runs fn with the application and an open database.
func withStore(fn func(ctx context.Context, a *app, st *store.Store) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, a, st)
}
