package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/library"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/ui"
)

type LibCmd struct {
	List   LibListCmd `cmd:"" name:"ls" help:"List library assets"`
	Scan   LibScanCmd `cmd:"" help:"Import model files from a directory"`
	Show   LibShowCmd `cmd:"" help:"Show asset details"`
	Remove LibRmCmd   `cmd:"" name:"rm" help:"Forget an asset (the file is kept)"`
}

type LibListCmd struct {
	Kind string `short:"k" help:"Only list assets of this kind (checkpoint, lora or embedding)"`
}

func (c *LibListCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var kind library.Kind
	if c.Kind != "" {
		if kind, err = library.ParseKind(c.Kind); err != nil {
			return errInvalidInput("%v", err)
		}
	}

	lib, err := a.library(context.Background())
	if err != nil {
		return err
	}

	records := lib.List(kind)
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Kind != records[j].Kind {
			return records[i].Kind < records[j].Kind
		}
		return records[i].CanonicalName() < records[j].CanonicalName()
	})

	assets := make([]ui.AssetInfo, 0, len(records))
	for _, r := range records {
		assets = append(assets, ui.AssetInfo{
			Kind:  string(r.Kind),
			Name:  r.CanonicalName(),
			Alias: r.Alias,
			Hash:  r.ContentHash,
		})
	}
	ui.PrintAssetList(assets)
	return nil
}

type LibScanCmd struct {
	Dir  string `arg:"" type:"existingdir" help:"Directory to scan"`
	Kind string `short:"k" required:"" help:"Kind of the assets in the directory (checkpoint, lora or embedding)"`
	Hash bool   `help:"Compute SHA-256 content hashes (slow for large files)"`
}

func (c *LibScanCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	kind, err := library.ParseKind(c.Kind)
	if err != nil {
		return errInvalidInput("%v", err)
	}

	ctx := context.Background()
	lib, err := a.library(ctx)
	if err != nil {
		return err
	}
	if c.Hash {
		ui.PrintInfo("Hashing new files, this may take a while...")
	}
	res, err := lib.Scan(ctx, c.Dir, kind, library.ScanOptions{Hash: c.Hash})
	if err != nil {
		return err
	}
	if err := lib.Save(ctx); err != nil {
		return err
	}

	a.logger.Info("library scanned", "dir", c.Dir, "kind", kind, "added", res.Added, "removed", res.Removed, "hashed", res.Hashed)
	ui.PrintSuccess(fmt.Sprintf("Scanned %s: %d added, %d removed, %d hashed.", c.Dir, res.Added, res.Removed, res.Hashed))
	return nil
}

type LibShowCmd struct {
	Ref string `arg:"" help:"Asset id, h:<hash>, r:<remote version> or n:<name>" predictor:"asset"`
}

func (c *LibShowCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	lib, err := a.library(context.Background())
	if err != nil {
		return err
	}
	r, err := findAsset(lib, c.Ref)
	if err != nil {
		return err
	}

	ui.PrintAssetDetails(ui.AssetDetails{
		ID:              r.ID,
		Kind:            string(r.Kind),
		Name:            r.Name,
		Alias:           r.Alias,
		Path:            r.Path,
		Triggers:        r.Triggers,
		Strength:        r.Strength(),
		Hash:            r.ContentHash,
		RemoteVersionID: r.RemoteVersionID,
		BaseModel:       r.BaseModel,
	})
	return nil
}

type LibRmCmd struct {
	Ref   string `arg:"" help:"Asset id, h:<hash>, r:<remote version> or n:<name>" predictor:"asset"`
	Force bool   `short:"f" help:"Do not ask for confirmation"`
}

func (c *LibRmCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	lib, err := a.library(ctx)
	if err != nil {
		return err
	}
	r, err := findAsset(lib, c.Ref)
	if err != nil {
		return err
	}

	if !c.Force && !promptConfirm(fmt.Sprintf("Forget %s '%s'?", r.Kind, r.CanonicalName())) {
		fmt.Fprintln(ui.Output, "Cancelled.")
		return nil
	}
	if err := lib.Remove(r.ID); err != nil {
		if library.IsNotFound(err) {
			return errAssetNotFound(c.Ref)
		}
		return err
	}
	if err := lib.Save(ctx); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Asset '%s' removed from the library.", r.CanonicalName()))
	return nil
}
