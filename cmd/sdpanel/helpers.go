package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/catalog"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/compiler"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/config"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/identifier"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/library"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/logging"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/preset"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/reconstruct"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/store"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/ui"
)

// stdin is the input source for prompts. Can be replaced for testing.
var stdin = bufio.NewReader(os.Stdin)

// promptConfirm prompts the user for a yes/no confirmation.
// Returns true only if user enters "y" or "Y".
func promptConfirm(message string) bool {
	fmt.Fprintf(ui.Output, "%s (y/N): ", message)
	input, err := stdin.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(input)
	return input == "y" || input == "Y"
}

func getPaths() (*config.Paths, error) {
	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("get paths: %w", err)
	}
	return paths, nil
}

// app bundles what every command needs: paths, settings, the log and the
// argument catalog.
type app struct {
	paths    *config.Paths
	settings config.Settings
	logger   *slog.Logger
	catalog  *catalog.Catalog
	logFile  io.Closer
}

// newApp prepares the data directory, reads config.yaml and opens the log.
func newApp() (*app, error) {
	paths, err := getPaths()
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}

	settings, settingsErr := config.LoadSettings(paths.Config)
	level, levelErr := logging.ParseLevel(settings.LogLevel)

	w := logging.NewRotatingWriter(logging.DefaultConfig(paths.Log))
	logger := logging.NewLogger(w, level)
	if settingsErr != nil {
		ui.PrintWarning(fmt.Sprintf("Using default settings: %v", settingsErr))
		logger.Warn("settings unreadable", "path", paths.Config, "error", settingsErr)
	}
	if levelErr != nil {
		logger.Warn("log level ignored", "error", levelErr)
	}

	return &app{
		paths:    paths,
		settings: settings,
		logger:   logger,
		catalog:  catalog.Load(settings.Catalog, settings.PersistentCategories, logger),
		logFile:  w,
	}, nil
}

func (a *app) Close() error {
	return a.logFile.Close()
}

func (a *app) compiler() *compiler.Compiler {
	return compiler.New(a.catalog, a.logger)
}

// library loads the asset library.
func (a *app) library(ctx context.Context) (*library.Store, error) {
	lib := library.NewStore(a.paths.Library)
	if err := lib.Load(ctx); err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	return lib, nil
}

// openStore opens the history and queue database.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, a.paths.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// reconstructor resolves against the current library content.
func (a *app) reconstructor(lib *library.Store) *reconstruct.Reconstructor {
	return reconstruct.New(a.catalog, reconstruct.Snapshot{
		Loras:      lib.Snapshot(library.KindLora),
		Embeddings: lib.Snapshot(library.KindEmbedding),
	}, a.logger)
}

// applyAutoAppend turns on the configured trigger defaults for requests that
// do not set them. Kinds already on stay on.
func (a *app) applyAutoAppend(s *request.State, p *preset.Preset) {
	if p != nil && p.AutoAppend != nil {
		return
	}
	s.SetAutoAppend(request.KindLora, s.ShouldAutoAppend(request.KindLora) || a.settings.AutoAppendTriggers.Lora)
	s.SetAutoAppend(request.KindEmbedding, s.ShouldAutoAppend(request.KindEmbedding) || a.settings.AutoAppendTriggers.Embedding)
}

// savePreset stores s as the preset name. When the preset exists, s replaces
// its request and the preset's persistent parameters are kept. Trigger
// auto-append detected in s is carried over.
func (a *app) savePreset(name string, s *request.State) (*preset.Preset, string, error) {
	loader := preset.NewLoader(a.paths.Presets)
	existing, err := loader.Load(name)
	switch {
	case err == nil:
		base := existing.State()
		base.Restore(s, a.catalog)
		for _, kind := range []request.Kind{request.KindLora, request.KindEmbedding} {
			if s.ShouldAutoAppend(kind) {
				base.SetAutoAppend(kind, true)
			}
		}
		s = base
	case !preset.IsNotFound(err):
		return nil, "", err
	}

	p := preset.FromState(name, s)
	path, err := loader.Save(p)
	if err != nil {
		return nil, "", fmt.Errorf("save preset: %w", err)
	}
	return p, path, nil
}

// catalogDefaults lists the catalog's default-enabled arguments with their
// default values. Definitions without a default are skipped.
func catalogDefaults(cat *catalog.Catalog) []request.Default {
	var out []request.Default
	for _, d := range cat.Defaults() {
		if d.Default == nil {
			continue
		}
		out = append(out, request.Default{Flag: d.Primary(), Value: d.Default})
	}
	return out
}

// mapPresetError converts preset package errors to user-friendly errors.
func mapPresetError(err error, name string) error {
	if preset.IsNotFound(err) {
		return errPresetNotFound(name)
	}
	return err
}

// mapStoreError converts store package errors to user-friendly errors.
func mapStoreError(err error) error {
	var nf *store.NotFoundError
	if errors.As(err, &nf) {
		return errEntryNotFound(nf.Table, nf.ID)
	}
	var amb *store.AmbiguousIDError
	if errors.As(err, &amb) {
		return errInvalidInput("%v; give more characters", amb)
	}
	return err
}

// loadPreset loads the preset named by ref (p:name or f:path).
func (a *app) loadPreset(ref string) (*preset.Preset, error) {
	id, err := identifier.Parse(ref)
	if err != nil {
		return nil, errInvalidInput("invalid identifier: %v", err)
	}
	switch id.Type {
	case identifier.TypePresetName:
		p, err := preset.NewLoader(a.paths.Presets).Load(id.Value)
		if err != nil {
			return nil, mapPresetError(err, id.Value)
		}
		return p, nil
	case identifier.TypeFilePath:
		p, err := preset.LoadFile(id.Value)
		if err != nil {
			return nil, fmt.Errorf("load preset file: %w", err)
		}
		return p, nil
	default:
		return nil, errInvalidInput("expected a preset (p:name or f:path/to/preset.yaml), got %s", id)
	}
}

// findAsset looks up an asset by library id or h:/r:/n: identifier.
func findAsset(lib *library.Store, ref string) (library.Record, error) {
	if r := lib.Find(ref); r != nil {
		return *r, nil
	}
	id, err := identifier.Parse(ref)
	if err != nil || !id.IsAsset() {
		return library.Record{}, errAssetNotFound(ref)
	}
	rec, ok := library.NewIndex(lib.List("")).FindBestMatch(id.Lookup())
	if !ok {
		return library.Record{}, errAssetNotFound(ref)
	}
	return rec, nil
}

// argRows converts compiled arguments for display.
func argRows(args []request.Arg) []ui.ArgRow {
	rows := make([]ui.ArgRow, 0, len(args))
	for _, a := range args {
		rows = append(rows, ui.ArgRow{
			Flag:  a.Flag,
			Value: request.FormatValue(a.Value),
			Bare:  a.Value == nil,
		})
	}
	return rows
}

// shellQuote quotes s for POSIX shells when it contains anything but safe
// characters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=,+@%", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
