package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/willabides/kongplete"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/ui"
)

type CLI struct {
	Compile CompileCmd `cmd:"" help:"Compile a preset into engine arguments"`
	Restore RestoreCmd `cmd:"" help:"Rebuild a request from a compiled prompt and arguments"`
	History HistoryCmd `cmd:"" help:"Browse and replay past generations"`
	Queue   QueueCmd   `cmd:"" help:"Manage the generation queue"`
	Lib     LibCmd     `cmd:"" help:"Manage the asset library"`
	Preset  PresetCmd  `cmd:"" help:"Manage presets"`
	Catalog CatalogCmd `cmd:"" help:"List the engine arguments"`

	Version            VersionCmd                   `cmd:"" help:"Show version"`
	InstallCompletions kongplete.InstallCompletions `cmd:"" help:"Install shell completions"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		ui.PrintWarning(fmt.Sprintf("Ignoring .env: %v", err))
	}

	cli := CLI{}
	parser := kong.Must(&cli,
		kong.Name("sdpanel"),
		kong.Description("Prompt, preset and queue manager for stable-diffusion.cpp"),
		kong.UsageOnError(),
	)

	opts := make([]kongplete.Option, 0, len(predictors()))
	for name, p := range predictors() {
		opts = append(opts, kongplete.WithPredictor(name, p))
	}
	kongplete.Complete(parser, opts...)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := ctx.Run(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode reports err and returns the process exit code for it.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Kind == ExitKindError && exitErr.Message != "" {
			ui.PrintError(exitErr.Message)
		}
		return exitErr.Code
	}
	ui.PrintError(err.Error())
	return exitError
}
