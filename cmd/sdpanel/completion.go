package main

import (
	"context"
	"strings"

	"github.com/posener/complete"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/library"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/preset"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/store"
)

// predictors returns the named predictors referenced by predictor:"" tags.
func predictors() map[string]complete.Predictor {
	return map[string]complete.Predictor{
		"preset":        complete.PredictFunc(predictPresetNames),
		"preset-source": newIdentifierPredictor([]string{"p:", "f:"}),
		"asset":         newIdentifierPredictor([]string{"n:", "h:"}),
		"history-id":    complete.PredictFunc(predictHistoryIDs),
		"queue-id":      complete.PredictFunc(predictQueueIDs),
	}
}

// identifierPredictor implements complete.Predictor for identifier completion.
type identifierPredictor struct {
	validPrefixes []string
}

// newIdentifierPredictor returns a predictor that completes identifiers based on prefix.
// validPrefixes determines which prefixes to suggest when no input is provided.
func newIdentifierPredictor(validPrefixes []string) complete.Predictor {
	return &identifierPredictor{validPrefixes: validPrefixes}
}

// Predict implements complete.Predictor interface.
func (p *identifierPredictor) Predict(args complete.Args) []string {
	value := args.Last

	paths, err := getPaths()
	if err != nil {
		return nil
	}

	// complete.Predictor carries no context; lookups are local file reads.
	ctx := context.Background()

	predict := func(prefix, partial string) []string {
		switch prefix {
		case "p:":
			return completePresets(paths.Presets, partial)
		case "n:", "h:":
			return completeAssets(ctx, paths.Library, prefix, partial)
		}
		// f: falls back to the shell's own file completion.
		return nil
	}

	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(value, prefix) {
			return predict(prefix, value)
		}
	}

	var results []string
	for _, prefix := range p.validPrefixes {
		results = append(results, predict(prefix, prefix)...)
	}
	return results
}

// completePresets returns preset name completions.
func completePresets(presetsDir, partial string) []string {
	names, err := preset.NewLoader(presetsDir).List()
	if err != nil && len(names) == 0 {
		return nil
	}

	results := make([]string, 0, len(names))
	for _, name := range names {
		completion := "p:" + name
		if strings.HasPrefix(completion, partial) {
			results = append(results, completion)
		}
	}
	return results
}

// completeAssets returns library asset completions: n:<name> or h:<hash>.
func completeAssets(ctx context.Context, libraryPath, prefix, partial string) []string {
	lib := library.NewStore(libraryPath)
	if err := lib.Load(ctx); err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var results []string
	add := func(value string) {
		completion := prefix + value
		if value == "" || seen[completion] || !strings.HasPrefix(completion, partial) {
			return
		}
		seen[completion] = true
		results = append(results, completion)
	}
	for _, r := range lib.List("") {
		switch prefix {
		case "n:":
			add(r.Name)
			add(r.Alias)
		case "h:":
			add(r.ContentHash)
		}
	}
	return results
}

func predictPresetNames(args complete.Args) []string {
	paths, err := getPaths()
	if err != nil {
		return nil
	}
	var names []string
	for _, c := range completePresets(paths.Presets, "p:"+args.Last) {
		names = append(names, strings.TrimPrefix(c, "p:"))
	}
	return names
}

func predictHistoryIDs(args complete.Args) []string {
	return completeIDs(args.Last, func(ctx context.Context, st *store.Store) ([]string, error) {
		return st.HistoryIDs(ctx, 50)
	})
}

func predictQueueIDs(args complete.Args) []string {
	return completeIDs(args.Last, func(ctx context.Context, st *store.Store) ([]string, error) {
		return st.QueueIDs(ctx)
	})
}

// completeIDs lists ids from the database without creating it.
func completeIDs(partial string, list func(context.Context, *store.Store) ([]string, error)) []string {
	paths, err := getPaths()
	if err != nil {
		return nil
	}
	ctx := context.Background()
	if !fileExists(paths.Database) {
		return nil
	}
	st, err := store.Open(ctx, paths.Database)
	if err != nil {
		return nil
	}
	defer st.Close()

	ids, err := list(ctx, st)
	if err != nil {
		return nil
	}
	var results []string
	for _, id := range ids {
		if strings.HasPrefix(id, partial) {
			results = append(results, id)
		}
	}
	return results
}
