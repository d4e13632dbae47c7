package main

import (
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/ui"
)

type CatalogCmd struct{}

func (c *CatalogCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	grouped := a.catalog.Categorized()
	out := make(map[string][]ui.CatalogEntry, len(grouped))
	for cat, defs := range grouped {
		for _, d := range defs {
			out[cat] = append(out[cat], ui.CatalogEntry{
				Flag: d.Flag,
				Type: string(d.Type),
				Kind: d.Kind().String(),
				Desc: d.Desc,
			})
		}
	}
	ui.PrintCatalog(out)
	return nil
}
