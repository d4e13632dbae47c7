package main

import (
	"fmt"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/ui"
)

var version = "dev"

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(ui.Output, "sdpanel version %s\n", version)
	return nil
}
