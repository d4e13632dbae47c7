// Package editor runs the user's text editor on preset files.
package editor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
)

// candidates are tried on PATH when neither $VISUAL nor $EDITOR is set.
var candidates = []string{"nvim", "vim", "vi", "nano"}

// Command is an editor invocation: a program and its own leading arguments,
// as in VISUAL="code --wait".
type Command struct {
	Program string
	Args    []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// Parse splits an editor setting on whitespace.
func Parse(s string) (Command, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("editor command is empty")
	}
	return Command{Program: fields[0], Args: fields[1:]}, nil
}

// Find picks the editor from $VISUAL, then $EDITOR, then the first terminal
// editor found on PATH.
func Find() (Command, error) {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if c, err := Parse(os.Getenv(env)); err == nil {
			return c, nil
		}
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return Command{Program: path}, nil
		}
	}
	return Command{}, fmt.Errorf("no editor found: set $VISUAL or $EDITOR")
}

// Open runs the editor on file with the terminal attached and waits for it
// to exit.
func (c Command) Open(ctx context.Context, file string) error {
	if c.Program == "" {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.CommandContext(ctx, c.Program, append(slices.Clone(c.Args), file)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run editor %s: %w", c, err)
	}
	return nil
}
