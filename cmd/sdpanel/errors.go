package main

import "fmt"

// Exit codes for CLI commands.
const (
	exitSuccess        = 0
	exitError          = 1
	exitInvalidInput   = 2
	exitPresetNotFound = 3
	exitAssetNotFound  = 4
	exitEntryNotFound  = 5
)

// ExitKind selects how main reports an ExitError.
type ExitKind int

const (
	// ExitKindError prints the message as an error.
	ExitKindError ExitKind = iota
	// ExitKindQuiet exits with the code only; the command already reported.
	ExitKindQuiet
)

// ExitError represents an error that should cause the process to exit with a specific code.
type ExitError struct {
	Code    int
	Kind    ExitKind
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func errInvalidInput(format string, args ...any) *ExitError {
	return &ExitError{
		Code:    exitInvalidInput,
		Message: fmt.Sprintf(format, args...),
	}
}

func errPresetNotFound(name string) *ExitError {
	return &ExitError{
		Code:    exitPresetNotFound,
		Message: fmt.Sprintf("Preset '%s' not found.\nRun: sdpanel preset ls", name),
	}
}

func errAssetNotFound(ref string) *ExitError {
	return &ExitError{
		Code:    exitAssetNotFound,
		Message: fmt.Sprintf("Asset '%s' not found.\nRun: sdpanel lib scan <dir> --kind <kind>", ref),
	}
}

func errEntryNotFound(table, id string) *ExitError {
	return &ExitError{
		Code:    exitEntryNotFound,
		Message: fmt.Sprintf("No %s entry matches '%s'.", table, id),
	}
}

func errQueueEmpty() *ExitError {
	return &ExitError{
		Code: exitEntryNotFound,
		Kind: ExitKindQuiet,
	}
}
