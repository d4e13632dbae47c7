package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/store"
)

func TestExitErrorImplementsError(t *testing.T) {
	err := &ExitError{Code: 1, Message: "something failed"}

	got := err.Error()
	want := "something failed"

	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestExitErrorUnwrapWithErrorsAs(t *testing.T) {
	var wrapped error = fmt.Errorf("compile: %w", errPresetNotFound("portrait"))

	var exitErr *ExitError
	if !errors.As(wrapped, &exitErr) {
		t.Fatal("errors.As did not match ExitError")
	}

	if exitErr.Code != exitPresetNotFound {
		t.Errorf("Code = %d, want %d", exitErr.Code, exitPresetNotFound)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *ExitError
		wantCode int
		wantMsg  string
	}{
		{"preset not found", errPresetNotFound("portrait"), exitPresetNotFound, "Preset 'portrait' not found.\nRun: sdpanel preset ls"},
		{"asset not found", errAssetNotFound("n:sdxl"), exitAssetNotFound, "Asset 'n:sdxl' not found.\nRun: sdpanel lib scan <dir> --kind <kind>"},
		{"entry not found", errEntryNotFound("history", "abc"), exitEntryNotFound, "No history entry matches 'abc'."},
		{"invalid input", errInvalidInput("bad %s", "args"), exitInvalidInput, "bad args"},
		{"queue empty", errQueueEmpty(), exitEntryNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.wantCode)
			}
			if tt.err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.wantMsg)
			}
		})
	}
}

func TestMapStoreError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", &store.NotFoundError{Table: "queue", ID: "x"}, exitEntryNotFound},
		{"ambiguous", &store.AmbiguousIDError{Table: "queue", Prefix: "a"}, exitInvalidInput},
		{"other", errors.New("disk full"), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapStoreError(tt.err)
			var exitErr *ExitError
			if !errors.As(got, &exitErr) {
				if tt.wantCode != -1 {
					t.Fatalf("mapStoreError() = %v, want ExitError", got)
				}
				return
			}
			if exitErr.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", exitErr.Code, tt.wantCode)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	out := captureOutput(t)

	if got := exitCode(errQueueEmpty()); got != exitEntryNotFound {
		t.Errorf("exitCode(queue empty) = %d", got)
	}
	if out.Len() != 0 {
		t.Errorf("quiet error printed %q", out.String())
	}
	if got := exitCode(errors.New("boom")); got != exitError {
		t.Errorf("exitCode(plain) = %d, want %d", got, exitError)
	}
	if out.String() != "✗ boom\n" {
		t.Errorf("output = %q", out.String())
	}
}
