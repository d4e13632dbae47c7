package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get home dir: %v", err)
	}

	baseDir := "/base/dir"

	tests := []struct {
		name    string
		path    string
		baseDir string
		want    string
		wantErr bool
	}{
		{
			name:    "resolves dot-relative path",
			path:    "./style.safetensors",
			baseDir: baseDir,
			want:    "/base/dir/style.safetensors",
		},
		{
			name:    "resolves parent-relative path",
			path:    "../shared/style.safetensors",
			baseDir: baseDir,
			want:    "/base/shared/style.safetensors",
		},
		{
			name:    "resolves nested relative path",
			path:    "./subdir/style.safetensors",
			baseDir: baseDir,
			want:    "/base/dir/subdir/style.safetensors",
		},
		{
			name:    "expands tilde path",
			path:    "~/loras/style.safetensors",
			baseDir: baseDir,
			want:    filepath.Join(home, "loras/style.safetensors"),
		},
		{
			name:    "returns absolute path unchanged",
			path:    "/abs/path/style.safetensors",
			baseDir: baseDir,
			want:    "/abs/path/style.safetensors",
		},
		{
			name:    "resolves bare filename from baseDir",
			path:    "style.safetensors",
			baseDir: baseDir,
			want:    "/base/dir/style.safetensors",
		},
		{
			name:    "resolves bare path from baseDir",
			path:    "loras/style.safetensors",
			baseDir: baseDir,
			want:    "/base/dir/loras/style.safetensors",
		},
		{
			name:    "handles empty base dir with relative",
			path:    "./style.safetensors",
			baseDir: "",
			want:    "style.safetensors",
		},
		{
			name:    "tilde in middle of path is not expanded",
			path:    "/path/to/~user/file",
			baseDir: baseDir,
			want:    "/path/to/~user/file",
		},
		{
			name:    "empty path returns error",
			path:    "",
			baseDir: baseDir,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(tt.path, tt.baseDir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ResolvePath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ResolvePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveOptional(t *testing.T) {
	got, err := ResolveOptional("", "/base")
	if err != nil || got != "" {
		t.Errorf("ResolveOptional(\"\") = %q, %v", got, err)
	}
	got, err = ResolveOptional("loras", "/base")
	if err != nil || got != "/base/loras" {
		t.Errorf("ResolveOptional(loras) = %q, %v", got, err)
	}
}
