package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
)

// openTest opens a fresh database whose clock advances one second per call.
func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "sdpanel.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func sampleGeneration(prompt string) Generation {
	seed := int64(42)
	return Generation{
		ModelID:        "sdxl",
		Prompt:         prompt,
		NegativePrompt: "blurry",
		Args: []request.Arg{
			{Flag: "--steps", Value: 20},
			{Flag: "--vae-tiling", Value: nil},
			{Flag: "--sampling-method", Value: "euler"},
		},
		Metadata: &request.Metadata{
			Seed: &seed,
			UsedNetworks: []request.UsedNetwork{
				{Type: request.KindLora, OriginalName: "style_x", Strength: 1.2, ContentHash: "h1"},
			},
		},
	}
}

func TestHistory_AddAndGet(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := openTest(t)
	g := sampleGeneration("a cat <lora:style_x:1.2>")

	// Act
	added, err := s.AddHistory(ctx, g, []string{"/out/1.png"})
	if err != nil {
		t.Fatalf("AddHistory() error = %v", err)
	}
	got, err := s.History(ctx, added.ID)

	// Assert
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	want := added
	// JSON numbers decode as float64.
	want.Args = []request.Arg{
		{Flag: "--steps", Value: float64(20)},
		{Flag: "--vae-tiling", Value: nil},
		{Flag: "--sampling-method", Value: "euler"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("History() mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_NotFound(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	if _, err := s.History(ctx, "nope"); !IsNotFound(err) {
		t.Errorf("History() error = %v, want NotFoundError", err)
	}
	if err := s.DeleteHistory(ctx, "nope"); !IsNotFound(err) {
		t.Errorf("DeleteHistory() error = %v, want NotFoundError", err)
	}
}

func TestHistory_ListCountDelete(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	var ids []string
	for _, p := range []string{"first", "second", "third"} {
		e, err := s.AddHistory(ctx, Generation{Prompt: p}, nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, e.ID)
	}

	tests := []struct {
		name          string
		limit, offset int
		want          []string
	}{
		{"all newest first", 0, 0, []string{"third", "second", "first"}},
		{"limit", 2, 0, []string{"third", "second"}},
		{"offset", 2, 2, []string{"first"}},
		{"offset past end", 5, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.ListHistory(ctx, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("ListHistory() error = %v", err)
			}
			var got []string
			for _, e := range entries {
				got = append(got, e.Prompt)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("prompts mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if err := s.DeleteHistory(ctx, ids[1]); err != nil {
		t.Fatalf("DeleteHistory() error = %v", err)
	}
	n, err := s.CountHistory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("CountHistory() = %d, want 2", n)
	}
}

func TestQueue_EnqueueOrderAndNext(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := openTest(t)
	a, _ := s.Enqueue(ctx, Generation{Prompt: "a"})
	b, _ := s.Enqueue(ctx, Generation{Prompt: "b"})
	c, err := s.Enqueue(ctx, Generation{Prompt: "c"})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	// Assert priorities
	if a.Priority != 1 || b.Priority != 2 || c.Priority != 3 {
		t.Errorf("priorities = %d, %d, %d", a.Priority, b.Priority, c.Priority)
	}

	// Act
	if err := s.SetStatus(ctx, a.ID, StatusRunning); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	next, ok, err := s.NextPending(ctx)

	// Assert
	if err != nil || !ok {
		t.Fatalf("NextPending() = %v, %v", ok, err)
	}
	if next.ID != b.ID {
		t.Errorf("NextPending() = %s, want %s", next.Prompt, "b")
	}
	got, err := s.Item(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusRunning {
		t.Errorf("status = %s, want running", got.Status)
	}
}

func TestQueue_NextPendingEmpty(t *testing.T) {
	s := openTest(t)

	_, ok, err := s.NextPending(context.Background())

	if err != nil || ok {
		t.Errorf("NextPending() = %v, %v, want false, nil", ok, err)
	}
}

func TestQueue_Reorder(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	var ids []string
	for _, p := range []string{"a", "b", "c", "d"} {
		it, err := s.Enqueue(ctx, Generation{Prompt: p})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, it.ID)
	}

	if err := s.Reorder(ctx, []string{ids[2], ids[0]}); err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}

	items, err := s.Queue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var prompts []string
	var prios []int
	for _, it := range items {
		prompts = append(prompts, it.Prompt)
		prios = append(prios, it.Priority)
	}
	if diff := cmp.Diff([]string{"c", "a", "b", "d"}, prompts); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4}, prios); diff != "" {
		t.Errorf("priorities mismatch (-want +got):\n%s", diff)
	}

	if err := s.Reorder(ctx, []string{"missing"}); !IsNotFound(err) {
		t.Errorf("Reorder(missing) error = %v, want NotFoundError", err)
	}
}

func TestQueue_DequeueAndClear(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	a, _ := s.Enqueue(ctx, Generation{Prompt: "a"})
	s.Enqueue(ctx, Generation{Prompt: "b"})
	s.Enqueue(ctx, Generation{Prompt: "c"})

	if err := s.Dequeue(ctx, a.ID); err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	if err := s.Dequeue(ctx, a.ID); !IsNotFound(err) {
		t.Errorf("second Dequeue() error = %v, want NotFoundError", err)
	}
	n, err := s.ClearQueue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("ClearQueue() removed %d, want 2", n)
	}
	if err := s.SetStatus(ctx, a.ID, StatusFailed); !IsNotFound(err) {
		t.Errorf("SetStatus() error = %v, want NotFoundError", err)
	}
}

func TestQueue_Complete(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := openTest(t)
	it, err := s.Enqueue(ctx, sampleGeneration("queued"))
	if err != nil {
		t.Fatal(err)
	}

	// Act
	e, err := s.Complete(ctx, it.ID, []string{"/out/a.png", "/out/b.png"})

	// Assert
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, err := s.Item(ctx, it.ID); !IsNotFound(err) {
		t.Errorf("item still queued: %v", err)
	}
	got, err := s.History(ctx, e.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if got.Prompt != "queued" || got.ModelID != "sdxl" {
		t.Errorf("history entry = %+v", got)
	}
	if diff := cmp.Diff([]string{"/out/a.png", "/out/b.png"}, got.Outputs); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}
	if got.Metadata == nil || len(got.Metadata.UsedNetworks) != 1 || *got.Metadata.Seed != 42 {
		t.Errorf("metadata = %+v", got.Metadata)
	}

	if _, err := s.Complete(ctx, it.ID, nil); !IsNotFound(err) {
		t.Errorf("second Complete() error = %v, want NotFoundError", err)
	}
}

func TestQueue_ResetRunning(t *testing.T) {
	// Arrange
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sdpanel.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	it, _ := s.Enqueue(ctx, Generation{Prompt: "interrupted"})
	failed, _ := s.Enqueue(ctx, Generation{Prompt: "broken"})
	if err := s.SetStatus(ctx, it.ID, StatusRunning); err != nil {
		t.Fatal(err)
	}
	if err := s.SetStatus(ctx, failed.ID, StatusFailed); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if got, _ := s.Item(ctx, it.ID); got.Status != StatusRunning {
		t.Fatalf("status after reopen = %s, want running", got.Status)
	}

	// Act
	n, err := s.ResetRunning(ctx)

	// Assert
	if err != nil {
		t.Fatalf("ResetRunning() error = %v", err)
	}
	if n != 1 {
		t.Errorf("ResetRunning() = %d, want 1", n)
	}
	got, err := s.Item(ctx, it.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got, _ := s.Item(ctx, failed.ID); got.Status != StatusFailed {
		t.Errorf("failed item status = %s, want failed", got.Status)
	}
}

func TestParseStatus(t *testing.T) {
	if st, err := ParseStatus("failed"); err != nil || st != StatusFailed {
		t.Errorf("ParseStatus(failed) = %v, %v", st, err)
	}
	if _, err := ParseStatus("done"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestResolveHistoryID(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	e, err := s.AddHistory(ctx, Generation{Prompt: "only"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		prefix  string
		want    string
		wantNF  bool
		wantErr bool
	}{
		{"full id", e.ID, e.ID, false, false},
		{"short prefix", e.ID[:8], e.ID, false, false},
		{"no match", "zzzz", "", true, true},
		{"empty", "", "", true, true},
		{"wildcard is literal", "%", "", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ResolveHistoryID(ctx, tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveHistoryID(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
			}
			if IsNotFound(err) != tt.wantNF {
				t.Errorf("IsNotFound(%v) = %v, want %v", err, IsNotFound(err), tt.wantNF)
			}
			if got != tt.want {
				t.Errorf("ResolveHistoryID(%q) = %q, want %q", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestResolveQueueID_Ambiguous(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	for i := 0; i < 40; i++ {
		if _, err := s.Enqueue(ctx, Generation{Prompt: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	// 40 random uuids cannot all start with distinct hex digits.
	ids, err := s.QueueIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[byte]bool{}
	var prefix string
	for _, id := range ids {
		if seen[id[0]] {
			prefix = id[:1]
			break
		}
		seen[id[0]] = true
	}

	_, err = s.ResolveQueueID(ctx, prefix)

	var amb *AmbiguousIDError
	if !errors.As(err, &amb) {
		t.Errorf("ResolveQueueID(%q) error = %v, want AmbiguousIDError", prefix, err)
	}
}
