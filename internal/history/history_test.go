package history_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/phrasecoach/internal/history"
	"github.com/MrWong99/phrasecoach/pkg/compare"
	"github.com/MrWong99/phrasecoach/pkg/types"
)

func TestNewAttempt(t *testing.T) {
	t.Parallel()

	rv := compare.ReviewUtterance("I want to go home.", types.Utterance{
		Text:       "I want go home now",
		Confidence: types.Confidence(0.9),
	})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	a := history.NewAttempt(rv, now)

	if a.ID == uuid.Nil {
		t.Error("expected a generated ID")
	}
	if !a.Timestamp.Equal(now) || a.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp: got %v, want %v in UTC", a.Timestamp, now)
	}
	if a.Target != rv.Target || a.Spoken != rv.Spoken || a.Score != rv.Score || a.Rating != rv.Rating {
		t.Errorf("attempt does not mirror the review: %+v", a)
	}
	if a.Correct != 4 || a.Missing != 1 || a.Extra != 1 {
		t.Errorf("tally: got correct=%d missing=%d extra=%d, want 4/1/1", a.Correct, a.Missing, a.Extra)
	}
	if a.Confidence == nil || *a.Confidence != 0.9 {
		t.Errorf("Confidence: got %v, want 0.9", a.Confidence)
	}

	if b := history.NewAttempt(rv, now); b.ID == a.ID {
		t.Error("two attempts share an ID")
	}
}

func TestNop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var r history.Recorder = history.Nop{}
	if err := r.Record(ctx, history.Attempt{Target: "x"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := r.Recent(ctx, "", 10)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("Recent: got %v, %v; want empty slice", got, err)
	}
}

func attempt(target string, score int, ts time.Time) history.Attempt {
	return history.Attempt{ID: uuid.New(), Timestamp: ts, Target: target, Score: score, Rating: compare.RatingPoor}
}

func TestFileStore_RecordAndRecent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := history.NewFileStore(filepath.Join(t.TempDir(), "attempts.jsonl"))

	got, err := fs.Recent(ctx, "", 0)
	if err != nil {
		t.Fatalf("Recent on missing file: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Recent on missing file: got %d attempts", len(got))
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, target := range []string{"Good morning", "The weather is nice.", "Good morning", "Good morning"} {
		if err := fs.Record(ctx, attempt(target, i*10, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	all, err := fs.Recent(ctx, "", 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("Recent: got %d attempts, want 4", len(all))
	}
	if all[0].Score != 30 || all[3].Score != 0 {
		t.Errorf("Recent should be newest first, got scores %d..%d", all[0].Score, all[3].Score)
	}

	morning, err := fs.Recent(ctx, "Good morning", 2)
	if err != nil {
		t.Fatalf("Recent filtered: %v", err)
	}
	if len(morning) != 2 {
		t.Fatalf("Recent filtered: got %d, want 2", len(morning))
	}
	for _, a := range morning {
		if a.Target != "Good morning" {
			t.Errorf("unexpected target %q", a.Target)
		}
	}
	if morning[0].Score != 30 || morning[1].Score != 20 {
		t.Errorf("filtered scores: got %d, %d; want 30, 20", morning[0].Score, morning[1].Score)
	}
}

func TestFileStore_SkipsCorruptLines(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "attempts.jsonl")
	fs := history.NewFileStore(path)

	if err := fs.Record(ctx, attempt("a", 1, time.Now())); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{not json\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if err := fs.Record(ctx, attempt("b", 2, time.Now())); err != nil {
		t.Fatal(err)
	}

	got, err := fs.Recent(ctx, "", 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent: got %d attempts, want 2", len(got))
	}
}

func TestFileStore_ConcurrentRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := history.NewFileStore(filepath.Join(t.TempDir(), "attempts.jsonl"))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fs.Record(ctx, attempt(fmt.Sprintf("phrase %d", i), i, time.Now())); err != nil {
				t.Errorf("Record: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := fs.Recent(ctx, "", 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("Recent: got %d attempts, want 20", len(got))
	}
}
