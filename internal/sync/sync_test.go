package sync

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alfredjeanlab/prestataires/internal/store/memstore"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	err    error
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return d.err
}

func TestSchedulerStartStop(t *testing.T) {
	dest := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(newCatalogue(t), []Destination{dest}, 20*time.Millisecond, logger)
	sched.Start(context.Background())

	// Several ticks pass over an unchanged catalogue.
	time.Sleep(100 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes != 1 {
		t.Fatalf("expected 1 write for an unchanged catalogue, got %d", writes)
	}

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}

	lines := nonEmptyLines(string(data))
	// 1 header + 2 public vendors = 3
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}

func TestSchedulerStart_ContextCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := NewScheduler(memstore.New(), nil, time.Minute, logger)

	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		sched.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler kept running after its context ended")
	}
}

func TestSyncOnce_SkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	ms := newCatalogue(t)
	dest := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := NewScheduler(ms, []Destination{dest}, time.Minute, logger)

	for range 2 {
		if err := sched.SyncOnce(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if n := dest.writes.Load(); n != 1 {
		t.Fatalf("writes after two identical syncs = %d, want 1", n)
	}

	v, err := ms.GetVendor(ctx, "pr-a")
	if err != nil {
		t.Fatal(err)
	}
	v.Name = "Atelier Floral"
	if err := ms.UpdateVendor(ctx, v); err != nil {
		t.Fatal(err)
	}
	if err := sched.SyncOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if n := dest.writes.Load(); n != 2 {
		t.Fatalf("writes after a change = %d, want 2", n)
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := NewScheduler(memstore.New(), nil, time.Minute, logger)
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSchedulerMultipleDestinations(t *testing.T) {
	dest1 := &mockDestination{}
	dest2 := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(memstore.New(), []Destination{dest1, dest2}, time.Second, logger)
	sched.Start(context.Background())

	// Wait for the initial sync.
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	if dest1.writes.Load() < 1 {
		t.Fatal("dest1 expected at least 1 write")
	}
	if dest2.writes.Load() < 1 {
		t.Fatal("dest2 expected at least 1 write")
	}
}

func TestSyncOnce_DestinationFailure(t *testing.T) {
	boom := errors.New("disk full")
	failing := &mockDestination{err: boom}
	ok := &mockDestination{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sched := NewScheduler(memstore.New(), []Destination{failing, ok}, time.Minute, logger)
	if err := sched.SyncOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("SyncOnce = %v, want %v", err, boom)
	}
	if ok.writes.Load() != 1 {
		t.Error("later destinations must still be written")
	}

	// A failed sync is retried even though the catalogue did not change.
	failing.err = nil
	if err := sched.SyncOnce(context.Background()); err != nil {
		t.Fatalf("retry SyncOnce = %v", err)
	}
	if failing.writes.Load() != 2 {
		t.Errorf("failing destination written %d times, want 2", failing.writes.Load())
	}
}

func TestFileDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "catalogue.jsonl")
	dest := NewFileDestination(path)

	for _, content := range []string{"first\n", "second\n"} {
		if err := dest.Write(context.Background(), []byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != content {
			t.Errorf("file = %q, want %q", got, content)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

type recordingPutter struct {
	in *s3.PutObjectInput
}

func (r *recordingPutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	r.in = in
	return &s3.PutObjectOutput{}, nil
}

func TestS3Destination(t *testing.T) {
	rp := &recordingPutter{}
	dest := NewS3DestinationWithClient(rp, "backups", "catalogue/prestataires.jsonl")
	if err := dest.Write(context.Background(), []byte("{}\n")); err != nil {
		t.Fatal(err)
	}
	if aws.ToString(rp.in.Bucket) != "backups" || aws.ToString(rp.in.Key) != "catalogue/prestataires.jsonl" {
		t.Errorf("put %s/%s", aws.ToString(rp.in.Bucket), aws.ToString(rp.in.Key))
	}
	if aws.ToString(rp.in.ContentType) != "application/x-ndjson" {
		t.Errorf("ContentType = %q", aws.ToString(rp.in.ContentType))
	}
}
