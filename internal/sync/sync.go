package sync

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Destination receives catalogue snapshots.
type Destination interface {
	// Write stores one complete JSONL snapshot, replacing the previous one.
	Write(ctx context.Context, data []byte) error
}

// Scheduler exports the catalogue on an interval. A snapshot whose vendor
// records match the last one delivered everywhere is not written again.
type Scheduler struct {
	catalogue    Catalogue
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	mu         sync.Mutex // serializes SyncOnce
	lastDigest [sha256.Size]byte
	synced     bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(c Catalogue, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		catalogue:    c,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start syncs immediately, then on every tick until ctx ends or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			_ = s.SyncOnce(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop cancels the schedule and waits for a running sync to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// SyncOnce exports the catalogue and writes it to every destination in
// parallel. Every destination is attempted; the errors of those that failed
// are joined.
func (s *Scheduler) SyncOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.catalogue, &buf); err != nil {
		s.logger.Error("catalogue export failed", "err", err)
		return err
	}
	data := buf.Bytes()

	digest := recordsDigest(data)
	if s.synced && digest == s.lastDigest {
		s.logger.Debug("catalogue unchanged, sync skipped")
		return nil
	}

	errs := make([]error, len(s.destinations))
	var g errgroup.Group
	for i, dest := range s.destinations {
		g.Go(func() error {
			if err := dest.Write(ctx, data); err != nil {
				s.logger.Error("sync destination write failed", "destination", fmt.Sprintf("%d:%T", i, dest), "err", err)
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.lastDigest, s.synced = digest, true
	s.logger.Info("catalogue synced", "destinations", len(s.destinations), "bytes", len(data))
	return nil
}

// recordsDigest hashes a snapshot without its header line, whose timestamp
// changes on every export.
func recordsDigest(data []byte) [sha256.Size]byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[i+1:]
	}
	return sha256.Sum256(data)
}
