package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/events"
)

const (
	// streamBacklog is how many recent events are kept for Last-Event-ID
	// replay.
	streamBacklog = 1000

	streamKeepalive = 15 * time.Second

	// streamRetry is the reconnect delay advertised to EventSource clients.
	streamRetry = time.Second
)

// streamEvent is one directory event as sent on the stream.
type streamEvent struct {
	Seq   uint64
	Topic string
	Data  []byte
}

// eventStream fans directory events out to SSE watchers and keeps a bounded
// backlog for reconnecting clients.
type eventStream struct {
	mu       sync.Mutex
	seq      uint64
	backlog  []streamEvent // oldest first, at most streamBacklog entries
	watchers map[*watcher]struct{}
}

type watcher struct {
	patterns []string // NATS-style subject patterns; empty matches everything
	out      chan streamEvent
}

func newEventStream() *eventStream {
	return &eventStream{watchers: make(map[*watcher]struct{})}
}

func (w *watcher) wants(topic string) bool {
	if len(w.patterns) == 0 {
		return true
	}
	for _, p := range w.patterns {
		if events.SubjectMatches(p, topic) {
			return true
		}
	}
	return false
}

// append records an event and delivers it to matching watchers. A watcher
// whose buffer is full misses the event.
func (s *eventStream) append(topic string, data []byte) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	ev := streamEvent{Seq: s.seq, Topic: topic, Data: data}
	if len(s.backlog) == streamBacklog {
		copy(s.backlog, s.backlog[1:])
		s.backlog = s.backlog[:streamBacklog-1]
	}
	s.backlog = append(s.backlog, ev)

	for w := range s.watchers {
		if !w.wants(topic) {
			continue
		}
		select {
		case w.out <- ev:
		default:
		}
	}
	return ev.Seq
}

// watch registers a watcher and returns the backlogged events after since
// that it wants. Registration and replay happen under one lock, so nothing
// is delivered twice or lost between them. since == 0 replays nothing.
func (s *eventStream) watch(patterns []string, since uint64) (*watcher, []streamEvent) {
	w := &watcher{patterns: patterns, out: make(chan streamEvent, 64)}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers[w] = struct{}{}

	if since == 0 {
		return w, nil
	}
	var replay []streamEvent
	for _, ev := range s.backlog {
		if ev.Seq > since && w.wants(ev.Topic) {
			replay = append(replay, ev)
		}
	}
	return w, replay
}

func (s *eventStream) unwatch(w *watcher) {
	s.mu.Lock()
	delete(s.watchers, w)
	s.mu.Unlock()
}

func (s *eventStream) watcherCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}

// parseTopics splits a comma separated topics parameter.
func parseTopics(raw string) []string {
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// handleEventStream handles GET /v1/events/stream.
//
// ?topics=vendors.vendor.*,vendors.photo.added filters the stream. A client
// sending Last-Event-ID gets the buffered events it missed first.
func (s *VendorServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var since uint64
	if raw := r.Header.Get("Last-Event-ID"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid Last-Event-ID")
			return
		}
		since = n
	}

	wt, replay := s.stream.watch(parseTopics(r.URL.Query().Get("topics")), since)
	defer s.stream.unwatch(wt)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "retry:%d\n\n", streamRetry.Milliseconds())
	for _, ev := range replay {
		writeStreamEvent(w, ev)
	}
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-wt.out:
			writeStreamEvent(w, ev)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w io.Writer, ev streamEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", ev.Seq, ev.Topic, ev.Data)
}

// broadcastEvent sends a published event to stream watchers.
func (s *VendorServer) broadcastEvent(topic string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to encode stream event", "topic", topic, "error", err)
		return
	}
	s.stream.append(topic, data)
}
