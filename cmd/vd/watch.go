package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/events"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var defaultWatchTopics = []string{
	events.TopicVendorCreated,
	events.TopicVendorUpdated,
	events.TopicVendorDeleted,
	events.TopicPhotoAdded,
}

// watchEvent is one directory change as printed by `vd watch`.
type watchEvent struct {
	Topic    string          `json:"topic"`
	VendorID string          `json:"vendor_id,omitempty"`
	Data     json.RawMessage `json:"data"`
}

// watchBus streams events for each topic from sub until ctx is done. Topics
// get their own subscription so every event keeps its subject.
func watchBus(ctx context.Context, sub events.Subscriber, topics []string, emit func(watchEvent)) error {
	type tagged struct {
		topic string
		data  []byte
	}
	ctx, cancelAll := context.WithCancel(ctx)
	defer cancelAll()

	merged := make(chan tagged)
	for _, topic := range topics {
		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		defer cancel()
		go func() {
			for data := range ch {
				select {
				case merged <- tagged{topic, data}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-merged:
			emit(watchEvent{Topic: m.topic, VendorID: events.VendorIDOf(m.data), Data: m.data})
		}
	}
}

// parseSSE reads a text/event-stream body and calls fn for every complete
// event. Comment lines (keepalives) are ignored.
func parseSSE(r io.Reader, fn func(id, event, data string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var id, event string
	var data []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if len(data) > 0 {
				fn(id, event, strings.Join(data, "\n"))
			}
			id, event, data = "", "", nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			id = value
		case "event":
			event = value
		case "data":
			data = append(data, value)
		}
	}
	return sc.Err()
}

// watchSSE follows the server's event stream, reconnecting with
// Last-Event-ID after a dropped connection.
func watchSSE(ctx context.Context, hc *http.Client, baseURL, tok string, topics []string, emit func(watchEvent)) error {
	endpoint := baseURL + "/v1/events/stream?topics=" + url.QueryEscape(strings.Join(topics, ","))
	var lastID string

	for {
		err := streamOnce(ctx, hc, endpoint, tok, lastID, func(id, topic, data string) {
			if id != "" {
				lastID = id
			}
			emit(watchEvent{Topic: topic, VendorID: events.VendorIDOf([]byte(data)), Data: json.RawMessage(data)})
		})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			var statusErr *streamStatusError
			if errors.As(err, &statusErr) {
				return err
			}
			log.Printf("event stream: %v; reconnecting", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

type streamStatusError struct {
	status int
	body   string
}

func (e *streamStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.status, e.body)
}

func streamOnce(ctx context.Context, hc *http.Client, endpoint, tok, lastID string, fn func(id, event, data string)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if lastID != "" {
		req.Header.Set("Last-Event-ID", lastID)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &streamStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return parseSSE(resp.Body, fn)
}

func printWatchEvent(w io.Writer, ev watchEvent) {
	if jsonOutput {
		data, _ := json.Marshal(ev)
		fmt.Fprintln(w, string(data))
		return
	}
	fmt.Fprintf(w, "%s  %-24s %s\n", time.Now().Format("15:04:05"), ev.Topic, ev.VendorID)
}

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream directory changes",
	GroupID: "browse",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, _ := cmd.Flags().GetStringSlice("topic")
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		emit := func(ev watchEvent) { printWatchEvent(cmd.OutOrStdout(), ev) }

		if natsURL == "" {
			return watchSSE(ctx, http.DefaultClient, strings.TrimRight(httpURL, "/"), token, topics, emit)
		}
		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return err
		}
		defer sub.Close()
		return watchBus(ctx, sub, topics, emit)
	},
}

func init() {
	watchCmd.Flags().StringSlice("topic", defaultWatchTopics, "event topics to follow")
	watchCmd.Flags().String("nats", os.Getenv("PRESTATAIRES_NATS_URL"), "NATS URL (default: server event stream over HTTP)")
}
