package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/auth"
	"github.com/alfredjeanlab/prestataires/internal/client"
	"github.com/alfredjeanlab/prestataires/internal/events"
	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/server"
	"github.com/alfredjeanlab/prestataires/internal/store/memstore"
	"github.com/google/go-cmp/cmp"
)

func TestParseSSE(t *testing.T) {
	stream := strings.Join([]string{
		":keepalive",
		"",
		"id:1",
		"event:vendors.vendor.created",
		`data:{"vendor":{"id":"pr-1"}}`,
		"",
		"id: 2",
		"event: vendors.photo.added",
		"data: line one",
		"data: line two",
		"",
		"data:no terminator",
	}, "\n")

	type got struct{ id, event, data string }
	var gotEvents []got
	if err := parseSSE(strings.NewReader(stream), func(id, event, data string) {
		gotEvents = append(gotEvents, got{id, event, data})
	}); err != nil {
		t.Fatal(err)
	}
	want := []got{
		{"1", "vendors.vendor.created", `{"vendor":{"id":"pr-1"}}`},
		{"2", "vendors.photo.added", "line one\nline two"},
	}
	if diff := cmp.Diff(want, gotEvents, cmp.AllowUnexported(got{})); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchBus(t *testing.T) {
	bus := events.NewLocalBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan watchEvent, 4)
	done := make(chan error, 1)
	go func() {
		done <- watchBus(ctx, bus, []string{events.TopicVendorDeleted, events.TopicPhotoAdded}, func(ev watchEvent) {
			received <- ev
		})
	}()

	// Subscriptions are registered asynchronously; publish until one lands.
	deadline := time.After(5 * time.Second)
	var ev watchEvent
	for ev.Topic == "" {
		_ = bus.Publish(ctx, events.TopicVendorCreated, events.VendorCreated{Vendor: &model.Vendor{ID: "pr-ignored"}})
		_ = bus.Publish(ctx, events.TopicVendorDeleted, events.VendorDeleted{VendorID: "pr-gone"})
		select {
		case ev = <-received:
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("no event received")
		}
	}
	if ev.Topic != events.TopicVendorDeleted || ev.VendorID != "pr-gone" {
		t.Errorf("event = %+v, want vendors.vendor.deleted for pr-gone", ev)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchBus: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchBus did not return after cancel")
	}
}

func TestWatchSSE(t *testing.T) {
	const secret = "watch-secret"
	srv := server.NewVendorServer(memstore.New(), &events.NoopPublisher{}, server.WithVerifier(auth.NewVerifier(secret)))
	ts := httptest.NewServer(srv.NewHTTPHandler())
	defer ts.Close()

	tok, err := auth.NewVerifier(secret).Issue(auth.Session{Subject: "test", Role: auth.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	admin := client.NewHTTPClient(ts.URL, tok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	received := make(chan watchEvent, 16)
	go func() {
		_ = watchSSE(ctx, ts.Client(), ts.URL, "", []string{events.TopicVendorCreated}, func(ev watchEvent) {
			received <- ev
		})
	}()

	deadline := time.After(5 * time.Second)
	for i := 0; ; i++ {
		in := &client.VendorInput{
			Name:     model.Ptr("Fleurs de Loire"),
			Category: model.Ptr(model.CategoryFlorist),
			Visible:  model.Ptr(true),
		}
		if _, err := admin.CreateVendor(ctx, in); err != nil {
			t.Fatalf("create vendor: %v", err)
		}
		select {
		case ev := <-received:
			if ev.Topic != events.TopicVendorCreated || !strings.HasPrefix(ev.VendorID, "pr-") {
				t.Errorf("event = %+v", ev)
			}
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatalf("no event after %d creations", i+1)
		}
	}
}

func TestWatchSSE_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer ts.Close()

	err := watchSSE(context.Background(), ts.Client(), ts.URL, "bad", defaultWatchTopics, func(watchEvent) {})
	var statusErr *streamStatusError
	if !errors.As(err, &statusErr) || statusErr.status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want HTTP 401", err)
	}
}
