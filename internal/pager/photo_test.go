package pager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/model"
)

type countingPhotos struct {
	calls  atomic.Int32
	delay  time.Duration
	photos map[string]*model.Photo
	err    error
}

func (c *countingPhotos) PrimaryPhoto(_ context.Context, vendorID string) (*model.Photo, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	if c.err != nil {
		return nil, c.err
	}
	return c.photos[vendorID], nil
}

func TestPhotoLoader_Disabled(t *testing.T) {
	src := &countingPhotos{photos: map[string]*model.Photo{"v1": {URL: "a"}}}
	l := NewPhotoLoader(src)
	p, err := l.Load(context.Background(), "v1", false)
	if err != nil || p != nil {
		t.Fatalf("disabled Load = %v, %v; want nil, nil", p, err)
	}
	if src.calls.Load() != 0 {
		t.Error("disabled Load must not hit the backend")
	}
}

func TestPhotoLoader_NoPhoto(t *testing.T) {
	l := NewPhotoLoader(&countingPhotos{})
	p, err := l.Load(context.Background(), "v1", true)
	if err != nil || p != nil {
		t.Fatalf("Load = %v, %v; want nil, nil", p, err)
	}
}

func TestPhotoLoader_Error(t *testing.T) {
	boom := errors.New("storage unavailable")
	l := NewPhotoLoader(&countingPhotos{err: boom})
	if _, err := l.Load(context.Background(), "v1", true); !errors.Is(err, boom) {
		t.Fatalf("Load error = %v, want %v", err, boom)
	}
}

func TestPhotoLoader_SharesConcurrentLoads(t *testing.T) {
	src := &countingPhotos{
		delay:  100 * time.Millisecond,
		photos: map[string]*model.Photo{"v1": {URL: "https://cdn/v1.jpg", Principale: true}},
	}
	l := NewPhotoLoader(src)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := l.Load(context.Background(), "v1", true)
			if err != nil || p == nil || p.URL != "https://cdn/v1.jpg" {
				t.Errorf("Load = %v, %v", p, err)
			}
		}()
	}
	wg.Wait()
	if n := src.calls.Load(); n != 1 {
		t.Errorf("backend calls = %d, want 1", n)
	}
}

func TestHydrateVisible(t *testing.T) {
	src := &countingPhotos{photos: map[string]*model.Photo{
		"a": {URL: "a.jpg"},
		"b": {URL: "b.jpg"},
		"c": {URL: "c.jpg"},
	}}
	vendors := []*model.Vendor{{ID: "a"}, {ID: "b"}, {ID: "nophoto"}, {ID: "c"}}

	got, err := HydrateVisible(context.Background(), NewPhotoLoader(src), vendors, 3)
	if err != nil {
		t.Fatalf("HydrateVisible: %v", err)
	}
	if len(got) != 2 || got["a"].URL != "a.jpg" || got["b"].URL != "b.jpg" {
		t.Errorf("got %v", got)
	}
	if _, ok := got["c"]; ok {
		t.Error("vendor beyond the limit must not be hydrated")
	}
	if n := src.calls.Load(); n != 3 {
		t.Errorf("backend calls = %d, want 3", n)
	}
}
