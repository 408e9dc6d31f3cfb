package pager

import (
	"context"
	"errors"
	"sync"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/query"
)

var (
	// ErrLoadInFlight is returned when a load is requested while another
	// one is still running. State is left untouched.
	ErrLoadInFlight = errors.New("pager: load already in flight")

	// ErrNoMorePages is returned by LoadMore when nothing is loaded yet or
	// the last page reported no more results.
	ErrNoMorePages = errors.New("pager: no more pages")

	// ErrReset is returned when the pager was reset while a fetch was in
	// flight. The fetched page is discarded.
	ErrReset = errors.New("pager: reset during load")

	// ErrStalled is returned when a page claims more results but adds no
	// vendor that is not already accumulated. The page index still advances
	// so a retry moves on.
	ErrStalled = errors.New("pager: page added no new vendors")
)

// State is the accumulator's lifecycle state.
type State int

const (
	StateEmpty State = iota
	StateLoadingFirstPage
	StateReady
	StateLoadingMore
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoadingFirstPage:
		return "loading_first_page"
	case StateReady:
		return "ready"
	case StateLoadingMore:
		return "loading_more"
	}
	return "unknown"
}

// Mode selects how successive pages are requested.
type Mode int

const (
	// ModeOffset requests each page at its own offset.
	ModeOffset Mode = iota
	// ModeWindow re-requests a growing window from offset 0
	// (pageSize*(page+1) rows) and merges the result. Once the window would
	// exceed MaxPageSize, pages are requested at their own offset.
	ModeWindow
)

// Snapshot is a consistent view of the pager.
type Snapshot struct {
	Vendors       []*model.Vendor
	HasMore       bool
	IsLoading     bool
	IsLoadingMore bool
	Err           error
	Page          int // index of the last loaded page, -1 when empty
	State         State
}

// Option configures a Pager.
type Option func(*Pager)

// WithPageSize sets the page size. Values <= 0 select DefaultPageSize;
// values above MaxPageSize are capped like the remote API does.
func WithPageSize(n int) Option {
	return func(p *Pager) {
		if n > 0 {
			p.pageSize = min(n, MaxPageSize)
		}
	}
}

// WithMode sets the paging mode.
func WithMode(m Mode) Option {
	return func(p *Pager) { p.mode = m }
}

// Pager accumulates pages of a listing. It is safe for concurrent use; at
// most one fetch runs at a time.
type Pager struct {
	fetcher  Fetcher
	pageSize int
	mode     Mode

	mu      sync.Mutex
	q       *query.Query
	state   State
	page    int
	vendors []*model.Vendor
	seen    map[string]struct{}
	hasMore bool
	err     error
	gen     uint64
}

// New returns an empty pager for q.
func New(f Fetcher, q *query.Query, opts ...Option) *Pager {
	p := &Pager{
		fetcher:  f,
		pageSize: DefaultPageSize,
		q:        q,
		page:     -1,
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PageSize returns the configured page size.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// Load fetches the first page. It is a no-op once a page is loaded.
func (p *Pager) Load(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case StateLoadingFirstPage, StateLoadingMore:
		p.mu.Unlock()
		return ErrLoadInFlight
	case StateReady:
		p.mu.Unlock()
		return nil
	}
	p.state = StateLoadingFirstPage
	gen, q := p.gen, p.q
	p.mu.Unlock()

	page, err := p.fetch(ctx, q, 0)
	return p.finish(gen, 0, page, err)
}

// LoadMore fetches the page after the last loaded one and appends the
// vendors not already present.
func (p *Pager) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	switch {
	case p.state == StateLoadingFirstPage || p.state == StateLoadingMore:
		p.mu.Unlock()
		return ErrLoadInFlight
	case p.state != StateReady || !p.hasMore:
		p.mu.Unlock()
		return ErrNoMorePages
	}
	p.state = StateLoadingMore
	gen, q, next := p.gen, p.q, p.page+1
	p.mu.Unlock()

	page, err := p.fetch(ctx, q, next)
	return p.finish(gen, next, page, err)
}

// LoadAll loads the first page, then more pages until there are none left or
// maxPages pages are loaded in total. maxPages <= 0 means no limit.
func (p *Pager) LoadAll(ctx context.Context, maxPages int) error {
	if err := p.Load(ctx); err != nil {
		return err
	}
	for loaded := p.Snapshot().Page + 1; maxPages <= 0 || loaded < maxPages; loaded++ {
		err := p.LoadMore(ctx)
		if errors.Is(err, ErrNoMorePages) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Reset discards all accumulated vendors and returns to the empty state. A
// fetch in flight completes with ErrReset and its result is dropped.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

// SetQuery resets the pager and replaces its query, as when filters change.
func (p *Pager) SetQuery(q *query.Query) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	p.q = q
}

// Query returns the current query.
func (p *Pager) Query() *query.Query {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.q
}

// Snapshot returns the current state.
func (p *Pager) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	vendors := make([]*model.Vendor, len(p.vendors))
	copy(vendors, p.vendors)
	return Snapshot{
		Vendors:       vendors,
		HasMore:       p.hasMore,
		IsLoading:     p.state == StateLoadingFirstPage,
		IsLoadingMore: p.state == StateLoadingMore,
		Err:           p.err,
		Page:          p.page,
		State:         p.state,
	}
}

func (p *Pager) resetLocked() {
	p.gen++
	p.state = StateEmpty
	p.page = -1
	p.vendors = nil
	p.seen = make(map[string]struct{})
	p.hasMore = false
	p.err = nil
}

func (p *Pager) fetch(ctx context.Context, q *query.Query, index int) (*Page, error) {
	if window := p.pageSize * (index + 1); p.mode == ModeWindow && window <= MaxPageSize {
		page, err := p.fetcher.FetchPage(ctx, q, 0, window)
		if err != nil {
			return nil, err
		}
		page.Index, page.PageSize = index, p.pageSize
		return page, nil
	}
	return p.fetcher.FetchPage(ctx, q, index, p.pageSize)
}

// finish applies the outcome of a fetch started in generation gen.
func (p *Pager) finish(gen uint64, index int, page *Page, err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		return ErrReset
	}
	if err != nil {
		p.err = err
		if index == 0 {
			p.state = StateEmpty
		} else {
			p.state = StateReady
		}
		return err
	}

	added := 0
	for _, v := range page.Vendors {
		if _, dup := p.seen[v.ID]; dup {
			continue
		}
		p.seen[v.ID] = struct{}{}
		p.vendors = append(p.vendors, v)
		added++
	}
	p.hasMore = page.HasMore
	p.page = index
	p.state = StateReady
	if index > 0 && added == 0 && page.HasMore {
		p.err = ErrStalled
		return ErrStalled
	}
	p.err = nil
	return nil
}
