// Package pager implements paginated vendor listings: fetching one page with
// an over-fetch probe, and accumulating successive pages into a deduplicated
// list with explicit loading states.
package pager

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/query"
)

// DefaultPageSize is the number of vendors per page when none is given.
const DefaultPageSize = 12

// MaxPageSize bounds page sizes accepted from remote callers.
const MaxPageSize = 100

// Source returns raw rows for a query window. Stores implement it.
type Source interface {
	ListVendors(ctx context.Context, q *query.Query, limit, offset int) ([]*model.Vendor, error)
}

// Page is one page of a listing.
type Page struct {
	Vendors  []*model.Vendor `json:"vendors"`
	HasMore  bool            `json:"has_more"`
	Index    int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// Fetcher returns one page of a listing. FetchPage over a Source, remote
// clients, and the cache layer all implement it.
type Fetcher interface {
	FetchPage(ctx context.Context, q *query.Query, pageIndex, pageSize int) (*Page, error)
}

// FetchError wraps a backend failure while fetching a page.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchPage fetches page pageIndex of q from src. It asks for one row more
// than pageSize; the extra row only signals that another page exists and is
// dropped. No retry is attempted.
func FetchPage(ctx context.Context, src Source, q *query.Query, pageIndex, pageSize int) (*Page, error) {
	pageIndex, pageSize = normalize(pageIndex, pageSize)

	rows, err := src.ListVendors(ctx, q, pageSize+1, pageIndex*pageSize)
	if err != nil {
		return nil, &FetchError{Page: pageIndex, Err: err}
	}

	page := &Page{Index: pageIndex, PageSize: pageSize, Vendors: rows}
	if len(rows) > pageSize {
		page.HasMore = true
		page.Vendors = rows[:pageSize]
	}
	if page.Vendors == nil {
		page.Vendors = []*model.Vendor{}
	}
	return page, nil
}

// SourceFetcher adapts a Source to the Fetcher interface.
type SourceFetcher struct {
	Source Source
}

// FetchPage implements Fetcher.
func (f SourceFetcher) FetchPage(ctx context.Context, q *query.Query, pageIndex, pageSize int) (*Page, error) {
	return FetchPage(ctx, f.Source, q, pageIndex, pageSize)
}

func normalize(pageIndex, pageSize int) (int, int) {
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return pageIndex, pageSize
}
