package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/pager"
	"github.com/alfredjeanlab/prestataires/internal/query"
	"github.com/alfredjeanlab/prestataires/internal/ui"
	"github.com/spf13/cobra"
)

// filterFlags maps listing flags to the query parameter names understood by
// model.ParseVendorFilter.
var filterFlags = []struct{ flag, param string }{
	{"search", "search"},
	{"category", "category"},
	{"region", "region"},
	{"min-price", "min_price"},
	{"max-price", "max_price"},
	{"venue-type", "venue_type"},
	{"capacity-min", "capacity_min"},
	{"lodging", "lodging"},
	{"beds-min", "beds_min"},
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("search", "s", "", "search names, cities and descriptions")
	cmd.Flags().StringP("category", "c", "", "category (see 'vd categories'; \"all\" for every category)")
	cmd.Flags().StringP("region", "r", "", "region (see 'vd regions')")
	cmd.Flags().Float64("min-price", 0, "minimum price in euros")
	cmd.Flags().Float64("max-price", 0, "maximum price in euros")
	cmd.Flags().String("venue-type", "", "venue type, e.g. Château (venues only)")
	cmd.Flags().Int("capacity-min", 0, "minimum guest capacity (venues only)")
	cmd.Flags().Bool("lodging", false, "require (or with =false exclude) on-site lodging (venues only)")
	cmd.Flags().Int("beds-min", 0, "minimum number of beds (venues only)")
}

func filterFromFlags(cmd *cobra.Command) (model.VendorFilter, error) {
	values := url.Values{}
	for _, f := range filterFlags {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		values.Set(f.param, cmd.Flags().Lookup(f.flag).Value.String())
	}
	return model.ParseVendorFilter(values)
}

type listOptions struct {
	PageSize    int
	Pages       int
	All         bool
	Window      bool
	Interactive bool
	Photos      bool
	PhotoLimit  int
	JSON        bool

	In  io.Reader
	Out io.Writer
}

type listOutput struct {
	Vendors []*model.Vendor         `json:"vendors"`
	HasMore bool                    `json:"has_more"`
	Pages   int                     `json:"pages"`
	Photos  map[string]*model.Photo `json:"photos,omitempty"`
}

// runList pages through the listing for f and prints the accumulated result.
func runList(ctx context.Context, fetcher pager.Fetcher, photos pager.PhotoSource, f model.VendorFilter, opts listOptions) error {
	pagerOpts := []pager.Option{pager.WithPageSize(opts.PageSize)}
	if opts.Window {
		pagerOpts = append(pagerOpts, pager.WithMode(pager.ModeWindow))
	}
	p := pager.New(fetcher, query.Build(f), pagerOpts...)

	maxPages := opts.Pages
	if opts.All {
		maxPages = 0
	}
	if err := p.LoadAll(ctx, maxPages); err != nil {
		return err
	}

	if opts.Interactive {
		return browse(ctx, p, photos, opts)
	}
	return printSnapshot(ctx, p.Snapshot(), photos, opts)
}

// browse prints each page as it loads and asks before fetching the next one.
func browse(ctx context.Context, p *pager.Pager, photos pager.PhotoSource, opts listOptions) error {
	in := bufio.NewReader(opts.In)
	printed := 0
	for {
		snap := p.Snapshot()
		fresh := pager.Snapshot{Vendors: snap.Vendors[printed:], HasMore: snap.HasMore, Page: snap.Page}
		if err := printSnapshot(ctx, fresh, photos, opts); err != nil {
			return err
		}
		printed = len(snap.Vendors)
		if !snap.HasMore {
			return nil
		}

		fmt.Fprint(opts.Out, ui.RenderAccent("Load more? [Y/n] "))
		answer, err := in.ReadString('\n')
		if err != nil && answer == "" {
			return nil
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "", "y", "yes", "o", "oui":
		default:
			return nil
		}
		if err := p.LoadMore(ctx); err != nil {
			if errors.Is(err, pager.ErrNoMorePages) {
				return nil
			}
			return err
		}
	}
}

func printSnapshot(ctx context.Context, snap pager.Snapshot, photos pager.PhotoSource, opts listOptions) error {
	var hydrated map[string]*model.Photo
	if opts.Photos && photos != nil {
		var err error
		hydrated, err = pager.HydrateVisible(ctx, pager.NewPhotoLoader(photos), snap.Vendors, opts.PhotoLimit)
		if err != nil {
			return fmt.Errorf("loading photos: %w", err)
		}
	}

	if opts.JSON {
		return printJSON(opts.Out, listOutput{
			Vendors: snap.Vendors,
			HasMore: snap.HasMore,
			Pages:   snap.Page + 1,
			Photos:  hydrated,
		})
	}
	if len(snap.Vendors) == 0 {
		fmt.Fprintln(opts.Out, "no vendors found")
		return nil
	}
	printVendorListTable(opts.Out, snap.Vendors, hydrated)
	more := ""
	if snap.HasMore {
		more = ", more available"
	}
	fmt.Fprintf(opts.Out, "\n%d vendors (%d pages%s)\n", len(snap.Vendors), snap.Page+1, more)
	return nil
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List vendors",
	GroupID: "browse",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		opts := listOptions{JSON: jsonOutput, In: os.Stdin, Out: cmd.OutOrStdout()}
		opts.PageSize, _ = cmd.Flags().GetInt("page-size")
		opts.Pages, _ = cmd.Flags().GetInt("pages")
		opts.All, _ = cmd.Flags().GetBool("all")
		opts.Window, _ = cmd.Flags().GetBool("window")
		opts.Interactive, _ = cmd.Flags().GetBool("interactive")
		opts.Photos, _ = cmd.Flags().GetBool("photos")
		opts.PhotoLimit, _ = cmd.Flags().GetInt("photo-limit")

		if opts.Pages < 1 {
			return fmt.Errorf("--pages must be at least 1")
		}
		if opts.PageSize <= 0 || opts.PageSize > pager.MaxPageSize {
			return fmt.Errorf("--page-size must be between 1 and %d", pager.MaxPageSize)
		}
		if opts.Interactive && (opts.All || opts.JSON) {
			return fmt.Errorf("--interactive cannot be combined with --all or --json")
		}
		if opts.Interactive && !ui.IsInteractive() {
			return fmt.Errorf("--interactive requires a terminal")
		}
		return runList(cmd.Context(), vendorsClient, vendorsClient, f, opts)
	},
}

func init() {
	addFilterFlags(listCmd)

	listCmd.Flags().Int("page-size", pager.DefaultPageSize, "vendors per page")
	listCmd.Flags().Int("pages", 1, "number of pages to load")
	listCmd.Flags().Bool("all", false, "load every page")
	listCmd.Flags().Bool("window", false, "request growing windows from offset 0 instead of per-page offsets")
	listCmd.Flags().BoolP("interactive", "i", false, "prompt before loading each further page")
	listCmd.Flags().Bool("photos", false, "show each vendor's primary photo")
	listCmd.Flags().Int("photo-limit", 0, "only load photos for the first N vendors (0 = all)")
}
