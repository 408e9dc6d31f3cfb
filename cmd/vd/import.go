package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/alfredjeanlab/prestataires/internal/client"
	"github.com/alfredjeanlab/prestataires/internal/model"
	vdsync "github.com/alfredjeanlab/prestataires/internal/sync"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// vendorUpserter is the part of the admin API used by import.
type vendorUpserter interface {
	UpsertVendor(ctx context.Context, in *client.VendorInput) (*model.Vendor, bool, error)
}

type importResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// runImport upserts vendors with at most concurrency requests in flight.
// Photos are not imported; their URLs point at storage the target server may
// not own.
func runImport(ctx context.Context, c vendorUpserter, vendors []*model.Vendor, concurrency int) (importResult, error) {
	var created, updated atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, v := range vendors {
		g.Go(func() error {
			_, isNew, err := c.UpsertVendor(ctx, client.InputFromVendor(v))
			if err != nil {
				return fmt.Errorf("importing %s: %w", v.ID, err)
			}
			if isNew {
				created.Add(1)
			} else {
				updated.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	return importResult{Created: int(created.Load()), Updated: int(updated.Load())}, err
}

func readCatalogue(path string) ([]*model.Vendor, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return vdsync.ReadJSONL(r)
}

var importCmd = &cobra.Command{
	Use:     "import <file.jsonl>",
	Short:   "Create or update vendors from a catalogue export (- for stdin)",
	GroupID: "admin",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		vendors, err := readCatalogue(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		if dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "%d vendors would be imported\n", len(vendors))
			return nil
		}

		res, err := runImport(cmd.Context(), adminClient(), vendors, concurrency)
		if jsonOutput {
			if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
				return perr
			}
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%d created, %d updated\n", res.Created, res.Updated)
		}
		return err
	},
}

func init() {
	importCmd.Flags().Bool("dry-run", false, "parse the file without contacting the server")
	importCmd.Flags().Int("concurrency", 4, "parallel requests")
}
