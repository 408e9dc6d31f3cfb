package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

var frenchPrinter = message.NewPrinter(language.French)

// groupSpaces turns the no-break group separators of French number
// formatting into plain spaces.
var groupSpaces = strings.NewReplacer("\u202f", " ", "\u00a0", " ")

// formatEuros renders an amount the French way: "5 000 €", "12,50 €".
// Whole amounts drop the cents.
func formatEuros(f float64) string {
	cents := math.Round(f * 100)
	var s string
	if math.Mod(cents, 100) == 0 {
		s = frenchPrinter.Sprintf("%d", int64(cents/100))
	} else {
		s = frenchPrinter.Sprintf("%.2f", cents/100)
	}
	return groupSpaces.Replace(s) + " €"
}

// formatPrice summarizes a vendor's pricing, or "-" when it quotes none.
func formatPrice(v *model.Vendor) string {
	var parts []string
	if v.StartingPrice != nil {
		parts = append(parts, "dès "+formatEuros(*v.StartingPrice))
	}
	if v.PricePerGuest != nil {
		parts = append(parts, formatEuros(*v.PricePerGuest)+"/pers.")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " · ")
}

func vendorBadges(v *model.Vendor) string {
	var b []string
	if v.Featured {
		b = append(b, "★")
	}
	if v.Partner {
		b = append(b, "partenaire")
	}
	if !v.Visible {
		b = append(b, "masqué")
	}
	return strings.Join(b, " ")
}

func printVendorListTable(w io.Writer, vendors []*model.Vendor, photos map[string]*model.Photo) {
	nameWidth := 40
	if ui.Width() < 120 {
		nameWidth = 28
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "ID\tNAME\tCATEGORY\tCITY\tPRICE\t"
	if photos != nil {
		header += "PHOTO\t"
	}
	fmt.Fprintln(tw, header)
	for _, v := range vendors {
		name := ui.Truncate(v.Name, nameWidth)
		if v.Featured {
			name = ui.RenderFeatured(name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t",
			v.ID, name, v.Category, v.City, formatPrice(v))
		if photos != nil {
			url := "-"
			if p := photos[v.ID]; p != nil {
				url = p.URL
			}
			fmt.Fprintf(tw, "%s\t", ui.RenderMuted(url))
		}
		fmt.Fprintln(tw, ui.RenderMuted(vendorBadges(v)))
	}
	tw.Flush()
}

func printVendorDetail(w io.Writer, v *model.Vendor) {
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-13s%s\n", label+":", value)
		}
	}
	title := v.Name
	if v.Featured {
		title = ui.RenderFeatured(title)
	}
	row("ID", v.ID)
	row("Name", title)
	row("Category", v.Category.String())
	row("City", v.City)
	row("Region", v.Region.String())
	row("Price", formatPrice(v))
	if v.IsVenue() {
		row("Venue type", v.VenueType)
		if v.Capacity != nil {
			row("Capacity", fmt.Sprintf("%d invités", *v.Capacity))
		}
		if v.Lodging != nil {
			lodging := "non"
			if *v.Lodging {
				lodging = "oui"
				if v.Beds != nil {
					lodging = fmt.Sprintf("oui (%d couchages)", *v.Beds)
				}
			}
			row("Lodging", lodging)
		}
	}
	row("Website", v.Website)
	row("Email", v.Email)
	row("Phone", v.Phone)
	row("Badges", vendorBadges(v))
	if v.Description != "" {
		fmt.Fprintf(w, "\n%s\n", v.Description)
	}
	if len(v.Photos) > 0 {
		fmt.Fprintln(w)
		printPhotoTable(w, v.Photos)
	}
}

func printPhotoTable(w io.Writer, photos []*model.Photo) {
	if len(photos) == 0 {
		fmt.Fprintln(w, "no photos")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tORDER\tURL\t")
	for _, p := range photos {
		var flags []string
		if p.Principale {
			flags = append(flags, "principale")
		}
		if p.IsCover {
			flags = append(flags, "couverture")
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", p.ID, p.Order, p.URL, ui.RenderMuted(strings.Join(flags, " ")))
	}
	tw.Flush()
}
