package query

import (
	"testing"

	"github.com/alfredjeanlab/prestataires/internal/model"
)

func vendor(id, name string, opts ...func(*model.Vendor)) *model.Vendor {
	v := &model.Vendor{ID: id, Name: name, Category: model.CategoryPhotographer, Visible: true}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func ids(vs []*model.Vendor) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMatches_VisibilityAndCoordination(t *testing.T) {
	q := Build(model.VendorFilter{})
	if !q.Matches(vendor("a", "Anna")) {
		t.Error("visible photographer should match")
	}
	if q.Matches(vendor("b", "Bob", func(v *model.Vendor) { v.Visible = false })) {
		t.Error("hidden vendor must never match")
	}
	if q.Matches(vendor("c", "Coord", func(v *model.Vendor) { v.Category = model.CategoryCoordination })) {
		t.Error("Coordination vendor must never match")
	}
}

func TestMatches_Search(t *testing.T) {
	v := vendor("a", "Studio Lumière", func(v *model.Vendor) {
		v.City = "Annecy"
		v.Description = "Reportage 100% naturel"
	})
	for _, tc := range []struct {
		search string
		want   bool
	}{
		{"lumière", true},
		{"ANNECY", true},
		{"naturel", true},
		{"100%", true},
		{"100_", false},
		{"paris", false},
	} {
		if got := Build(model.VendorFilter{Search: tc.search}).Matches(v); got != tc.want {
			t.Errorf("search %q: Matches = %v, want %v", tc.search, got, tc.want)
		}
	}
}

func TestMatches_PriceEitherField(t *testing.T) {
	onlyStarting := vendor("a", "A", func(v *model.Vendor) { v.StartingPrice = model.Ptr(2000.0) })
	onlyPerGuest := vendor("b", "B", func(v *model.Vendor) { v.PricePerGuest = model.Ptr(80.0) })
	both := vendor("c", "C", func(v *model.Vendor) {
		v.StartingPrice = model.Ptr(40.0)
		v.PricePerGuest = model.Ptr(120.0)
	})
	neither := vendor("d", "D")
	all := []*model.Vendor{onlyStarting, onlyPerGuest, both, neither}

	for _, tc := range []struct {
		name   string
		filter model.VendorFilter
		want   []string
	}{
		{"no bounds", model.VendorFilter{}, []string{"a", "b", "c", "d"}},
		{"min 100", model.VendorFilter{MinPrice: model.Ptr(100.0)}, []string{"a", "c"}},
		{"max 100", model.VendorFilter{MaxPrice: model.Ptr(100.0)}, []string{"b", "c"}},
		{"min 50 max 100", model.VendorFilter{MinPrice: model.Ptr(50.0), MaxPrice: model.Ptr(100.0)}, []string{"b", "c"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Build(tc.filter).Apply(all, 0, 0))
			if !equalIDs(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatches_VenueScoping(t *testing.T) {
	bigVenue := vendor("v1", "Grand Domaine", func(v *model.Vendor) {
		v.Category = model.CategoryVenue
		v.Capacity = model.Ptr(300)
		v.Lodging = model.Ptr(true)
		v.Beds = model.Ptr(40)
	})
	smallVenue := vendor("v2", "Petite Salle", func(v *model.Vendor) {
		v.Category = model.CategoryVenue
		v.Capacity = model.Ptr(60)
	})
	caterer := vendor("c1", "Traiteur Dupont", func(v *model.Vendor) { v.Category = model.CategoryCaterer })
	all := []*model.Vendor{bigVenue, smallVenue, caterer}

	venue := Build(model.VendorFilter{Category: model.Ptr(model.CategoryVenue), CapacityMin: model.Ptr(100)})
	if got := ids(venue.Apply(all, 0, 0)); !equalIDs(got, []string{"v1"}) {
		t.Errorf("venue capacity filter: got %v", got)
	}

	// The same capacity bound with another category is ignored entirely.
	cat := Build(model.VendorFilter{Category: model.Ptr(model.CategoryCaterer), CapacityMin: model.Ptr(100)})
	if got := ids(cat.Apply(all, 0, 0)); !equalIDs(got, []string{"c1"}) {
		t.Errorf("caterer with capacity bound: got %v", got)
	}

	lodging := Build(model.VendorFilter{Category: model.Ptr(model.CategoryVenue), Lodging: model.Ptr(true), BedsMin: model.Ptr(20)})
	if got := ids(lodging.Apply(all, 0, 0)); !equalIDs(got, []string{"v1"}) {
		t.Errorf("lodging filter: got %v", got)
	}
}

func TestApply_OrderAndWindow(t *testing.T) {
	all := []*model.Vendor{
		vendor("1", "Zoé"),
		vendor("2", "Alice"),
		vendor("3", "Marc", func(v *model.Vendor) { v.Featured = true }),
		vendor("4", "Bruno"),
		vendor("5", "Alice"),
	}
	q := Build(model.VendorFilter{})

	if got := ids(q.Apply(all, 0, 0)); !equalIDs(got, []string{"3", "2", "5", "4", "1"}) {
		t.Errorf("order = %v", got)
	}
	if got := ids(q.Apply(all, 2, 1)); !equalIDs(got, []string{"2", "5"}) {
		t.Errorf("window(2,1) = %v", got)
	}
	if got := q.Apply(all, 2, 10); len(got) != 0 {
		t.Errorf("offset past end = %v, want empty", ids(got))
	}
}

func TestApply_FrenchNameOrder(t *testing.T) {
	all := []*model.Vendor{
		vendor("z", "Zoé Traiteur"),
		vendor("e", "Élégance Fleurs"),
		vendor("a", "atelier Bleu"),
		vendor("b", "Bon Appétit"),
		vendor("e2", "Elegance Studio"),
	}
	got := ids(Build(model.VendorFilter{}).Apply(all, 0, 0))
	if want := []string{"a", "b", "e", "e2", "z"}; !equalIDs(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestLikeMatch(t *testing.T) {
	for _, tc := range []struct {
		s, pattern string
		want       bool
	}{
		{"château", "%tea%", true},
		{"château", "ch_teau", true},
		{"château", "%x%", false},
		{"", "%%", true},
		{"", "%a%", false},
		{"50%", `%0\%`, true},
		{"a_b", `a\_b`, true},
		{"axb", `a\_b`, false},
	} {
		if got := likeMatch(tc.s, tc.pattern); got != tc.want {
			t.Errorf("likeMatch(%q, %q) = %v, want %v", tc.s, tc.pattern, got, tc.want)
		}
	}
}
