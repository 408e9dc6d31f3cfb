// Package query turns a vendor filter into a backend-agnostic listing query.
//
// A Query is a conjunction of predicates plus a sort order. It can be rendered
// to SQL for the Postgres store or evaluated in memory; both paths share the
// same semantics, including SQL NULL handling for optional numeric columns.
package query

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/prestataires/internal/model"
)

// Column names a vendor column as stored in the prestataires table.
type Column string

const (
	ColID            Column = "id"
	ColName          Column = "nom"
	ColDescription   Column = "description"
	ColCity          Column = "ville"
	ColRegion        Column = "region"
	ColCategory      Column = "categorie"
	ColStartingPrice Column = "prix_a_partir_de"
	ColPricePerGuest Column = "prix_par_personne"
	ColVenueType     Column = "categorie_lieu"
	ColCapacity      Column = "capacite"
	ColLodging       Column = "hebergement"
	ColBeds          Column = "couchages"
	ColVisible       Column = "visible"
	ColFeatured      Column = "featured"
)

// Op is a comparison operator.
type Op string

const (
	OpEq    Op = "="
	OpNeq   Op = "<>"
	OpGte   Op = ">="
	OpLte   Op = "<="
	OpILike Op = "ILIKE"
)

// Predicate is either a single comparison (Column Op Value) or, when Any is
// non-empty, a disjunction of comparisons.
type Predicate struct {
	Column Column
	Op     Op
	Value  any
	Any    []Predicate
}

// String renders the predicate for logs and cache keys.
func (p Predicate) String() string {
	if len(p.Any) > 0 {
		parts := make([]string, len(p.Any))
		for i, sub := range p.Any {
			parts[i] = sub.String()
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	}
	if s, ok := p.Value.(string); ok {
		return fmt.Sprintf("%s %s %q", p.Column, p.Op, s)
	}
	return fmt.Sprintf("%s %s %v", p.Column, p.Op, p.Value)
}

// Order is one sort key.
type Order struct {
	Column Column
	Desc   bool
}

// Query is an immutable listing query. Construct it with Build.
type Query struct {
	filter model.VendorFilter
	where  []Predicate
	order  []Order
}

// Build constructs the listing query for f. It performs no I/O and the same
// filter always yields the same query.
//
// Every query restricts to visible vendors outside the Coordination category
// and sorts featured vendors first, then by name. Venue-only criteria are
// dropped unless the category is CategoryVenue.
func Build(f model.VendorFilter) *Query {
	f = f.Normalize()
	q := &Query{filter: f}

	q.where = append(q.where,
		pred(ColVisible, OpEq, true),
		pred(ColCategory, OpNeq, string(model.CategoryCoordination)),
	)

	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		q.where = append(q.where, anyOf(
			pred(ColName, OpILike, pattern),
			pred(ColCity, OpILike, pattern),
			pred(ColDescription, OpILike, pattern),
		))
	}
	if f.Category != nil {
		q.where = append(q.where, pred(ColCategory, OpEq, string(*f.Category)))
	}
	if f.Region != nil {
		q.where = append(q.where, pred(ColRegion, OpEq, string(*f.Region)))
	}

	// A vendor qualifies on price if either of its two price fields does.
	if f.MinPrice != nil {
		q.where = append(q.where, anyOf(
			pred(ColStartingPrice, OpGte, *f.MinPrice),
			pred(ColPricePerGuest, OpGte, *f.MinPrice),
		))
	}
	if f.MaxPrice != nil {
		q.where = append(q.where, anyOf(
			pred(ColStartingPrice, OpLte, *f.MaxPrice),
			pred(ColPricePerGuest, OpLte, *f.MaxPrice),
		))
	}

	if f.VenueFiltersApply() {
		if f.VenueType != nil {
			q.where = append(q.where, pred(ColVenueType, OpEq, *f.VenueType))
		}
		if f.CapacityMin != nil {
			q.where = append(q.where, pred(ColCapacity, OpGte, *f.CapacityMin))
		}
		if f.Lodging != nil {
			q.where = append(q.where, pred(ColLodging, OpEq, *f.Lodging))
		}
		if f.BedsMin != nil {
			q.where = append(q.where, pred(ColBeds, OpGte, *f.BedsMin))
		}
	}

	q.order = []Order{
		{Column: ColFeatured, Desc: true},
		{Column: ColName},
		{Column: ColID}, // stable tie-break for offset paging
	}
	return q
}

// Filter returns the normalized filter the query was built from.
func (q *Query) Filter() model.VendorFilter {
	return q.filter
}

// Predicates returns a copy of the query's conjunction.
func (q *Query) Predicates() []Predicate {
	out := make([]Predicate, len(q.where))
	copy(out, q.where)
	return out
}

// Order returns a copy of the query's sort keys.
func (q *Query) Order() []Order {
	out := make([]Order, len(q.order))
	copy(out, q.order)
	return out
}

// String renders the query in a SQL-like form. Two queries with the same
// String select the same rows in the same order.
func (q *Query) String() string {
	var sb strings.Builder
	for i, p := range q.where {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(q.OrderBy())
	return sb.String()
}

// Key is a stable identifier for caching results of this query.
func (q *Query) Key() string {
	return q.String()
}

func pred(col Column, op Op, v any) Predicate {
	return Predicate{Column: col, Op: op, Value: v}
}

func anyOf(preds ...Predicate) Predicate {
	return Predicate{Any: preds}
}

// escapeLike escapes LIKE metacharacters so the term matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
