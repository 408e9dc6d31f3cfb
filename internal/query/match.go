package query

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/alfredjeanlab/prestataires/internal/model"
)

// collators holds French collators for text sort keys. A Collator is not
// safe for concurrent use.
var collators = sync.Pool{
	New: func() any { return collate.New(language.French) },
}

// compareText orders strings the way a French reader expects: accents and
// case are secondary to the base letters.
func compareText(a, b string) int {
	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)
	return c.CompareString(a, b)
}

// Matches reports whether v satisfies every predicate of the query. A
// comparison against an unset optional column is false, as in SQL.
func (q *Query) Matches(v *model.Vendor) bool {
	for _, p := range q.where {
		if !matchPredicate(p, v) {
			return false
		}
	}
	return true
}

// Compare orders two vendors according to the query's sort keys.
func (q *Query) Compare(a, b *model.Vendor) int {
	for _, o := range q.order {
		c := compareColumn(o.Column, a, b)
		if o.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Apply filters and sorts vendors in memory, returning the window
// [offset, offset+limit). A limit <= 0 means no limit.
func (q *Query) Apply(vendors []*model.Vendor, limit, offset int) []*model.Vendor {
	var matched []*model.Vendor
	for _, v := range vendors {
		if q.Matches(v) {
			matched = append(matched, v)
		}
	}
	slices.SortStableFunc(matched, q.Compare)

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched
}

func matchPredicate(p Predicate, v *model.Vendor) bool {
	if len(p.Any) > 0 {
		for _, sub := range p.Any {
			if matchPredicate(sub, v) {
				return true
			}
		}
		return false
	}

	field, ok := columnValue(p.Column, v)
	if !ok {
		return false
	}

	switch p.Op {
	case OpEq:
		return equalValues(field, p.Value)
	case OpNeq:
		return !equalValues(field, p.Value)
	case OpGte, OpLte:
		a, aok := toFloat(field)
		b, bok := toFloat(p.Value)
		if !aok || !bok {
			return false
		}
		if p.Op == OpGte {
			return a >= b
		}
		return a <= b
	case OpILike:
		s, sok := field.(string)
		pattern, pok := p.Value.(string)
		return sok && pok && likeMatch(strings.ToLower(s), strings.ToLower(pattern))
	}
	return false
}

// columnValue returns the value of col for v. ok is false when the column is
// NULL.
func columnValue(col Column, v *model.Vendor) (any, bool) {
	switch col {
	case ColID:
		return v.ID, true
	case ColName:
		return v.Name, true
	case ColDescription:
		return v.Description, true
	case ColCity:
		return v.City, true
	case ColRegion:
		return string(v.Region), v.Region != ""
	case ColCategory:
		return string(v.Category), true
	case ColStartingPrice:
		return deref(v.StartingPrice)
	case ColPricePerGuest:
		return deref(v.PricePerGuest)
	case ColVenueType:
		return v.VenueType, v.VenueType != ""
	case ColCapacity:
		return deref(v.Capacity)
	case ColLodging:
		return deref(v.Lodging)
	case ColBeds:
		return deref(v.Beds)
	case ColVisible:
		return v.Visible, true
	case ColFeatured:
		return v.Featured, true
	}
	return nil, false
}

func deref[T any](p *T) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}

func compareColumn(col Column, a, b *model.Vendor) int {
	av, aok := columnValue(col, a)
	bv, bok := columnValue(col, b)
	// NULLs sort last in ascending order, like Postgres.
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	switch x := av.(type) {
	case string:
		return compareText(x, bv.(string))
	case bool:
		y := bv.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	}
	af, _ := toFloat(av)
	bf, _ := toFloat(bv)
	return cmp.Compare(af, bf)
}

func equalValues(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// likeMatch implements SQL LIKE with % and _ wildcards and backslash escapes.
func likeMatch(s, pattern string) bool {
	for len(pattern) > 0 {
		r, size := utf8.DecodeRuneInString(pattern)
		switch r {
		case '%':
			rest := pattern[size:]
			for len(rest) > 0 && rest[0] == '%' {
				rest = rest[1:]
			}
			if rest == "" {
				return true
			}
			for i := 0; i <= len(s); {
				if likeMatch(s[i:], rest) {
					return true
				}
				if i == len(s) {
					break
				}
				_, n := utf8.DecodeRuneInString(s[i:])
				i += n
			}
			return false
		case '_':
			if s == "" {
				return false
			}
			_, n := utf8.DecodeRuneInString(s)
			s = s[n:]
			pattern = pattern[size:]
		default:
			if r == '\\' && len(pattern) > size {
				r, n := utf8.DecodeRuneInString(pattern[size:])
				pattern = pattern[size+n:]
				sr, sn := utf8.DecodeRuneInString(s)
				if s == "" || sr != r {
					return false
				}
				s = s[sn:]
				continue
			}
			sr, sn := utf8.DecodeRuneInString(s)
			if s == "" || sr != r {
				return false
			}
			s = s[sn:]
			pattern = pattern[size:]
		}
	}
	return s == ""
}
