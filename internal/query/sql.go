package query

import (
	"fmt"
	"strings"
)

// Where renders the query's predicates as a SQL WHERE clause (without the
// keyword). nextArg must return the next positional placeholder ("$1", "$2",
// ...); values are returned in placeholder order.
func (q *Query) Where(nextArg func() string) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	for _, p := range q.where {
		clause, pargs := renderPredicate(p, nextArg)
		clauses = append(clauses, clause)
		args = append(args, pargs...)
	}
	return strings.Join(clauses, " AND "), args
}

// OrderBy renders the ORDER BY list (without the keyword).
func (q *Query) OrderBy() string {
	parts := make([]string, len(q.order))
	for i, o := range q.order {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts[i] = fmt.Sprintf("%s %s", o.Column, dir)
	}
	return strings.Join(parts, ", ")
}

func renderPredicate(p Predicate, nextArg func() string) (string, []any) {
	if len(p.Any) > 0 {
		var (
			parts []string
			args  []any
		)
		for _, sub := range p.Any {
			clause, subArgs := renderPredicate(sub, nextArg)
			parts = append(parts, clause)
			args = append(args, subArgs...)
		}
		return "(" + strings.Join(parts, " OR ") + ")", args
	}
	return fmt.Sprintf("%s %s %s", p.Column, p.Op, nextArg()), []any{p.Value}
}
