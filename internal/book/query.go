package book

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
)

// listQueries renders the count and page queries for q in the given goqu
// dialect ("postgres" or "sqlite3").
func listQueries(dialect string, q Query) (countSQL string, countArgs []any, dataSQL string, dataArgs []any, err error) {
	d := goqu.Dialect(dialect)

	base := d.From(goqu.T("books").As("b")).
		LeftJoin(goqu.T("book_documents").As("d"), goqu.On(goqu.I("d.book_id").Eq(goqu.I("b.id")))).
		Where(filters(q)...).
		Prepared(true)

	countSQL, countArgs, err = base.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return "", nil, "", nil, err
	}

	page := base.Select(
		goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author"), goqu.I("b.genre"),
		goqu.I("b.quantity"), goqu.I("b.status"),
		goqu.L("d.book_id IS NOT NULL").As("has_document"),
		goqu.L("COALESCE(d.name, '')").As("document_name"),
		goqu.I("b.created_at"), goqu.I("b.updated_at"),
	).Order(order(q)...)
	if q.Limit > 0 {
		page = page.Limit(uint(q.Limit)).Offset(uint(q.Offset))
	}
	dataSQL, dataArgs, err = page.ToSQL()
	return countSQL, countArgs, dataSQL, dataArgs, err
}

func filters(q Query) []exp.Expression {
	var where []exp.Expression
	if q.Genre != "" {
		where = append(where, goqu.I("b.genre_key").Eq(foldKey(q.Genre)))
	}
	if q.Author != "" {
		where = append(where, goqu.I("b.author_key").Eq(foldKey(q.Author)))
	}
	if q.Q != "" {
		pattern := "%" + escapeLike(foldKey(q.Q)) + "%"
		where = append(where, goqu.Or(
			contains("b.title_key", pattern),
			contains("b.author_key", pattern),
			contains("b.genre_key", pattern),
		))
	}
	if q.AvailableOnly {
		where = append(where, goqu.Or(
			goqu.I("b.status").Eq(string(StatusOnline)),
			goqu.I("b.quantity").Gt(0),
		))
	}
	return where
}

// Free text is matched literally: % and _ in a search are not wildcards.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func contains(col, pattern string) exp.LiteralExpression {
	return goqu.L(`? LIKE ? ESCAPE '\'`, goqu.I(col), pattern)
}

func order(q Query) []exp.OrderedExpression {
	col := goqu.I("b.title_key")
	switch q.Sort {
	case "created_at":
		col = goqu.I("b.created_at")
	case "quantity":
		col = goqu.I("b.quantity")
	}
	if q.Desc {
		return []exp.OrderedExpression{col.Desc(), goqu.I("b.id").Asc()}
	}
	return []exp.OrderedExpression{col.Asc(), goqu.I("b.id").Asc()}
}
