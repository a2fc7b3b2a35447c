package postgres

import (
	"strconv"
	"strings"
	"time"

	"content_metrics/internal/domain"
)

// predicate is a WHERE fragment over contents c joined with authors a,
// with its positional arguments starting at $1.
type predicate struct {
	clause string
	args   []interface{}
}

// next returns the placeholder for the argument appended after the predicate's own.
func (p predicate) next(offset int) string {
	return "$" + strconv.Itoa(len(p.args)+offset)
}

// compileFilter turns the filter into the AND of one condition per set field.
// The tag filter is a semi-join so rows are never multiplied.
func compileFilter(f domain.ContentFilter, now time.Time) predicate {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if f.AuthorID != nil {
		add("c.author_id = ?", *f.AuthorID)
	}
	if f.AuthorUsername != nil {
		add("lower(a.username) = lower(?)", *f.AuthorUsername)
	}
	if f.TagID != nil {
		add("EXISTS (SELECT 1 FROM content_tags ct WHERE ct.content_id = c.id AND ct.tag_id = ?)", *f.TagID)
	}
	if f.Title != nil {
		add("c.title ILIKE ?", "%"+escapeLike(*f.Title)+"%")
	}
	if since := f.PublishedSince(now); since != nil {
		add("c.published_at >= ?", *since)
	}

	if len(conds) == 0 {
		return predicate{clause: "TRUE"}
	}
	return predicate{clause: strings.Join(conds, " AND "), args: args}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
