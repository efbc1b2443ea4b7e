// Package listing holds the pagination, ordering and filtering primitives
// shared by every admin listing endpoint.
package listing

import (
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Page selects a window of an ordered result set. A negative Length means
// "everything" and forces Index to 0.
type Page struct {
	Index  int `json:"pageIndex" form:"pageIndex"`
	Length int `json:"pageLength" form:"pageLength"`
}

// All is the unbounded page.
var All = Page{Index: 0, Length: -1}

// Normalize clamps a negative index and applies the unbounded sentinel.
func (p Page) Normalize() Page {
	if p.Length < 0 {
		return All
	}
	if p.Index < 0 {
		p.Index = 0
	}
	return p
}

// Unbounded reports whether the page covers the whole result set.
func (p Page) Unbounded() bool { return p.Length < 0 }

// pastEnd reports whether the offset of p does not fit in an int. Such a page
// lies beyond any result set.
func (p Page) pastEnd() bool {
	return p.Length > 0 && p.Index > math.MaxInt/p.Length
}

// Offset is the number of leading rows skipped. It saturates at math.MaxInt.
func (p Page) Offset() int {
	p = p.Normalize()
	if p.Unbounded() {
		return 0
	}
	if p.pastEnd() {
		return math.MaxInt
	}
	return p.Length * p.Index
}

// Bounds returns the half-open [start, end) window of a result set of size total.
func (p Page) Bounds(total int) (start, end int) {
	p = p.Normalize()
	if p.Unbounded() {
		return 0, total
	}
	start = min(p.Offset(), total)
	end = start + min(p.Length, total-start)
	return start, end
}

// Slice cuts the page out of an already ordered slice.
func Slice[T any](items []T, p Page) []T {
	start, end := p.Bounds(len(items))
	return items[start:end]
}

// Scope applies the page to a gorm query as OFFSET/LIMIT parameters.
func (p Page) Scope() func(*gorm.DB) *gorm.DB {
	p = p.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		if p.Unbounded() {
			return db
		}
		if p.Length == 0 || p.pastEnd() {
			return db.Where("1 = 0")
		}
		return db.Offset(p.Offset()).Limit(p.Length)
	}
}

// OrderBy builds an ORDER BY on an allow-listed column followed by an
// ascending id tiebreak so equal keys page deterministically.
func OrderBy(column string, desc bool) clause.OrderBy {
	cols := []clause.OrderByColumn{{Column: clause.Column{Name: column}, Desc: desc}}
	if column != "id" {
		cols = append(cols, clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	return clause.OrderBy{Columns: cols}
}
