package option

import (
	"strings"

	"github.com/SahilSagvekar/my-app-sub003/pkg/db/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption mutates a gorm query before it runs.
type QueryOption func(*gorm.DB) *gorm.DB

// Apply runs every option against db.
func Apply(db *gorm.DB, opts ...QueryOption) *gorm.DB {
	for _, opt := range opts {
		if opt != nil {
			db = opt(db)
		}
	}
	return db
}

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	// Allow lists the columns callers may sort by. Empty allows only "id".
	Allow map[string]bool
}

func WithSortBy(s QuerySortBy) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		column := s.SortBy
		if column == "" || !(s.Allow[column] || column == "id") {
			column = "id"
		}
		desc := strings.EqualFold(s.OrderBy, "desc")
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	}
}

type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
	IN  Operator = "IN"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func (c Condition) expression() clause.Expression {
	col := clause.Column{Name: c.Field}
	switch c.Operator {
	case NEQ:
		return clause.Neq{Column: col, Value: c.Value}
	case GT:
		return clause.Gt{Column: col, Value: c.Value}
	case GTE:
		return clause.Gte{Column: col, Value: c.Value}
	case LT:
		return clause.Lt{Column: col, Value: c.Value}
	case LTE:
		return clause.Lte{Column: col, Value: c.Value}
	case IN:
		values, _ := c.Value.([]any)
		return clause.IN{Column: col, Values: values}
	default:
		return clause.Eq{Column: col, Value: c.Value}
	}
}

func ApplyOperator(conds ...Condition) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		for _, c := range conds {
			db = db.Where(c.expression())
		}
		return db
	}
}

// ApplyPagination limits the result to p.Limit+1 rows so callers can detect a
// next page, continuing after the id stored in the cursor.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		limit := p.Limit
		if limit <= 0 {
			limit = 10
		}
		if limit > 250 {
			limit = 250
		}
		if p.Cursor != "" {
			if cursor, err := pagination.DecodeCursor(p.Cursor); err == nil && cursor.ID != "" {
				db = db.Where(clause.Gt{Column: clause.Column{Name: "id"}, Value: cursor.ID})
			}
		}
		return db.Order("id ASC").Limit(limit + 1)
	}
}
