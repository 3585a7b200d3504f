// Package query builds parameterized SQL for the transactions table.
//
// Predicates form a small sealed tree (Eq, Gte, Lte, Lt, In, And) that is
// compiled to a WHERE fragment with "?" placeholders. Values are never
// interpolated into the SQL text and column names must be in the allow list.
package query

// Columns of the transactions table that predicates and orderings may use.
const (
	ColID         = "id"
	ColType       = "type"
	ColAmount     = "amount_cents"
	ColCategory   = "category"
	ColOccurredAt = "occurred_at"
)

var allowedColumns = map[string]struct{}{
	ColID:         {},
	ColType:       {},
	ColAmount:     {},
	ColCategory:   {},
	ColOccurredAt: {},
}

// Predicate is a filter condition. Only types in this package implement it.
type Predicate interface {
	predicateNode()
}

type (
	// Eq matches Column = Value.
	Eq struct {
		Column string
		Value  any
	}

	// Gte matches Column >= Value.
	Gte struct {
		Column string
		Value  any
	}

	// Lte matches Column <= Value.
	Lte struct {
		Column string
		Value  any
	}

	// Lt matches Column < Value.
	Lt struct {
		Column string
		Value  any
	}

	// In matches Column IN (Values...). An empty set matches nothing.
	In struct {
		Column string
		Values []any
	}

	// And matches when every child matches. An empty And matches everything.
	And struct {
		Predicates []Predicate
	}
)

func (Eq) predicateNode()  {}
func (Gte) predicateNode() {}
func (Lte) predicateNode() {}
func (Lt) predicateNode()  {}
func (In) predicateNode()  {}
func (And) predicateNode() {}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Select reads rows matching Where. A nil Where reads everything; Limit <= 0
// means no limit.
type Select struct {
	Where   Predicate
	OrderBy []Order
	Limit   int
}

// Delete removes rows matching Where. A nil or empty Where is refused at
// compile time.
type Delete struct {
	Where Predicate
}

var (
	// NewestFirst is the ordering for list reads.
	NewestFirst = []Order{{Column: ColOccurredAt, Desc: true}, {Column: ColID, Desc: true}}
	// OldestFirst is the ordering bucketing relies on.
	OldestFirst = []Order{{Column: ColOccurredAt}, {Column: ColID}}
)
