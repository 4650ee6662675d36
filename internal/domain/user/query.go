package user

import (
	"fmt"
	"strconv"

	apperrors "user-data-service/pkg/errors"
)

// Field names a filterable and sortable user attribute.
type Field string

const (
	FieldID    Field = "id"
	FieldName  Field = "name"
	FieldEmail Field = "email"
)

// Op is a predicate operator.
type Op string

const (
	OpEquals   Op = "equals"
	OpContains Op = "contains"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Predicate restricts results to rows whose Field matches Value under Op.
// Contains matches Value literally as a substring; wildcards have no meaning.
type Predicate struct {
	Field Field
	Op    Op
	Value string
}

// Order sorts results by Field.
type Order struct {
	Field     Field
	Direction Direction
}

// Query describes a user listing. Predicates are combined with AND and
// orders are applied in sequence. The zero Query matches every row in
// database order; no ordering or limit is ever injected.
type Query struct {
	Where   []Predicate
	OrderBy []Order
	Offset  int
	Limit   int
}

// Equals builds an equality predicate.
func Equals(f Field, value string) Predicate {
	return Predicate{Field: f, Op: OpEquals, Value: value}
}

// Contains builds a substring predicate.
func Contains(f Field, value string) Predicate {
	return Predicate{Field: f, Op: OpContains, Value: value}
}

// Ascending orders by f, smallest first.
func Ascending(f Field) Order {
	return Order{Field: f, Direction: Asc}
}

// Descending orders by f, largest first.
func Descending(f Field) Order {
	return Order{Field: f, Direction: Desc}
}

// Validate rejects unknown fields, operators, directions and negative bounds.
func (q Query) Validate() error {
	for _, p := range q.Where {
		if err := p.validate(); err != nil {
			return err
		}
	}
	for _, o := range q.OrderBy {
		if !o.Field.valid() {
			return apperrors.NewValidationError("orderBy", fmt.Sprintf("unknown field %q", o.Field))
		}
		if o.Direction != Asc && o.Direction != Desc {
			return apperrors.NewValidationError("orderBy", fmt.Sprintf("unknown direction %q", o.Direction))
		}
	}
	if q.Offset < 0 {
		return apperrors.NewValidationError("offset", "must not be negative")
	}
	if q.Limit < 0 {
		return apperrors.NewValidationError("limit", "must not be negative")
	}
	return nil
}

func (p Predicate) validate() error {
	if !p.Field.valid() {
		return apperrors.NewValidationError("where", fmt.Sprintf("unknown field %q", p.Field))
	}
	switch p.Op {
	case OpEquals:
		if p.Field == FieldID {
			if _, err := strconv.ParseInt(p.Value, 10, 64); err != nil {
				return apperrors.NewValidationError("where", fmt.Sprintf("id must be an integer, got %q", p.Value))
			}
		}
	case OpContains:
		if p.Field == FieldID {
			return apperrors.NewValidationError("where", "contains is not supported on id")
		}
	default:
		return apperrors.NewValidationError("where", fmt.Sprintf("unknown operator %q", p.Op))
	}
	return nil
}

func (f Field) valid() bool {
	switch f {
	case FieldID, FieldName, FieldEmail:
		return true
	}
	return false
}
