package datastore

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
)

type Op string

const (
	OpEq      Op = "eq"
	OpNeq     Op = "neq"
	OpLt      Op = "lt"
	OpLte     Op = "lte"
	OpGt      Op = "gt"
	OpGte     Op = "gte"
	OpIn      Op = "in"
	OpIsNull  Op = "is_null"
	OpNotNull Op = "not_null"
)

type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(col string, v any) Filter  { return Filter{Column: col, Op: OpEq, Value: v} }
func Neq(col string, v any) Filter { return Filter{Column: col, Op: OpNeq, Value: v} }
func Lt(col string, v any) Filter  { return Filter{Column: col, Op: OpLt, Value: v} }
func Lte(col string, v any) Filter { return Filter{Column: col, Op: OpLte, Value: v} }
func Gt(col string, v any) Filter  { return Filter{Column: col, Op: OpGt, Value: v} }
func Gte(col string, v any) Filter { return Filter{Column: col, Op: OpGte, Value: v} }
func In(col string, v any) Filter  { return Filter{Column: col, Op: OpIn, Value: v} }
func IsNull(col string) Filter     { return Filter{Column: col, Op: OpIsNull} }
func NotNull(col string) Filter    { return Filter{Column: col, Op: OpNotNull} }

var identRE = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

func validColumn(col string) error {
	if !identRE.MatchString(col) {
		return apierr.Validation("bad_column", "invalid column name %q", col)
	}
	return nil
}

func (f Filter) expression() (clause.Expression, error) {
	if err := validColumn(f.Column); err != nil {
		return nil, err
	}
	col := clause.Column{Name: f.Column}
	switch f.Op {
	case OpEq:
		return clause.Eq{Column: col, Value: f.Value}, nil
	case OpNeq:
		return clause.Neq{Column: col, Value: f.Value}, nil
	case OpLt:
		return clause.Lt{Column: col, Value: f.Value}, nil
	case OpLte:
		return clause.Lte{Column: col, Value: f.Value}, nil
	case OpGt:
		return clause.Gt{Column: col, Value: f.Value}, nil
	case OpGte:
		return clause.Gte{Column: col, Value: f.Value}, nil
	case OpIn:
		return clause.Expr{SQL: "? IN ?", Vars: []any{col, f.Value}}, nil
	case OpIsNull:
		return clause.Expr{SQL: "? IS NULL", Vars: []any{col}}, nil
	case OpNotNull:
		return clause.Expr{SQL: "? IS NOT NULL", Vars: []any{col}}, nil
	default:
		return nil, apierr.Validation("bad_filter", "unsupported filter op %q", f.Op)
	}
}

// Scope is the caller identity a call runs under. A zero Scope is the service
// role and sees every row; an owner scope only sees rows it owns.
type Scope struct {
	UserID *uuid.UUID
}

func Service() Scope { return Scope{} }

func Owner(userID uuid.UUID) Scope { return Scope{UserID: &userID} }

func (s Scope) IsService() bool { return s.UserID == nil }

func (s Scope) String() string {
	if s.UserID == nil {
		return "service"
	}
	return fmt.Sprintf("user:%s", s.UserID)
}
