// Package datastore is the table-level CRUD boundary the garden engine talks
// to: filtered get/insert/update/delete, each scoped by caller identity.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/dbctx"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

type Table[T any] struct {
	db      *gorm.DB
	log     *logger.Logger
	schema  *schema.Schema
	owner   string
	version string
	order   string
}

type Option func(*options)

type options struct {
	owner   string
	version string
	order   string
}

// WithOwnerColumn names the column row-level scoping filters on. Default user_id.
func WithOwnerColumn(col string) Option { return func(o *options) { o.owner = col } }

// WithVersionColumn names the optimistic concurrency column. Default version.
func WithVersionColumn(col string) Option { return func(o *options) { o.version = col } }

func WithOrder(order string) Option { return func(o *options) { o.order = order } }

var schemaCache = &sync.Map{}

func NewTable[T any](db *gorm.DB, baseLog *logger.Logger, opts ...Option) (*Table[T], error) {
	o := options{owner: "user_id", version: "version"}
	for _, opt := range opts {
		opt(&o)
	}
	sch, err := schema.Parse(new(T), schemaCache, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if sch.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("table %s has no primary key", sch.Table)
	}
	if o.owner != "" && sch.LookUpField(o.owner) == nil {
		o.owner = ""
	}
	if o.version != "" && sch.LookUpField(o.version) == nil {
		o.version = ""
	}
	return &Table[T]{
		db:      db,
		log:     baseLog.With("table", sch.Table),
		schema:  sch,
		owner:   o.owner,
		version: o.version,
		order:   o.order,
	}, nil
}

func (t *Table[T]) Name() string { return t.schema.Table }

func (t *Table[T]) query(dbc dbctx.Context, scope Scope, filters []Filter) (*gorm.DB, error) {
	q := dbc.DB(t.db).Model(new(T))
	if !scope.IsService() {
		if t.owner == "" {
			return nil, apierr.Unauthorized("no_owner_column", "table %s is not user-scoped", t.schema.Table)
		}
		q = q.Where(clause.Eq{Column: clause.Column{Name: t.owner}, Value: *scope.UserID})
	}
	for _, f := range filters {
		expr, err := f.expression()
		if err != nil {
			return nil, err
		}
		q = q.Where(expr)
	}
	return q, nil
}

// Get returns every row matching filters.
func (t *Table[T]) Get(dbc dbctx.Context, scope Scope, filters ...Filter) ([]T, error) {
	q, err := t.query(dbc, scope, filters)
	if err != nil {
		return nil, err
	}
	if t.order != "" {
		q = q.Order(t.order)
	}
	var out []T
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// First returns the first matching row or a NotFound error.
func (t *Table[T]) First(dbc dbctx.Context, scope Scope, filters ...Filter) (*T, error) {
	q, err := t.query(dbc, scope, filters)
	if err != nil {
		return nil, err
	}
	if t.order != "" {
		q = q.Order(t.order)
	}
	var out T
	if err := q.Limit(1).Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("not_found", "%s not found", t.schema.Table)
		}
		return nil, translate(err)
	}
	return &out, nil
}

func (t *Table[T]) Count(dbc dbctx.Context, scope Scope, filters ...Filter) (int64, error) {
	q, err := t.query(dbc, scope, filters)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// Insert creates rec. Under an owner scope the record must belong to the caller.
func (t *Table[T]) Insert(dbc dbctx.Context, scope Scope, rec *T) error {
	if err := t.checkOwner(dbc.Ctx, scope, rec); err != nil {
		return err
	}
	if err := dbc.DB(t.db).Create(rec).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Upsert inserts rec or, on a conflict over conflictCols, updates updateCols.
func (t *Table[T]) Upsert(dbc dbctx.Context, scope Scope, rec *T, conflictCols, updateCols []string) error {
	if err := t.checkOwner(dbc.Ctx, scope, rec); err != nil {
		return err
	}
	cols := make([]clause.Column, 0, len(conflictCols))
	for _, c := range conflictCols {
		if err := validColumn(c); err != nil {
			return err
		}
		cols = append(cols, clause.Column{Name: c})
	}
	for _, c := range updateCols {
		if err := validColumn(c); err != nil {
			return err
		}
	}
	onConflict := clause.OnConflict{Columns: cols, DoNothing: len(updateCols) == 0}
	if len(updateCols) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(updateCols)
	}
	if err := dbc.DB(t.db).Clauses(onConflict).Create(rec).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Update applies patch to every matching row and returns the rows as they are
// after the update.
func (t *Table[T]) Update(dbc dbctx.Context, scope Scope, patch map[string]any, filters ...Filter) ([]T, error) {
	if len(patch) == 0 {
		return nil, apierr.Validation("empty_patch", "update patch is empty")
	}
	for col := range patch {
		if err := validColumn(col); err != nil {
			return nil, err
		}
	}
	var out []T
	err := dbc.DB(t.db).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		ids, err := t.primaryKeys(txc, scope, filters)
		if err != nil || len(ids) == 0 {
			return err
		}
		pk := clause.Column{Name: t.schema.PrioritizedPrimaryField.DBName}
		if err := tx.Model(new(T)).Where(clause.Expr{SQL: "? IN ?", Vars: []any{pk, ids}}).Updates(patch).Error; err != nil {
			return translate(err)
		}
		return tx.Where(clause.Expr{SQL: "? IN ?", Vars: []any{pk, ids}}).Find(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes every matching row and returns what was removed. A call with
// neither filters nor an owner scope is refused.
func (t *Table[T]) Delete(dbc dbctx.Context, scope Scope, filters ...Filter) ([]T, error) {
	if len(filters) == 0 && scope.IsService() {
		return nil, apierr.Validation("unbounded_delete", "delete on %s needs a filter", t.schema.Table)
	}
	var out []T
	err := dbc.DB(t.db).Transaction(func(tx *gorm.DB) error {
		q, err := t.query(dbc.WithTx(tx), scope, filters)
		if err != nil {
			return err
		}
		if err := q.Find(&out).Error; err != nil {
			return translate(err)
		}
		if len(out) == 0 {
			return nil
		}
		ids := t.keysOf(dbc.Ctx, out)
		pk := clause.Column{Name: t.schema.PrioritizedPrimaryField.DBName}
		return translate(tx.Where(clause.Expr{SQL: "? IN ?", Vars: []any{pk, ids}}).Delete(new(T)).Error)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveVersioned writes every column of rec, provided the stored version still
// equals expected. On success rec carries version expected+1. A moved version
// is a Conflict; a missing row is NotFound.
func (t *Table[T]) SaveVersioned(dbc dbctx.Context, scope Scope, rec *T, expected int) error {
	if t.version == "" {
		return fmt.Errorf("table %s has no version column", t.schema.Table)
	}
	if err := t.checkOwner(dbc.Ctx, scope, rec); err != nil {
		return err
	}
	ctx := ctxOrBackground(dbc.Ctx)
	rv := reflect.ValueOf(rec).Elem()
	vf := t.schema.LookUpField(t.version)
	if err := vf.Set(ctx, rv, expected+1); err != nil {
		return fmt.Errorf("set version: %w", err)
	}

	q, err := t.query(dbc, scope, []Filter{
		Eq(t.schema.PrioritizedPrimaryField.DBName, t.primaryKeyOf(ctx, rec)),
		Eq(t.version, expected),
	})
	if err != nil {
		return err
	}
	res := q.Select("*").Omit(t.schema.PrioritizedPrimaryField.Name, "CreatedAt").Updates(rec)
	if res.Error != nil {
		_ = vf.Set(ctx, rv, expected)
		return translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	_ = vf.Set(ctx, rv, expected)

	n, err := t.Count(dbc, scope, Eq(t.schema.PrioritizedPrimaryField.DBName, t.primaryKeyOf(ctx, rec)))
	if err != nil {
		return err
	}
	if n == 0 {
		return apierr.NotFound("not_found", "%s not found", t.schema.Table)
	}
	t.log.Debug("version conflict", "expected_version", expected)
	return apierr.Conflict("version_conflict", "%s was modified concurrently", t.schema.Table)
}

func (t *Table[T]) primaryKeys(dbc dbctx.Context, scope Scope, filters []Filter) ([]any, error) {
	q, err := t.query(dbc, scope, filters)
	if err != nil {
		return nil, err
	}
	var found []T
	if err := q.Find(&found).Error; err != nil {
		return nil, translate(err)
	}
	return t.keysOf(dbc.Ctx, found), nil
}

func (t *Table[T]) keysOf(ctx context.Context, recs []T) []any {
	ids := make([]any, 0, len(recs))
	for i := range recs {
		ids = append(ids, t.primaryKeyOf(ctx, &recs[i]))
	}
	return ids
}

func (t *Table[T]) primaryKeyOf(ctx context.Context, rec *T) any {
	v, _ := t.schema.PrioritizedPrimaryField.ValueOf(ctxOrBackground(ctx), reflect.ValueOf(rec).Elem())
	return v
}

func (t *Table[T]) checkOwner(ctx context.Context, scope Scope, rec *T) error {
	if scope.IsService() {
		return nil
	}
	if t.owner == "" {
		return apierr.Unauthorized("no_owner_column", "table %s is not user-scoped", t.schema.Table)
	}
	v, _ := t.schema.LookUpField(t.owner).ValueOf(ctxOrBackground(ctx), reflect.ValueOf(rec).Elem())
	if fmt.Sprint(v) != scope.UserID.String() {
		return apierr.Unauthorized("not_owner", "record does not belong to caller")
	}
	return nil
}

// Pluck returns the distinct values of column across matching rows.
func Pluck[T, V any](dbc dbctx.Context, t *Table[T], scope Scope, column string, filters ...Filter) ([]V, error) {
	if err := validColumn(column); err != nil {
		return nil, err
	}
	q, err := t.query(dbc, scope, filters)
	if err != nil {
		return nil, err
	}
	var out []V
	if err := q.Distinct(column).Pluck(column, &out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierr.NotFound("not_found", "record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return apierr.Conflict("duplicate", "%v", err)
	default:
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return err
		}
		return fmt.Errorf("datastore: %w", err)
	}
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
