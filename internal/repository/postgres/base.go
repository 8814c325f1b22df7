package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// ErrNoTenant is returned when the caller has no clinic and no cross-tenant
// capability. Query paths translate it into an empty result or a 404, never
// an unfiltered set.
var ErrNoTenant = errors.New("caller has no clinic assigned")

// BaseRepository provides transaction and tenant-scoping helpers shared by
// all postgres repositories.
type BaseRepository struct {
	db *sqlx.DB
}

func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// WithTx executes fn within a transaction.
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// scopeQuery accumulates WHERE conditions with positional args.
type scopeQuery struct {
	conds []string
	args  []interface{}
}

// where appends a condition. Placeholders are written as "$?" and rewritten
// to positional indexes when the clause is rendered.
func (q *scopeQuery) where(cond string, args ...interface{}) {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, args...)
}

// clause renders the accumulated conditions as a WHERE clause. Placeholders
// in conditions are written as %d-style "$?" markers and rewritten here.
func (q *scopeQuery) clause() (string, []interface{}) {
	if len(q.conds) == 0 {
		return "", nil
	}
	var sb strings.Builder
	sb.WriteString(" WHERE ")
	arg := 1
	for i, cond := range q.conds {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		for {
			idx := strings.Index(cond, "$?")
			if idx < 0 {
				break
			}
			cond = cond[:idx] + fmt.Sprintf("$%d", arg) + cond[idx+2:]
			arg++
		}
		sb.WriteString(cond)
	}
	return sb.String(), q.args
}

// next returns the next positional placeholder index after the accumulated
// conditions, for LIMIT/OFFSET args appended by callers.
func (q *scopeQuery) next() int {
	return len(q.args) + 1
}

// tenantScope applies the core isolation contract to a query: soft-deleted
// rows are hidden unless the mode says otherwise, and non-superusers only
// see their own clinic. Fails closed with ErrNoTenant.
//
// The soft-delete column is qualified with the same table alias as
// clinicColumn: joined queries (patients, treatments) reference tables that
// all carry is_deleted, and an unqualified reference is ambiguous to
// postgres.
func tenantScope(q *scopeQuery, scope model.Scope, mode model.ScopeMode, clinicColumn string) error {
	deletedColumn := "is_deleted"
	if dot := strings.LastIndex(clinicColumn, "."); dot >= 0 {
		deletedColumn = clinicColumn[:dot+1] + "is_deleted"
	}

	switch mode {
	case model.ScopeActive:
		q.where(deletedColumn + " = FALSE")
	case model.ScopeDeleted:
		q.where(deletedColumn + " = TRUE")
	case model.ScopeAll:
		// No soft-delete condition: administrative restore/audit path.
	}

	if scope.Superuser {
		return nil
	}
	if !scope.HasClinic() {
		return ErrNoTenant
	}
	q.where(clinicColumn+" = $?", scope.ClinicID)
	return nil
}
