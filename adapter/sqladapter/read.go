package sqladapter

import (
	"context"
	"database/sql"
	"reflect"
	"strings"
	"time"

	"github.com/shrek82/jrepo/core"
	"github.com/shrek82/jrepo/model"
	"github.com/shrek82/jrepo/query"
)

// One returns the single record matching the query, or nil when none
// does.
func (a *Adapter) One(ctx context.Context, q *query.Query) (any, error) {
	if !q.HasLimit {
		limited := *q
		limited.Limit(1)
		q = &limited
	}
	records, err := a.All(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Get returns the record with the given primary key, or nil when it
// does not exist.
func (a *Adapter) Get(ctx context.Context, m *model.Model, key any) (any, error) {
	if m.PKField == nil {
		return nil, core.ErrMissingPrimaryKey
	}

	stmt := a.replacePlaceholders(selectClause(a, m) + " WHERE " + a.dialect.Quote(m.PKField.Column) + " = ?")
	start := time.Now()
	rows, err := a.pool.QueryContext(ctx, stmt, key)
	a.logSQL(stmt, time.Since(start), key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRecord(rows, m)
}

// All returns every record matching the query.
func (a *Adapter) All(ctx context.Context, q *query.Query) ([]any, error) {
	stmt, args := a.buildSelect(q)

	start := time.Now()
	rows, err := a.pool.QueryContext(ctx, stmt, args...)
	a.logSQL(stmt, time.Since(start), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]any, 0)
	for rows.Next() {
		rec, err := scanRecord(rows, q.Model)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Reload re-reads a record from storage by its primary key.
func (a *Adapter) Reload(ctx context.Context, record any) (any, error) {
	m, err := model.GetModel(record)
	if err != nil {
		return nil, err
	}
	pk, set := m.PKValue(record)
	if !set {
		return nil, core.ErrMissingPrimaryKey
	}
	return a.Get(ctx, m, pk)
}

// buildSelect translates a query specification into a SELECT statement
// listing the model's columns in field order.
func (a *Adapter) buildSelect(q *query.Query) (string, []any) {
	var sb strings.Builder
	sb.WriteString(selectClause(a, q.Model))

	var args []any
	for i, cond := range q.Conds {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		if cond.Op == query.OpIn {
			values := reflect.ValueOf(cond.Value)
			if values.Kind() != reflect.Slice || values.Len() == 0 {
				sb.WriteString("1 = 0")
				continue
			}
			sb.WriteString(a.dialect.Quote(cond.Column))
			sb.WriteString(" IN (")
			for j := 0; j < values.Len(); j++ {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString("?")
				args = append(args, values.Index(j).Interface())
			}
			sb.WriteString(")")
			continue
		}
		sb.WriteString(a.dialect.Quote(cond.Column))
		sb.WriteString(" ")
		sb.WriteString(string(cond.Op))
		sb.WriteString(" ?")
		args = append(args, cond.Value)
	}

	for i, order := range q.Orders {
		if i == 0 {
			sb.WriteString(" ORDER BY ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(a.dialect.Quote(order.Column))
		if order.Desc {
			sb.WriteString(" DESC")
		}
	}

	if q.HasLimit {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.LimitN)
	}
	if q.HasOffset {
		sb.WriteString(" OFFSET ?")
		args = append(args, q.OffsetN)
	}

	return a.replacePlaceholders(sb.String()), args
}

func selectClause(a *Adapter, m *model.Model) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, field := range m.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.dialect.Quote(field.Column))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(a.dialect.Quote(m.TableName))
	return sb.String()
}

// scanRecord scans the current row into a fresh record pointer, with
// columns in the model's field order.
func scanRecord(rows *sql.Rows, m *model.Model) (any, error) {
	rec := m.New()
	val := reflect.ValueOf(rec).Elem()

	dest := make([]any, len(m.Fields))
	for i, field := range m.Fields {
		dest[i] = val.Field(field.Index).Addr().Interface()
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	return rec, nil
}
