package sqladapter

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/shrek82/jrepo/core"
)

// Insert stores the changeset's record and writes the generated primary
// key back onto it.
func (a *Adapter) Insert(ctx context.Context, cs *core.Changeset) (any, error) {
	m := cs.Model
	val := reflect.ValueOf(cs.Record).Elem()
	now := time.Now()

	var columns []string
	var args []any
	for _, field := range m.Fields {
		if field.IsAuto {
			continue
		}
		fv := val.Field(field.Index)
		if (field.AutoTime || field.AutoUpdate) && fv.CanSet() {
			fv.Set(reflect.ValueOf(now))
		}
		columns = append(columns, field.Column)
		args = append(args, fv.Interface())
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(a.dialect.Quote(m.TableName))
	sb.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.dialect.Quote(col))
	}
	sb.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
	}
	sb.WriteString(")")

	if m.PKField != nil && m.PKField.IsAuto {
		if suffix := a.dialect.InsertReturning(m.PKField.Column); suffix != "" {
			stmt := a.replacePlaceholders(sb.String() + suffix)
			start := time.Now()
			row := a.pool.QueryRowContext(ctx, stmt, args...)
			a.logSQL(stmt, time.Since(start), args...)

			pv := reflect.New(m.PKField.Type)
			if err := row.Scan(pv.Interface()); err != nil {
				return nil, err
			}
			val.Field(m.PKField.Index).Set(pv.Elem())
			return cs.Record, nil
		}

		stmt := a.replacePlaceholders(sb.String())
		start := time.Now()
		res, err := a.pool.ExecContext(ctx, stmt, args...)
		a.logSQL(stmt, time.Since(start), args...)
		if err != nil {
			return nil, err
		}

		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		pk := val.Field(m.PKField.Index)
		pk.Set(reflect.ValueOf(id).Convert(pk.Type()))
		return cs.Record, nil
	}

	stmt := a.replacePlaceholders(sb.String())
	start := time.Now()
	_, err := a.pool.ExecContext(ctx, stmt, args...)
	a.logSQL(stmt, time.Since(start), args...)
	if err != nil {
		return nil, err
	}
	return cs.Record, nil
}

// Update writes the changeset's record back to its row. With explicit
// changes only those columns are written; otherwise every non-key
// column is.
func (a *Adapter) Update(ctx context.Context, cs *core.Changeset) (any, error) {
	m := cs.Model
	if m.PKField == nil {
		return nil, core.ErrMissingPrimaryKey
	}
	pk, set := m.PKValue(cs.Record)
	if !set {
		return nil, core.ErrMissingPrimaryKey
	}

	val := reflect.ValueOf(cs.Record).Elem()
	now := time.Now()

	var columns []string
	var args []any
	for _, field := range m.Fields {
		if field.IsPK || field.IsAuto {
			continue
		}
		fv := val.Field(field.Index)
		if field.AutoUpdate && fv.CanSet() {
			fv.Set(reflect.ValueOf(now))
		} else if len(cs.Changes) > 0 {
			if _, ok := cs.Changes[field.Column]; !ok {
				continue
			}
		}
		columns = append(columns, field.Column)
		args = append(args, fv.Interface())
	}
	if len(columns) == 0 {
		return cs.Record, nil
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(a.dialect.Quote(m.TableName))
	sb.WriteString(" SET ")
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.dialect.Quote(col))
		sb.WriteString(" = ?")
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(a.dialect.Quote(m.PKField.Column))
	sb.WriteString(" = ?")
	args = append(args, pk)

	stmt := a.replacePlaceholders(sb.String())
	start := time.Now()
	_, err := a.pool.ExecContext(ctx, stmt, args...)
	a.logSQL(stmt, time.Since(start), args...)
	if err != nil {
		return nil, err
	}
	return cs.Record, nil
}

// Delete removes the changeset's record by primary key.
func (a *Adapter) Delete(ctx context.Context, cs *core.Changeset) (any, error) {
	m := cs.Model
	if m.PKField == nil {
		return nil, core.ErrMissingPrimaryKey
	}
	pk, set := m.PKValue(cs.Record)
	if !set {
		return nil, core.ErrMissingPrimaryKey
	}

	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(a.dialect.Quote(m.TableName))
	sb.WriteString(" WHERE ")
	sb.WriteString(a.dialect.Quote(m.PKField.Column))
	sb.WriteString(" = ?")

	stmt := a.replacePlaceholders(sb.String())
	start := time.Now()
	_, err := a.pool.ExecContext(ctx, stmt, pk)
	a.logSQL(stmt, time.Since(start), pk)
	if err != nil {
		return nil, err
	}
	return cs.Record, nil
}
