package dialect

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/shrek82/jrepo/model"
)

func init() {
	Register("postgres", &postgres{})
}

type postgres struct{}

func (d *postgres) Quote(name string) string {
	return `"` + name + `"`
}

func (d *postgres) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *postgres) DataTypeOf(typ reflect.Type) string {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	switch typ.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int8, reflect.Int16, reflect.Uint8, reflect.Uint16:
		return "smallint"
	case reflect.Int32, reflect.Uint32:
		return "integer"
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return "bigint"
	case reflect.Float32:
		return "real"
	case reflect.Float64:
		return "double precision"
	case reflect.String:
		return "text"
	case reflect.Struct:
		if typ.Name() == "Time" {
			return "timestamptz"
		}
	}
	panic(fmt.Sprintf("invalid sql type %s (%s)", typ.Name(), typ.Kind()))
}

func (d *postgres) InsertReturning(pkColumn string) string {
	return " RETURNING " + d.Quote(pkColumn)
}

func (d *postgres) CreateTableSQL(m *model.Model) string {
	var columns []string
	for _, field := range m.Fields {
		var column string
		if field.IsAuto {
			column = fmt.Sprintf("%s bigserial", d.Quote(field.Column))
		} else {
			column = fmt.Sprintf("%s %s", d.Quote(field.Column), d.DataTypeOf(field.Type))
		}
		if field.IsPK {
			column += " PRIMARY KEY"
		}
		columns = append(columns, column)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.Quote(m.TableName), strings.Join(columns, ", "))
}

func (d *postgres) HasTableSQL(tableName string) (string, []any) {
	return "SELECT count(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1", []any{tableName}
}
