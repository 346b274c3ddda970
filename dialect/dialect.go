package dialect

import (
	"reflect"

	"github.com/shrek82/jrepo/model"
)

// Dialect represents the interface for database-specific SQL generation
// and type mapping. Each supported database registers an implementation
// under its driver name.
type Dialect interface {
	// Quote wraps a table or column name in database-specific quotes.
	Quote(name string) string
	// Placeholder returns the bind placeholder for the 1-based index.
	Placeholder(index int) string
	// DataTypeOf returns the column type for a Go reflect.Type.
	DataTypeOf(typ reflect.Type) string
	// InsertReturning returns a suffix that makes an INSERT yield the
	// generated key, or "" when the driver reports it via LastInsertId.
	InsertReturning(pkColumn string) string
	// CreateTableSQL generates the CREATE TABLE statement for a model.
	CreateTableSQL(m *model.Model) string
	// HasTableSQL generates the SQL to check whether a table exists.
	HasTableSQL(tableName string) (string, []any)
}

var dialects = make(map[string]Dialect)

// Register registers a dialect for a given driver name.
func Register(name string, d Dialect) {
	dialects[name] = d
}

// Get retrieves a registered dialect by driver name.
func Get(name string) (Dialect, bool) {
	d, ok := dialects[name]
	return d, ok
}
