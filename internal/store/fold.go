package store

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// foldFunc is the SQL name of the Unicode case fold used by substring
// matching. SQLite's built-in lower() folds ASCII only.
const foldFunc = "fold_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, foldLower)
}

// foldLower lowercases its argument with the same rules as fold, so a
// query folded in Go matches rows folded in SQL.
func foldLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return fold(v), nil
	case []byte:
		return fold(string(v)), nil
	default:
		return v, nil
	}
}

func fold(s string) string {
	return strings.ToLower(s)
}
