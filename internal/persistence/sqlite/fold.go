package sqlite

import (
	"database/sql/driver"
	"fmt"

	"golang.org/x/text/cases"
	moderncsqlite "modernc.org/sqlite"
)

// foldFunction is the SQL name of the Unicode case folding used by name
// searches. SQLite's LIKE only folds ASCII, so "JOÃO" would miss "João".
const foldFunction = "fold"

func init() {
	if err := moderncsqlite.RegisterDeterministicScalarFunction(foldFunction, 1, foldValue); err != nil {
		panic(fmt.Sprintf("register %s: %v", foldFunction, err))
	}
}

func foldValue(_ *moderncsqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return foldText(v), nil
	case []byte:
		return foldText(string(v)), nil
	default:
		return v, nil
	}
}

// foldText applies full Unicode case folding. A Caser keeps state, so each
// call gets its own.
func foldText(s string) string {
	return cases.Fold().String(s)
}
