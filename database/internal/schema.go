package internal

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Column is the part of a column definition that history tables are checked for.
type Column struct {
	Type     string
	Nullable bool
}

// Schema maps column names to their definitions.
type Schema map[string]Column

// SchemaError lists how an existing table differs from the expected schema.
// Extra columns are allowed.
type SchemaError struct {
	Table      string
	Missing    []string
	Mismatched []string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table %s does not match the expected schema", e.Table)

	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing columns: %s", strings.Join(e.Missing, ", "))
	}
	if len(e.Mismatched) > 0 {
		fmt.Fprintf(&b, "; mismatched columns: %s", strings.Join(e.Mismatched, "; "))
	}

	return b.String()
}

// CompareSchema checks actual against want. Type names are compared case
// insensitively. It returns a *SchemaError, or nil when every wanted column
// exists with the wanted type and nullability.
func CompareSchema(table string, want, actual Schema) error {
	e := &SchemaError{Table: table}

	for _, name := range slices.Sorted(maps.Keys(want)) {
		w := want[name]
		a, ok := actual[name]
		if !ok {
			e.Missing = append(e.Missing, name)
			continue
		}

		if !strings.EqualFold(a.Type, w.Type) {
			e.Mismatched = append(e.Mismatched,
				fmt.Sprintf("%s: expected %s, got %s", name, w.Type, strings.ToLower(a.Type)))
		}
		if a.Nullable != w.Nullable {
			e.Mismatched = append(e.Mismatched,
				fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", name, w.Nullable, a.Nullable))
		}
	}

	if len(e.Missing) == 0 && len(e.Mismatched) == 0 {
		return nil
	}
	return e
}
