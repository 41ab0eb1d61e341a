package domain

import "time"

// ColumnType is the inferred type tag of a column.
type ColumnType string

// ColumnType constants cover every tag the type inference can produce.
const (
	TypeInteger  ColumnType = "integer"
	TypeFloat    ColumnType = "float"
	TypeString   ColumnType = "string"
	TypeBoolean  ColumnType = "boolean"
	TypeDatetime ColumnType = "datetime"
	TypeNullOnly ColumnType = "null-only"
)

// Field pairs a column name with its inferred type.
type Field struct {
	Name string
	Type ColumnType
}

// Schema is the ordered mapping of column names to inferred types. Order
// matches the table's column order.
type Schema []Field

// Names returns the schema's column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// TypeOf returns the type tag of the named column.
func (s Schema) TypeOf(name string) (ColumnType, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.Type, true
		}
	}
	return "", false
}

// MatchesTable reports whether the schema's keys exactly equal the table's
// column names, in order.
func (s Schema) MatchesTable(t *Table) bool {
	if len(s) != len(t.Columns) {
		return false
	}
	for i, f := range s {
		if t.Columns[i].Name != f.Name {
			return false
		}
	}
	return true
}

// DeriveSchema computes the schema of a table whose cells are already typed.
// A column holding both int64 and float64 is float; any other mixture
// degrades to string; all-nil columns are null-only.
func DeriveSchema(t *Table) Schema {
	schema := make(Schema, len(t.Columns))
	for i, c := range t.Columns {
		schema[i] = Field{Name: c.Name, Type: deriveColumnType(&c)}
	}
	return schema
}

func deriveColumnType(c *Column) ColumnType {
	var (
		sawInt, sawFloat, sawBool, sawTime, sawString bool
		sawValue                                      bool
	)
	for _, v := range c.Cells {
		switch v.(type) {
		case nil:
			continue
		case int64:
			sawInt = true
		case float64:
			sawFloat = true
		case bool:
			sawBool = true
		case time.Time:
			sawTime = true
		default:
			sawString = true
		}
		sawValue = true
	}
	switch {
	case !sawValue:
		return TypeNullOnly
	case sawString:
		return TypeString
	case sawBool && !sawInt && !sawFloat && !sawTime:
		return TypeBoolean
	case sawTime && !sawInt && !sawFloat && !sawBool:
		return TypeDatetime
	case sawFloat && !sawBool && !sawTime:
		return TypeFloat
	case sawInt && !sawBool && !sawTime:
		return TypeInteger
	default:
		return TypeString
	}
}
