package sandbox

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/karthik2365/data-cleaning/internal/domain"

	"go.starlark.net/starlark"
)

// tableValue exposes a domain table to scripts. The surface is functional:
// every method returns a new table and the wrapped table is never mutated,
// so Freeze has nothing to do.
type tableValue struct {
	table *domain.Table
}

var (
	_ starlark.Value    = (*tableValue)(nil)
	_ starlark.HasAttrs = (*tableValue)(nil)
	_ starlark.Mapping  = (*tableValue)(nil)
	_ starlark.Sequence = (*tableValue)(nil)
)

func newTableValue(t *domain.Table) *tableValue { return &tableValue{table: t} }

func (v *tableValue) String() string {
	return fmt.Sprintf("<table %d rows x %d columns>", v.table.NumRows(), v.table.NumColumns())
}

func (v *tableValue) Type() string          { return "table" }
func (v *tableValue) Freeze()               {}
func (v *tableValue) Truth() starlark.Bool  { return starlark.Bool(v.table.NumRows() > 0) }
func (v *tableValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: table") }
func (v *tableValue) Len() int              { return v.table.NumRows() }

func (v *tableValue) Attr(name string) (starlark.Value, error) {
	if name == "columns" {
		names := v.table.ColumnNames()
		elems := make([]starlark.Value, len(names))
		for i, n := range names {
			elems[i] = starlark.String(n)
		}
		return starlark.NewList(elems), nil
	}
	return builtinAttr(v, name, tableMethods)
}

func (v *tableValue) AttrNames() []string {
	names := make([]string, 0, len(tableMethods)+1)
	names = append(names, "columns")
	for name := range tableMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get implements table[name] column access.
func (v *tableValue) Get(key starlark.Value) (starlark.Value, bool, error) {
	name, ok := starlark.AsString(key)
	if !ok {
		return nil, false, fmt.Errorf("table index must be a string column name, got %s", key.Type())
	}
	col, ok := v.table.ColumnByName(name)
	if !ok {
		return nil, false, &domain.MissingColumnError{Name: name}
	}
	return &columnValue{column: col}, true, nil
}

// Iterate yields one dict per row, keyed by column name in table order.
func (v *tableValue) Iterate() starlark.Iterator {
	return &tableIterator{table: v.table}
}

type tableIterator struct {
	table *domain.Table
	next  int
}

func (it *tableIterator) Next(p *starlark.Value) bool {
	if it.next >= it.table.NumRows() {
		return false
	}
	*p = rowDict(it.table, it.next)
	it.next++
	return true
}

func (it *tableIterator) Done() {}

func rowDict(t *domain.Table, i int) *starlark.Dict {
	d := starlark.NewDict(t.NumColumns())
	for _, c := range t.Columns {
		_ = d.SetKey(starlark.String(c.Name), cellToStarlark(c.Cells[i]))
	}
	return d
}

// columnValue exposes a single column: aggregate methods plus iteration
// and integer indexing over its cells.
type columnValue struct {
	column *domain.Column
}

var (
	_ starlark.Value     = (*columnValue)(nil)
	_ starlark.HasAttrs  = (*columnValue)(nil)
	_ starlark.Sequence  = (*columnValue)(nil)
	_ starlark.Indexable = (*columnValue)(nil)
)

func (v *columnValue) String() string {
	return fmt.Sprintf("<column %q of %d cells>", v.column.Name, len(v.column.Cells))
}

func (v *columnValue) Type() string          { return "column" }
func (v *columnValue) Freeze()               {}
func (v *columnValue) Truth() starlark.Bool  { return starlark.Bool(len(v.column.Cells) > 0) }
func (v *columnValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: column") }
func (v *columnValue) Len() int              { return len(v.column.Cells) }

func (v *columnValue) Index(i int) starlark.Value {
	return cellToStarlark(v.column.Cells[i])
}

func (v *columnValue) Iterate() starlark.Iterator {
	return &columnIterator{column: v.column}
}

func (v *columnValue) Attr(name string) (starlark.Value, error) {
	return builtinAttr(v, name, columnMethods)
}

func (v *columnValue) AttrNames() []string {
	names := make([]string, 0, len(columnMethods))
	for name := range columnMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type columnIterator struct {
	column *domain.Column
	next   int
}

func (it *columnIterator) Next(p *starlark.Value) bool {
	if it.next >= len(it.column.Cells) {
		return false
	}
	*p = cellToStarlark(it.column.Cells[it.next])
	it.next++
	return true
}

func (it *columnIterator) Done() {}

func builtinAttr(recv starlark.Value, name string, methods map[string]*starlark.Builtin) (starlark.Value, error) {
	b := methods[name]
	if b == nil {
		return nil, nil // no such method
	}
	return b.BindReceiver(recv), nil
}

// cellToStarlark converts a domain cell into its script representation.
// Datetime cells cross the boundary in their canonical text form.
func cellToStarlark(v any) starlark.Value {
	switch c := v.(type) {
	case nil:
		return starlark.None
	case int64:
		return starlark.MakeInt64(c)
	case float64:
		return starlark.Float(c)
	case bool:
		return starlark.Bool(c)
	case time.Time:
		return starlark.String(domain.FormatCell(c))
	case string:
		return starlark.String(c)
	}
	return starlark.None
}

// starlarkToCell converts a script scalar back into a domain cell.
// Non-finite floats are rejected so stored tables stay serializable.
func starlarkToCell(v starlark.Value) (any, error) {
	switch c := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(c), nil
	case starlark.Int:
		i, ok := c.Int64()
		if !ok {
			return nil, fmt.Errorf("integer out of range for a table cell")
		}
		return i, nil
	case starlark.Float:
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("cannot store non-finite number %v in a table cell", c)
		}
		return f, nil
	case starlark.String:
		return string(c), nil
	}
	return nil, fmt.Errorf("cannot store %s value in a table cell", v.Type())
}

var tableMethods = map[string]*starlark.Builtin{
	"drop_duplicates": starlark.NewBuiltin("drop_duplicates", tableDropDuplicates),
	"dropna":          starlark.NewBuiltin("dropna", tableDropNulls),
	"fillna":          starlark.NewBuiltin("fillna", tableFillNulls),
	"rename":          starlark.NewBuiltin("rename", tableRename),
	"select":          starlark.NewBuiltin("select", tableSelect),
	"drop":            starlark.NewBuiltin("drop", tableDrop),
	"sort_by":         starlark.NewBuiltin("sort_by", tableSortBy),
	"head":            starlark.NewBuiltin("head", tableHead),
	"filter":          starlark.NewBuiltin("filter", tableFilter),
	"map_column":      starlark.NewBuiltin("map_column", tableMapColumn),
	"with_column":     starlark.NewBuiltin("with_column", tableWithColumn),
	"trim_whitespace": starlark.NewBuiltin("trim_whitespace", tableTrimWhitespace),
	"lowercase":       starlark.NewBuiltin("lowercase", tableLowercase),
	"uppercase":       starlark.NewBuiltin("uppercase", tableUppercase),
	"clean":           starlark.NewBuiltin("clean", tableClean),
}

var columnMethods = map[string]*starlark.Builtin{
	"mean":       starlark.NewBuiltin("mean", columnMean),
	"sum":        starlark.NewBuiltin("sum", columnSum),
	"min":        starlark.NewBuiltin("min", columnMin),
	"max":        starlark.NewBuiltin("max", columnMax),
	"unique":     starlark.NewBuiltin("unique", columnUnique),
	"null_count": starlark.NewBuiltin("null_count", columnNullCount),
}

func recvTable(b *starlark.Builtin) *domain.Table {
	return b.Receiver().(*tableValue).table
}

func recvColumn(b *starlark.Builtin) *domain.Column {
	return b.Receiver().(*columnValue).column
}

func tableDropDuplicates(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return newTableValue(recvTable(b).DropDuplicates()), nil
}

func tableDropNulls(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var columns starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "columns?", &columns); err != nil {
		return nil, err
	}
	names, err := columnNamesArg(columns)
	if err != nil {
		return nil, err
	}
	out, err := recvTable(b).DropNulls(names...)
	if err != nil {
		return nil, err
	}
	return newTableValue(out), nil
}

func tableFillNulls(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value, columns starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "value", &value, "columns?", &columns); err != nil {
		return nil, err
	}
	cell, err := starlarkToCell(value)
	if err != nil {
		return nil, err
	}
	names, err := columnNamesArg(columns)
	if err != nil {
		return nil, err
	}
	out, err := recvTable(b).FillNulls(cell, names...)
	if err != nil {
		return nil, err
	}
	return newTableValue(out), nil
}

func tableRename(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var mapping *starlark.Dict
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "mapping", &mapping); err != nil {
		return nil, err
	}
	m := make(map[string]string, mapping.Len())
	for _, item := range mapping.Items() {
		from, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("rename: keys must be strings, got %s", item[0].Type())
		}
		to, ok := starlark.AsString(item[1])
		if !ok {
			return nil, fmt.Errorf("rename: values must be strings, got %s", item[1].Type())
		}
		m[from] = to
	}
	out, err := recvTable(b).Rename(m)
	if err != nil {
		return nil, err
	}
	return newTableValue(out), nil
}

func tableSelect(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var columns starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "columns", &columns); err != nil {
		return nil, err
	}
	names, err := columnNamesArg(columns)
	if err != nil {
		return nil, err
	}
	out, err := recvTable(b).Select(names)
	if err != nil {
		return nil, err
	}
	return newTableValue(out), nil
}

func tableDrop(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var columns starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "columns", &columns); err != nil {
		return nil, err
	}
	names, err := columnNamesArg(columns)
	if err != nil {
		return nil, err
	}
	out, err := recvTable(b).DropColumns(names)
	if err != nil {
		return nil, err
	}
	return newTableValue(out), nil
}

func tableSortBy(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var column string
	var reverse bool
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "column", &column, "reverse?", &reverse); err != nil {
		return nil, err
	}
	out, err := recvTable(b).SortBy(column, reverse)
	if err != nil {
		return nil, err
	}
	return newTableValue(out), nil
}

func tableHead(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var n int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n", &n); err != nil {
		return nil, err
	}
	return newTableValue(recvTable(b).Head(n)), nil
}

func tableFilter(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn starlark.Callable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "fn", &fn); err != nil {
		return nil, err
	}
	t := recvTable(b)
	keep := make([]bool, t.NumRows())
	for i := range keep {
		res, err := starlark.Call(thread, fn, starlark.Tuple{rowDict(t, i)}, nil)
		if err != nil {
			return nil, err
		}
		keep[i] = bool(res.Truth())
	}
	out, err := t.FilterRows(keep)
	if err != nil {
		return nil, err
	}
	return newTableValue(out), nil
}

func tableMapColumn(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var fn starlark.Callable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "fn", &fn); err != nil {
		return nil, err
	}
	t := recvTable(b)
	col, ok := t.ColumnByName(name)
	if !ok {
		return nil, &domain.MissingColumnError{Name: name}
	}
	cells := make([]any, len(col.Cells))
	for i, v := range col.Cells {
		res, err := starlark.Call(thread, fn, starlark.Tuple{cellToStarlark(v)}, nil)
		if err != nil {
			return nil, err
		}
		cell, err := starlarkToCell(res)
		if err != nil {
			return nil, err
		}
		cells[i] = cell
	}
	out, err := t.WithColumn(name, cells)
	if err != nil {
		return nil, err
	}
	return newTableValue(out), nil
}

func tableWithColumn(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var fn starlark.Callable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "fn", &fn); err != nil {
		return nil, err
	}
	t := recvTable(b)
	cells := make([]any, t.NumRows())
	for i := range cells {
		res, err := starlark.Call(thread, fn, starlark.Tuple{rowDict(t, i)}, nil)
		if err != nil {
			return nil, err
		}
		cell, err := starlarkToCell(res)
		if err != nil {
			return nil, err
		}
		cells[i] = cell
	}
	out, err := t.WithColumn(name, cells)
	if err != nil {
		return nil, err
	}
	return newTableValue(out), nil
}

func tableTrimWhitespace(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return newTableValue(recvTable(b).TrimWhitespace()), nil
}

func tableLowercase(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var columns starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "columns?", &columns); err != nil {
		return nil, err
	}
	names, err := columnNamesArg(columns)
	if err != nil {
		return nil, err
	}
	out, err := recvTable(b).Lowercase(names...)
	if err != nil {
		return nil, err
	}
	return newTableValue(out), nil
}

func tableUppercase(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var columns starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "columns?", &columns); err != nil {
		return nil, err
	}
	names, err := columnNamesArg(columns)
	if err != nil {
		return nil, err
	}
	out, err := recvTable(b).Uppercase(names...)
	if err != nil {
		return nil, err
	}
	return newTableValue(out), nil
}

func tableClean(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return newTableValue(recvTable(b).CleanStandard()), nil
}

func columnMean(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	m, ok := recvColumn(b).Mean()
	if !ok {
		return starlark.None, nil
	}
	return starlark.Float(m), nil
}

func columnSum(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	s, ok := recvColumn(b).Sum()
	if !ok {
		return starlark.None, nil
	}
	return starlark.Float(s), nil
}

func columnMin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	v, ok := recvColumn(b).Min()
	if !ok {
		return starlark.None, nil
	}
	return cellToStarlark(v), nil
}

func columnMax(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	v, ok := recvColumn(b).Max()
	if !ok {
		return starlark.None, nil
	}
	return cellToStarlark(v), nil
}

func columnUnique(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	values := recvColumn(b).Unique()
	elems := make([]starlark.Value, len(values))
	for i, v := range values {
		elems[i] = cellToStarlark(v)
	}
	return starlark.NewList(elems), nil
}

func columnNullCount(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return starlark.MakeInt(recvColumn(b).NullCount()), nil
}

// columnNamesArg accepts None, a single column name, or an iterable of
// names. Nil (argument omitted) and None both mean "all columns".
func columnNamesArg(v starlark.Value) ([]string, error) {
	if v == nil || v == starlark.None {
		return nil, nil
	}
	if s, ok := starlark.AsString(v); ok {
		return []string{s}, nil
	}
	it := starlark.Iterate(v)
	if it == nil {
		return nil, fmt.Errorf("want a column name or list of column names, got %s", v.Type())
	}
	defer it.Done()
	var names []string
	var elem starlark.Value
	for it.Next(&elem) {
		s, ok := starlark.AsString(elem)
		if !ok {
			return nil, fmt.Errorf("column names must be strings, got %s", elem.Type())
		}
		names = append(names, s)
	}
	return names, nil
}
