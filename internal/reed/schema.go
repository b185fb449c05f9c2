package reed

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Column describes a single Drizzle column, derived from its
// column-descriptor call chain (spec.md section 4.3 "Drizzle schema parsing").
type Column struct {
	Name         string
	Type         string
	Nullable     bool
	DefaultValue string
	IsPrimaryKey bool
	// References holds the referenced table.column expression text
	// when this column carries a foreign-key `.references(...)` call,
	// empty otherwise.
	References string
}

// Table is one exported Drizzle table-shape value.
type Table struct {
	// ExportName is the name under which the table is exported.
	ExportName string
	TableName  string
	Columns    []Column
}

// tableFactories are the Drizzle table-factory identifiers Reed
// recognizes as producing a table-shape value.
var tableFactories = map[string]bool{
	"pgTable":     true,
	"sqliteTable": true,
	"mysqlTable":  true,
}

// ParseSchema parses a Drizzle schema module's source and returns
// every exported table-shape value it finds, validating that each has
// a primary key and every column resolved to a known type.
func ParseSchema(content []byte) ([]Table, error) {
	tree, err := parseTS(content)
	if err != nil {
		return nil, &SchemaValidationError{Msg: err.Error()}
	}
	defer tree.Close()

	var tables []Table

	for _, binding := range topLevelExportedDeclarators(tree.RootNode(), content) {
		base := baseCallExpr(binding.Value)
		if base == nil {
			continue
		}

		fn := childByField(base, "function")
		if fn == nil || fn.Type() != "identifier" || !tableFactories[nodeText(fn, content)] {
			continue
		}

		table, terr := buildTable(binding.Name, base, content)
		if terr != nil {
			return nil, terr
		}

		tables = append(tables, table)
	}

	if err := validateTables(tables); err != nil {
		return nil, err
	}

	return tables, nil
}

// baseCallExpr walks down a postfixed method-chain expression
// (`pgTable(...).something()`) to the innermost call whose callee is a
// bare identifier -- the actual table-factory invocation.
func baseCallExpr(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "call_expression" {
		fn := childByField(n, "function")
		if fn == nil {
			return nil
		}

		if fn.Type() == "identifier" {
			return n
		}

		if fn.Type() == "member_expression" {
			n = childByField(fn, "object")
			continue
		}

		return nil
	}

	return nil
}

// buildTable interprets a pgTable/sqliteTable/mysqlTable("name", {...})
// call: the first argument is the table name, the second an object
// literal of column descriptors.
func buildTable(exportName string, call *sitter.Node, content []byte) (Table, error) {
	t := Table{ExportName: exportName, TableName: exportName}

	args := childByField(call, "arguments")
	if args == nil {
		return t, nil
	}

	if nameArg := args.NamedChild(0); nameArg != nil && nameArg.Type() == "string" {
		t.TableName = strings.Trim(nodeText(nameArg, content), `'"`+"`")
	}

	columnsArg := args.NamedChild(1)
	if columnsArg == nil || columnsArg.Type() != "object" {
		return t, nil
	}

	for i := 0; i < int(columnsArg.NamedChildCount()); i++ {
		pair := columnsArg.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}

		keyNode := childByField(pair, "key")
		valueNode := childByField(pair, "value")

		colName := strings.Trim(nodeText(keyNode, content), `'"`+"`")

		col, err := buildColumn(colName, valueNode, content)
		if err != nil {
			return t, err
		}

		t.Columns = append(t.Columns, col)
	}

	return t, nil
}

// columnTypes are the Drizzle column-type factory identifiers Reed
// recognizes as resolving a column's base type.
var columnTypes = map[string]bool{
	"text": true, "varchar": true, "integer": true, "serial": true,
	"boolean": true, "timestamp": true, "date": true, "real": true,
	"doublePrecision": true, "numeric": true, "json": true, "jsonb": true,
	"uuid": true, "bigint": true, "smallint": true, "blob": true,
}

// buildColumn interprets a column descriptor chain such as
// `text('name').primaryKey().notNull()` or
// `integer('owner_id').references(() => users.id)`.
func buildColumn(name string, value *sitter.Node, content []byte) (Column, error) {
	col := Column{Name: name, Nullable: true}

	chain := flattenChain(value, content)
	if len(chain) == 0 {
		return col, &SchemaValidationError{Msg: fmt.Sprintf("column %q has unresolved type", name)}
	}

	base := chain[0]
	if !columnTypes[base.Name] {
		return col, &SchemaValidationError{Msg: fmt.Sprintf("column %q has unknown column type %q", name, base.Name)}
	}

	col.Type = base.Name

	for _, link := range chain[1:] {
		switch link.Name {
		case "primaryKey":
			col.IsPrimaryKey = true
			col.Nullable = false
		case "notNull":
			col.Nullable = false
		case "default", "defaultNow", "defaultRandom":
			if len(link.Args) > 0 {
				col.DefaultValue = link.Args[0]
			} else {
				col.DefaultValue = link.Name + "()"
			}
		case "references":
			if len(link.Args) > 0 {
				col.References = link.Args[0]
			}
		}
	}

	return col, nil
}

func validateTables(tables []Table) error {
	for _, t := range tables {
		hasPK := false

		for _, c := range t.Columns {
			if c.IsPrimaryKey {
				hasPK = true
			}
		}

		if !hasPK {
			return &SchemaValidationError{Msg: fmt.Sprintf("table %q has no primary key", t.TableName)}
		}
	}

	return nil
}

// SchemaValidationError represents spec.md section 7 taxonomy item 3 "Schema
// validation error" -- fatal for the whole run.
type SchemaValidationError struct {
	Msg string
}

func (e *SchemaValidationError) Error() string { return "schema validation error: " + e.Msg }

// chainCall is one link of a fluent method chain, e.g. the `.notNull()`
// in `text('name').notNull()`.
type chainCall struct {
	Name string
	Args []string
}

// flattenChain unwraps a nested call_expression / member_expression
// chain into an ordered, base-first list of calls.
func flattenChain(n *sitter.Node, content []byte) []chainCall {
	if n == nil || n.Type() != "call_expression" {
		return nil
	}

	fn := childByField(n, "function")
	argsNode := childByField(n, "arguments")

	var args []string

	if argsNode != nil {
		for i := 0; i < int(argsNode.NamedChildCount()); i++ {
			args = append(args, nodeText(argsNode.NamedChild(i), content))
		}
	}

	if fn == nil {
		return nil
	}

	switch fn.Type() {
	case "identifier":
		return []chainCall{{Name: nodeText(fn, content), Args: args}}
	case "member_expression":
		obj := childByField(fn, "object")
		prop := childByField(fn, "property")
		base := flattenChain(obj, content)

		return append(base, chainCall{Name: nodeText(prop, content), Args: args})
	default:
		return nil
	}
}
