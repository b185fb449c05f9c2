package reed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bookmarkSchema = `
import { pgTable, text, integer, boolean, timestamp } from 'drizzle-orm/pg-core';

export const bookmarks = pgTable('bookmarks', {
  id: text('id').primaryKey(),
  url: text('url').notNull(),
  ownerId: integer('owner_id').notNull().references(() => users.id),
  archived: boolean('archived').default(false),
  createdAt: timestamp('created_at').defaultNow(),
});
`

func TestParseSchemaExtractsColumns(t *testing.T) {
	tables, err := ParseSchema([]byte(bookmarkSchema))
	require.NoError(t, err)
	require.Len(t, tables, 1)

	tbl := tables[0]
	assert.Equal(t, "bookmarks", tbl.TableName)
	assert.Equal(t, "bookmarks", tbl.ExportName)
	require.Len(t, tbl.Columns, 5)

	byName := map[string]Column{}
	for _, c := range tbl.Columns {
		byName[c.Name] = c
	}

	assert.True(t, byName["id"].IsPrimaryKey)
	assert.False(t, byName["id"].Nullable)

	assert.False(t, byName["url"].Nullable)

	assert.Equal(t, "() => users.id", byName["ownerId"].References)

	assert.Equal(t, "false", byName["archived"].DefaultValue)
	assert.True(t, byName["archived"].Nullable)
}

func TestParseSchemaRejectsMissingPrimaryKey(t *testing.T) {
	schema := `
export const widgets = pgTable('widgets', {
  name: text('name').notNull(),
});
`
	_, err := ParseSchema([]byte(schema))
	require.Error(t, err)

	var svErr *SchemaValidationError
	assert.ErrorAs(t, err, &svErr)
}

func TestParseSchemaRejectsUnknownColumnType(t *testing.T) {
	schema := `
export const widgets = pgTable('widgets', {
  id: mysteryType('id').primaryKey(),
});
`
	_, err := ParseSchema([]byte(schema))
	require.Error(t, err)
}
