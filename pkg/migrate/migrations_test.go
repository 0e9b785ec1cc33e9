package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fitroom-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected one %s migration", suffix)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
	require.NoError(t, migrate.ValidateFS(migrate.Embedded()))
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	onDisk, err := migrate.Versions(os.DirFS("migrations"))
	require.NoError(t, err)
	embedded, err := migrate.Versions(migrate.Embedded())
	require.NoError(t, err)
	assert.NotEmpty(t, embedded)
	assert.Equal(t, onDisk, embedded)
}

func TestMigrationsContainSchemas(t *testing.T) {
	cases := map[string][]string{
		"create_products_table": {
			"CREATE TABLE IF NOT EXISTS products",
			"CHECK (price_cents >= 0)",
			"DROP TABLE IF EXISTS products",
		},
		"create_cart_line_items": {
			"CREATE TABLE IF NOT EXISTS cart_line_items",
			"CHECK (quantity > 0)",
			"CREATE INDEX IF NOT EXISTS idx_cart_line_items_cart_position",
		},
		"create_orders": {
			"CREATE TYPE order_status AS ENUM",
			"WHEN duplicate_object THEN NULL",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_idempotency_key",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_order_number",
			"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
			"DROP TYPE IF EXISTS order_status",
		},
		"create_outbox": {
			"CREATE TABLE IF NOT EXISTS outbox_events",
			"CREATE TABLE IF NOT EXISTS outbox_dlq",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_outbox_dlq_event_id",
		},
	}
	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			assert.True(t, strings.Contains(content, sub), "%s missing %q", suffix, sub)
		}
	}
}

func TestOrderStatusEnumMatchesLifecycle(t *testing.T) {
	content := readMigration(t, "create_orders")
	for _, status := range []string{"pending", "confirmed", "processing", "shipped", "delivered", "cancelled", "refunded"} {
		assert.Contains(t, content, "'"+status+"'")
	}
}
