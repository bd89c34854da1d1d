package dialect

// SQLite schema. Timestamps are fixed-width UTC text (SQLiteTimeLayout) and
// JSON documents are TEXT.
const (
	sqliteCreateUsers = `CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT,
    full_name TEXT,
    role TEXT NOT NULL DEFAULT 'user',
    created_date TEXT NOT NULL,
    updated_date TEXT NOT NULL
);`

	sqliteCreateEntities = `CREATE TABLE IF NOT EXISTS entities (
    id TEXT PRIMARY KEY,
    entity_type TEXT NOT NULL,
    data TEXT NOT NULL DEFAULT '{}',
    created_by TEXT,
    created_date TEXT NOT NULL,
    updated_date TEXT NOT NULL
);`

	sqliteCreateSettings = `CREATE TABLE IF NOT EXISTS site_settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL DEFAULT '{}',
    updated_date TEXT NOT NULL
);`
)

// PostgreSQL schema.
const (
	pgCreateUsers = `CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT,
    full_name TEXT,
    role TEXT NOT NULL DEFAULT 'user',
    created_date TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_date TIMESTAMPTZ NOT NULL DEFAULT now()
);`

	pgCreateEntities = `CREATE TABLE IF NOT EXISTS entities (
    id TEXT PRIMARY KEY,
    entity_type TEXT NOT NULL,
    data JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_by TEXT,
    created_date TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_date TIMESTAMPTZ NOT NULL DEFAULT now()
);`

	pgCreateSettings = `CREATE TABLE IF NOT EXISTS site_settings (
    key TEXT PRIMARY KEY,
    value JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_date TIMESTAMPTZ NOT NULL DEFAULT now()
);`
)

// Index DDL, identical in both dialects.
const (
	idxEntitiesType        = `CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(entity_type);`
	idxEntitiesCreatedBy   = `CREATE INDEX IF NOT EXISTS idx_entities_created_by ON entities(created_by);`
	idxEntitiesTypeCreated = `CREATE INDEX IF NOT EXISTS idx_entities_type_created ON entities(entity_type, created_date);`
)

// sqliteDDL lists all statements for SQLite in dependency order.
var sqliteDDL = []string{
	sqliteCreateUsers,
	sqliteCreateEntities,
	sqliteCreateSettings,
	idxEntitiesType,
	idxEntitiesCreatedBy,
	idxEntitiesTypeCreated,
}

// postgresDDL lists all statements for PostgreSQL in dependency order.
var postgresDDL = []string{
	pgCreateUsers,
	pgCreateEntities,
	pgCreateSettings,
	idxEntitiesType,
	idxEntitiesCreatedBy,
	idxEntitiesTypeCreated,
}
