package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the ledger.
	DatabaseBackend string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All ledger backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid ledger backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
}

// Relation names, shared by the store, status output and exports.
const (
	ProjectsTable      = "projects"
	AuthorsTable       = "authors"
	CommitsTable       = "commits"
	FileRevisionsTable = "file_revisions"
	ChangesTable       = "changes"
	BlameTargetsTable  = "blame_targets"
	OwnershipTable     = "ownership"
)

// AllTables lists every ledger relation in dependency order (parents first).
var AllTables = []string{
	ProjectsTable,
	AuthorsTable,
	CommitsTable,
	FileRevisionsTable,
	ChangesTable,
	BlameTargetsTable,
	OwnershipTable,
}
