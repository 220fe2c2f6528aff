package database

// Store backend names accepted by FACEID_STORE.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMariaDB  = "mariadb"
)

// Default locations of the local backends when FACEID_STORE_PATH is not set.
const (
	DefaultFilePath   = "models/embeddings.gob"
	DefaultSQLitePath = "models/embeddings.db"
)
