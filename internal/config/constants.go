package config

const (
	// DefaultDatabaseDriver is used when DATABASE_DRIVER is not set
	DefaultDatabaseDriver = "sqlite"

	// DefaultDatabasePath is the default path for the SQLite database
	DefaultDatabasePath = "./influence.db"
)
