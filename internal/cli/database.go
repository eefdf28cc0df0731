package cli

import (
	"flag"

	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/database"
)

// databaseFlags are shared by every command that opens the database. The
// defaults come from the same environment variables the server reads.
type databaseFlags struct {
	Driver string
	DSN    string
}

func (f *databaseFlags) register(fs *flag.FlagSet) {
	defaults := config.NewConfig().Database
	fs.StringVar(&f.Driver, "driver", defaults.Driver, "Database driver: sqlite, postgres or sqlserver")
	fs.StringVar(&f.DSN, "dsn", defaults.DSN, "Database path (sqlite) or connection string")
}

func (f *databaseFlags) open() (*database.Database, error) {
	return database.Open(config.Database{Driver: f.Driver, DSN: f.DSN})
}
