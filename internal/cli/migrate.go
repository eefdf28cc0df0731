package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
)

type MigrateCommand struct {
	db  databaseFlags
	out io.Writer
}

func NewMigrateCommand() *MigrateCommand {
	return &MigrateCommand{out: os.Stdout}
}

func (cmd *MigrateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	cmd.db.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create or update the database schema.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *MigrateCommand) Run() error {
	// Opening the database runs the migration.
	db, err := cmd.db.open()
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(cmd.out, "Schema is up to date (%s, %s)\n", db.Dialect().Name(), cmd.db.DSN)
	return nil
}
