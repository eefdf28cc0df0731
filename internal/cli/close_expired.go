package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrlokans/influence/internal/database/announcements"
)

// CloseExpiredCommand closes every open announcement whose end date has
// passed, without going through the task queue.
type CloseExpiredCommand struct {
	db  databaseFlags
	now func() time.Time
	out io.Writer
}

func NewCloseExpiredCommand() *CloseExpiredCommand {
	return &CloseExpiredCommand{now: time.Now, out: os.Stdout}
}

func (cmd *CloseExpiredCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("close-expired", flag.ContinueOnError)
	cmd.db.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s close-expired [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Close announcements whose end date has passed.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *CloseExpiredCommand) Run() error {
	db, err := cmd.db.open()
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := announcements.NewRepository(db)
	if err != nil {
		return err
	}

	closed, err := repo.CloseExpired(context.Background(), cmd.now())
	if err != nil {
		return fmt.Errorf("failed to close expired announcements: %w", err)
	}

	fmt.Fprintf(cmd.out, "Closed %d expired announcement(s)\n", closed)
	return nil
}
