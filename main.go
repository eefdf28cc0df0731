package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/influence/internal/cli"
	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is implemented by every subcommand in internal/cli.
type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	switch name {
	case "version":
		fmt.Printf("influence %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	}

	cmd := lookupCommand(name)
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// lookupCommand returns the operator command registered under name, or nil.
func lookupCommand(name string) command {
	switch name {
	case "migrate":
		return cli.NewMigrateCommand()
	case "create-company":
		return cli.NewCreateCompanyCommand()
	case "create-influencer":
		return cli.NewCreateInfluencerCommand()
	case "close-expired":
		return cli.NewCloseExpiredCommand()
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve              Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  migrate            Create or update the database schema\n")
	fmt.Fprintf(os.Stderr, "  create-company     Register a company account\n")
	fmt.Fprintf(os.Stderr, "  create-influencer  Register an influencer account\n")
	fmt.Fprintf(os.Stderr, "  close-expired      Close announcements whose end date has passed\n")
	fmt.Fprintf(os.Stderr, "  version            Print the build version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
