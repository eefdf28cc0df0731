package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/influence/internal/auth"
	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/database/companies"
	"github.com/mrlokans/influence/internal/database/influencers"
	"github.com/mrlokans/influence/internal/entities"
)

// accountFlags are the fields both account kinds share.
type accountFlags struct {
	Name     string
	Email    string
	Password string
}

func (f *accountFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.Name, "name", "", "Display name (required)")
	fs.StringVar(&f.Email, "email", "", "Login email (required)")
	fs.StringVar(&f.Password, "password", os.Getenv("ACCOUNT_PASSWORD"), "Login password (or ACCOUNT_PASSWORD)")
}

func (f *accountFlags) validate() error {
	if f.Name == "" || f.Email == "" || f.Password == "" {
		return errors.New("name, email and password are required")
	}
	return nil
}

// CreateCompanyCommand registers a company account with its domains.
type CreateCompanyCommand struct {
	db          databaseFlags
	account     accountFlags
	Description string
	Website     string
	Domains     string
	out         io.Writer
}

func NewCreateCompanyCommand() *CreateCompanyCommand {
	return &CreateCompanyCommand{out: os.Stdout}
}

func (cmd *CreateCompanyCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-company", flag.ContinueOnError)
	cmd.db.register(fs)
	cmd.account.register(fs)
	fs.StringVar(&cmd.Description, "description", "", "Company description")
	fs.StringVar(&cmd.Website, "website", "", "Company website")
	fs.StringVar(&cmd.Domains, "domains", "", "Comma-separated domains, e.g. acme.com,acme.io")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-company [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Register a company account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s create-company -name Acme -email team@acme.com -domains acme.com\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cmd.account.validate(); err != nil {
		fs.Usage()
		return err
	}
	return nil
}

func (cmd *CreateCompanyCommand) Run() error {
	db, err := cmd.db.open()
	if err != nil {
		return err
	}
	defer db.Close()

	companiesRepo, err := companies.NewRepository(db)
	if err != nil {
		return err
	}
	influencersRepo, err := influencers.NewRepository(db)
	if err != nil {
		return err
	}

	service := auth.NewService(companiesRepo, influencersRepo, config.NewConfig().Auth)
	id, err := service.RegisterCompany(context.Background(), &entities.Company{
		Name:        cmd.account.Name,
		Email:       cmd.account.Email,
		Description: cmd.Description,
		Website:     cmd.Website,
		Domains:     splitCSV(cmd.Domains),
	}, cmd.account.Password)
	if err != nil {
		return fmt.Errorf("failed to register company: %w", err)
	}

	fmt.Fprintf(cmd.out, "Created company %q with id %d\n", cmd.account.Name, id)
	return nil
}

// CreateInfluencerCommand registers an influencer account with its subjects.
type CreateInfluencerCommand struct {
	db        databaseFlags
	account   accountFlags
	Bio       string
	Platform  string
	Followers int
	Subjects  string
	out       io.Writer
}

func NewCreateInfluencerCommand() *CreateInfluencerCommand {
	return &CreateInfluencerCommand{out: os.Stdout}
}

func (cmd *CreateInfluencerCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-influencer", flag.ContinueOnError)
	cmd.db.register(fs)
	cmd.account.register(fs)
	fs.StringVar(&cmd.Bio, "bio", "", "Short biography")
	fs.StringVar(&cmd.Platform, "platform", "", "Main platform, e.g. instagram or youtube")
	fs.IntVar(&cmd.Followers, "followers", 0, "Follower count")
	fs.StringVar(&cmd.Subjects, "subjects", "", "Comma-separated subjects, e.g. Travel,Food")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-influencer [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Register an influencer account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cmd.account.validate(); err != nil {
		fs.Usage()
		return err
	}
	if cmd.Followers < 0 {
		return errors.New("followers must not be negative")
	}
	return nil
}

func (cmd *CreateInfluencerCommand) Run() error {
	db, err := cmd.db.open()
	if err != nil {
		return err
	}
	defer db.Close()

	companiesRepo, err := companies.NewRepository(db)
	if err != nil {
		return err
	}
	influencersRepo, err := influencers.NewRepository(db)
	if err != nil {
		return err
	}

	service := auth.NewService(companiesRepo, influencersRepo, config.NewConfig().Auth)
	id, err := service.RegisterInfluencer(context.Background(), &entities.Influencer{
		Name:      cmd.account.Name,
		Email:     cmd.account.Email,
		Bio:       cmd.Bio,
		Platform:  cmd.Platform,
		Followers: cmd.Followers,
		Subjects:  splitCSV(cmd.Subjects),
	}, cmd.account.Password)
	if err != nil {
		return fmt.Errorf("failed to register influencer: %w", err)
	}

	fmt.Fprintf(cmd.out, "Created influencer %q with id %d\n", cmd.account.Name, id)
	return nil
}

func splitCSV(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
