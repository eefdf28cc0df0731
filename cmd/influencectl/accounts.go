package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/influence/internal/client"
)

func newCompaniesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "companies",
		Short:   "Browse and register companies",
		GroupID: "marketplace",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List companies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			companies, err := a.api.ListCompanies(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing companies: %w", err)
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), companies)
			}
			printCompanyList(cmd.OutOrStdout(), companies)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			company, err := a.api.GetCompany(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("loading company: %w", err)
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), company)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ID:          %d\n", company.ID)
			fmt.Fprintf(w, "Name:        %s\n", company.Name)
			fmt.Fprintf(w, "Email:       %s\n", company.Email)
			if company.Website != "" {
				fmt.Fprintf(w, "Website:     %s\n", company.Website)
			}
			if len(company.Domains) > 0 {
				fmt.Fprintf(w, "Domains:     %v\n", company.Domains)
			}
			if company.Description != "" {
				fmt.Fprintf(w, "Description: %s\n", company.Description)
			}
			return nil
		},
	}

	var in client.CompanyInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a company account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("INFLUENCE_PASSWORD")
			}
			id, err := a.api.CreateCompany(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("registering company: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created company %d\n", id)
			return nil
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "company name")
	create.Flags().StringVar(&in.Email, "email", "", "login email")
	create.Flags().StringVar(&in.Password, "password", "", "login password (INFLUENCE_PASSWORD)")
	create.Flags().StringVar(&in.Description, "description", "", "company description")
	create.Flags().StringVar(&in.Website, "website", "", "company website")
	create.Flags().StringSliceVar(&in.Domains, "domains", nil, "comma-separated domains")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(list, show, create)
	return cmd
}

func newInfluencersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "influencers",
		Short:   "Browse influencers",
		GroupID: "marketplace",
	}

	var subject, platform string
	list := &cobra.Command{
		Use:   "list",
		Short: "List influencers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			influencers, err := a.api.ListInfluencers(cmd.Context(), subject, platform)
			if err != nil {
				return fmt.Errorf("listing influencers: %w", err)
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), influencers)
			}
			printInfluencerList(cmd.OutOrStdout(), influencers)
			return nil
		},
	}
	list.Flags().StringVarP(&subject, "subject", "s", "", "only influencers covering this subject")
	list.Flags().StringVar(&platform, "platform", "", "only influencers on this platform")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an influencer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			influencer, err := a.api.GetInfluencer(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("loading influencer: %w", err)
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), influencer)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ID:          %d\n", influencer.ID)
			fmt.Fprintf(w, "Name:        %s\n", influencer.Name)
			if influencer.Platform != "" {
				fmt.Fprintf(w, "Platform:    %s\n", influencer.Platform)
			}
			fmt.Fprintf(w, "Followers:   %d\n", influencer.Followers)
			if len(influencer.Subjects) > 0 {
				fmt.Fprintf(w, "Subjects:    %v\n", influencer.Subjects)
			}
			if influencer.Bio != "" {
				fmt.Fprintf(w, "Bio:         %s\n", influencer.Bio)
			}
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
