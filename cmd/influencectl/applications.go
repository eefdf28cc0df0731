package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/influence/internal/client"
	"github.com/mrlokans/influence/internal/entities"
)

func newApplyCmd(a *app) *cobra.Command {
	var influencerID uint
	var message string

	cmd := &cobra.Command{
		Use:     "apply <announcement-id>",
		Short:   "Apply to an announcement",
		GroupID: "marketplace",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			announcementID, err := parseID(args[0])
			if err != nil {
				return err
			}
			application, err := a.api.Apply(cmd.Context(), announcementID, influencerID, message)
			if err != nil {
				if client.IsConflict(err) {
					return fmt.Errorf("application refused: %w", err)
				}
				return fmt.Errorf("applying: %w", err)
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), application)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Application %d is %s\n", application.ID, application.Status)
			return nil
		},
	}

	cmd.Flags().UintVar(&influencerID, "influencer", 0, "influencer id (ignored when the server takes it from the token)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "note to the company")
	return cmd
}

func newApplicationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "applications",
		Short:   "Review applications",
		GroupID: "marketplace",
	}

	for _, status := range []entities.ApplicationStatus{entities.ApplicationAccepted, entities.ApplicationRejected} {
		verb := "accept"
		if status == entities.ApplicationRejected {
			verb = "reject"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   verb + " <application-id>",
			Short: "Mark an application as " + string(status),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				application, err := a.api.SetApplicationStatus(cmd.Context(), id, status)
				if err != nil {
					return fmt.Errorf("updating application: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Application %d is %s\n", application.ID, application.Status)
				return nil
			},
		})
	}
	return cmd
}

func newTokenCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Exchange email and password for an API token",
		GroupID: "system",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("INFLUENCE_PASSWORD")
			}
			token, err := a.api.IssueToken(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), token)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s %d)\n", token.Name, token.Role, token.AccountID)
			fmt.Fprintf(cmd.OutOrStdout(), "export INFLUENCE_TOKEN=%s\n", token.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password (INFLUENCE_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "health",
		Short:   "Check the health of the server",
		GroupID: "system",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := a.api.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("checking health: %w", err)
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), health)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Health:  %s\n", health.Status)
			fmt.Fprintf(w, "Version: %s\n", health.Version)
			for name, check := range health.Checks {
				fmt.Fprintf(w, "  %s: %s\n", name, check)
			}
			return nil
		},
	}
}
