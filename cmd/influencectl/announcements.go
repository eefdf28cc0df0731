package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/influence/internal/client"
	"github.com/mrlokans/influence/internal/entities"
)

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}

// parseDay reads a YYYY-MM-DD date in local time.
func parseDay(value string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must look like 2024-05-31", value)
	}
	return t, nil
}

func newAnnouncementsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "announcements",
		Aliases: []string{"ann"},
		Short:   "Browse and manage announcements",
		GroupID: "marketplace",
	}
	cmd.AddCommand(
		newAnnouncementsListCmd(a),
		newAnnouncementsShowCmd(a),
		newAnnouncementsCreateCmd(a),
		newAnnouncementsCloseCmd(a),
		newAnnouncementsDeleteCmd(a),
	)
	return cmd
}

func newAnnouncementsListCmd(a *app) *cobra.Command {
	var filter client.AnnouncementFilter
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List announcements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Status = entities.AnnouncementStatus(status)
			list, err := a.api.ListAnnouncements(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("listing announcements: %w", err)
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), list)
			}
			printAnnouncementList(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().UintVar(&filter.CompanyID, "company", 0, "only announcements of this company id")
	cmd.Flags().StringVarP(&filter.Subject, "subject", "s", "", "only announcements with this subject")
	cmd.Flags().StringVar(&status, "status", "", "open or closed")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum number of announcements")
	return cmd
}

func newAnnouncementsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an announcement and its applications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			announcement, err := a.api.GetAnnouncement(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("loading announcement: %w", err)
			}
			apps, err := a.api.ListApplications(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("loading applications: %w", err)
			}

			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"announcement": announcement,
					"applications": apps,
				})
			}
			printAnnouncement(cmd.OutOrStdout(), announcement, apps)
			return nil
		},
	}
}

func newAnnouncementsCreateCmd(a *app) *cobra.Command {
	var in client.AnnouncementInput
	var subjects []string
	var start, end string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new announcement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if start != "" {
				if in.StartDate, err = parseDay(start); err != nil {
					return err
				}
			}
			if in.EndDate, err = parseDay(end); err != nil {
				return err
			}
			// The end date covers the whole day.
			in.EndDate = in.EndDate.Add(24*time.Hour - time.Second)
			for _, s := range subjects {
				if s = strings.TrimSpace(s); s != "" {
					in.Subjects = append(in.Subjects, s)
				}
			}

			id, err := a.api.CreateAnnouncement(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("creating announcement: %w", err)
			}
			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]uint{"id": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created announcement %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "announcement title")
	cmd.Flags().StringVar(&in.Description, "description", "", "what the company is looking for")
	cmd.Flags().UintVar(&in.CompanyID, "company", 0, "company id (ignored when the server takes it from the token)")
	cmd.Flags().StringSliceVar(&subjects, "subjects", nil, "comma-separated subjects")
	cmd.Flags().Int64Var(&in.Payment, "payment", 0, "payment in whole currency units")
	cmd.Flags().IntVar(&in.MaxApplicants, "max-applicants", 0, "number of places (0 = unlimited)")
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newAnnouncementsCloseCmd(a *app) *cobra.Command {
	var reopen bool

	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Stop accepting applications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status := entities.AnnouncementClosed
			if reopen {
				status = entities.AnnouncementOpen
			}
			if err := a.api.SetAnnouncementStatus(cmd.Context(), id, status); err != nil {
				return fmt.Errorf("updating announcement: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Announcement %d is %s\n", id, status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reopen, "reopen", false, "open the announcement again")
	return cmd
}

func newAnnouncementsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an announcement with its subjects and applications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.api.DeleteAnnouncement(cmd.Context(), id); err != nil {
				return fmt.Errorf("deleting announcement: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted announcement %d\n", id)
			return nil
		},
	}
}
