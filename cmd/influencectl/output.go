package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mrlokans/influence/internal/entities"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateOnly)
}

func printAnnouncementList(w io.Writer, list []entities.Announcement) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tCOMPANY\tTITLE\tPAYMENT\tENDS\tSUBJECTS")
	for _, a := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			a.ID,
			a.Status,
			a.CompanyName,
			truncate(a.Title, 40),
			a.Payment,
			formatDate(a.EndDate),
			strings.Join(a.Subjects, ", "),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d announcements\n", len(list))
}

func printAnnouncement(w io.Writer, a *entities.Announcement, apps []entities.Application) {
	fmt.Fprintf(w, "ID:          %d\n", a.ID)
	fmt.Fprintf(w, "Title:       %s\n", a.Title)
	fmt.Fprintf(w, "Company:     %s (%d)\n", a.CompanyName, a.CompanyID)
	fmt.Fprintf(w, "Status:      %s\n", a.Status)
	fmt.Fprintf(w, "Payment:     %d\n", a.Payment)
	if a.MaxApplicants > 0 {
		fmt.Fprintf(w, "Places:      %d\n", a.MaxApplicants)
	}
	fmt.Fprintf(w, "Runs:        %s to %s\n", formatDate(a.StartDate), formatDate(a.EndDate))
	if len(a.Subjects) > 0 {
		fmt.Fprintf(w, "Subjects:    %s\n", strings.Join(a.Subjects, ", "))
	}
	if a.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", a.Description)
	}

	if len(apps) == 0 {
		return
	}
	fmt.Fprintln(w)
	printApplicationList(w, apps)
}

func printApplicationList(w io.Writer, apps []entities.Application) {
	tw := newTable(w)
	fmt.Fprintln(tw, "APPLICATION\tSTATUS\tANNOUNCEMENT\tINFLUENCER\tMESSAGE")
	for _, app := range apps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			app.ID,
			app.Status,
			truncate(app.AnnouncementTitle, 30),
			app.InfluencerName,
			truncate(app.Message, 40),
		)
	}
	tw.Flush()
}

func printCompanyList(w io.Writer, list []entities.Company) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tDOMAINS")
	for _, c := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, strings.Join(c.Domains, ", "))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d companies\n", len(list))
}

func printInfluencerList(w io.Writer, list []entities.Influencer) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tPLATFORM\tFOLLOWERS\tSUBJECTS")
	for _, i := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", i.ID, i.Name, i.Platform, i.Followers, strings.Join(i.Subjects, ", "))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d influencers\n", len(list))
}
