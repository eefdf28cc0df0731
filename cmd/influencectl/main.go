// Command influencectl is a terminal dashboard for an Infinite Influence
// server. It talks to the REST API only.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrlokans/influence/internal/client"
)

const defaultServer = "http://localhost:8188"

// app carries the resolved global flags to every command.
type app struct {
	v          *viper.Viper
	jsonOutput bool
	api        *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("INFLUENCE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	a.v.SetDefault("server", defaultServer)

	root := &cobra.Command{
		Use:           "influencectl <command>",
		Short:         "Dashboard for the Infinite Influence service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			server := a.v.GetString("server")
			if server == "" {
				return fmt.Errorf("server address is empty (use --server or INFLUENCE_SERVER)")
			}
			a.api = client.New(server, a.v.GetString("token"))
			return nil
		},
	}

	root.PersistentFlags().String("server", defaultServer, "server URL (INFLUENCE_SERVER)")
	root.PersistentFlags().String("token", "", "API token (INFLUENCE_TOKEN)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "output as JSON")
	_ = a.v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = a.v.BindPFlag("token", root.PersistentFlags().Lookup("token"))

	root.AddGroup(
		&cobra.Group{ID: "marketplace", Title: "Marketplace:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	root.AddCommand(
		newAnnouncementsCmd(a),
		newCompaniesCmd(a),
		newInfluencersCmd(a),
		newApplyCmd(a),
		newApplicationsCmd(a),
		newTokenCmd(a),
		newHealthCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
