package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"membrane-connect-be/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a Membrane token for the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := app.client.Token(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(t)
		return nil
	},
}

func connectibleKind(c dto.Connectible) string {
	switch {
	case c.Integration != nil:
		return "integration"
	case c.ExternalApp != nil:
		return "app"
	default:
		return "connector"
	}
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search integrations, apps and connectors",
	Long: `Search integrations, apps and connectors. Without a query the
workspace's integrations and external apps are listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := app.client.SearchConnectibles(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No results.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tKIND\tCONNECTOR\tEXTERNAL APP\tINTEGRATION")
		for _, c := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Name, connectibleKind(c), c.ConnectorID(), c.ExternalAppID(), c.IntegrationKey())
		}
		return w.Flush()
	},
}

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Manage your registered services",
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

var servicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered services",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := app.client.ListServices(cmd.Context())
		if err != nil {
			return err
		}
		if len(services) == 0 {
			fmt.Println("No services yet. Use 'membranectl services add' or 'membranectl build'.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCONNECTOR\tEXTERNAL APP\tCONNECTION")
		for _, s := range services {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.Id, s.Name, orDash(s.ConnectorId), orDash(s.ExternalAppId), orDash(s.ConnectionId))
		}
		return w.Flush()
	},
}

var addFromSearch bool

var servicesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a service",
	Long: `Register a service. With --from-search the name is searched and the
best match (exact name first) supplies the connector, integration and app.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		req := dto.CreateMembraneServiceRequest{Name: name}

		if addFromSearch {
			results, err := app.client.SearchConnectibles(cmd.Context(), name)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return fmt.Errorf("nothing matches %q", name)
			}
			match := results[0]
			for _, c := range results {
				if strings.EqualFold(c.Name, name) {
					match = c
					break
				}
			}
			req = dto.CreateMembraneServiceRequest{
				Name:           match.Name,
				LogoUri:        match.LogoURI,
				ConnectorId:    match.ConnectorID(),
				IntegrationKey: match.IntegrationKey(),
				ExternalAppId:  match.ExternalAppID(),
			}
		} else {
			flags := cmd.Flags()
			req.LogoUri, _ = flags.GetString("logo-uri")
			req.ConnectorId, _ = flags.GetString("connector-id")
			req.IntegrationKey, _ = flags.GetString("integration-key")
			req.ExternalAppId, _ = flags.GetString("external-app-id")
		}

		svc, err := app.client.CreateService(cmd.Context(), req)
		if err != nil {
			return err
		}
		color.Green("Added %s (%s)", svc.Name, svc.Id)
		return nil
	},
}

var servicesConnectCmd = &cobra.Command{
	Use:   "connect <service-id> [connection-id]",
	Short: "Record a connection on a service; omit the connection to clear it",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		connectionID := ""
		if len(args) == 2 {
			connectionID = args[1]
		}
		svc, err := app.client.ConnectService(cmd.Context(), args[0], connectionID)
		if err != nil {
			return err
		}
		if svc.ConnectionId == nil {
			color.Yellow("Cleared connection on %s", svc.Name)
			return nil
		}
		color.Green("%s connected (%s)", svc.Name, *svc.ConnectionId)
		return nil
	},
}

// findService looks a service up by id among the user's services.
func findService(cmd *cobra.Command, id string) (*dto.MembraneServiceResponse, error) {
	services, err := app.client.ListServices(cmd.Context())
	if err != nil {
		return nil, err
	}
	if err := app.state.SetServices(services); err != nil {
		app.log.Warn("CLI", "Failed to publish services", map[string]interface{}{"error": err.Error()})
	}
	for _, s := range services {
		if s.Id == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("service %s not found", id)
}

func init() {
	servicesAddCmd.Flags().BoolVar(&addFromSearch, "from-search", false, "fill connector details from the best search match")
	servicesAddCmd.Flags().String("logo-uri", "", "logo URI")
	servicesAddCmd.Flags().String("connector-id", "", "connector id")
	servicesAddCmd.Flags().String("integration-key", "", "integration key")
	servicesAddCmd.Flags().String("external-app-id", "", "external app id")

	servicesCmd.AddCommand(servicesListCmd, servicesAddCmd, servicesConnectCmd)
}
