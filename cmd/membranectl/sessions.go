package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/pkg/actionpicker"
	"membrane-connect-be/pkg/agentsession"

	"github.com/spf13/cobra"
)

var (
	appURL string
	detach bool
)

func newOrchestrator() *agentsession.Orchestrator {
	sessions := agentsession.NewSessionStore(app.storage, app.log)
	return agentsession.NewOrchestrator(app.client, sessions, app.state, app.notifier, app.log)
}

// waitForSessions blocks until every poll loop ends. On interrupt the
// loops stop but the sessions stay persisted for 'membranectl resume'.
func waitForSessions(ctx context.Context, orch *agentsession.Orchestrator) {
	if detach {
		orch.CancelAll()
		fmt.Println("Detached. Run 'membranectl resume' to keep polling.")
		return
	}

	done := make(chan struct{})
	go func() {
		orch.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		orch.CancelAll()
		<-done
		fmt.Println("\nStopped polling. Run 'membranectl resume' to continue.")
	}
}

var buildCmd = &cobra.Command{
	Use:   "build <app-name>",
	Short: "Ask the agent to build an integration for an app",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		orch := newOrchestrator()
		if !detach {
			err := app.state.OnServicesUpdated(ctx, func(services []*dto.MembraneServiceResponse) {
				fmt.Printf("Services refreshed: %d connected\n", len(services))
			})
			if err != nil {
				return err
			}
		}
		if _, err := orch.StartBuildSession(ctx, strings.Join(args, " "), appURL); err != nil {
			return err
		}
		waitForSessions(ctx, orch)
		return nil
	},
}

var addActionCmd = &cobra.Command{
	Use:   "add-action <service-id> <description>",
	Short: "Ask the agent to add an action to a connected service",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := findService(cmd, args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		refreshed := make(chan struct{}, 1)
		if !detach {
			picker := newPicker()
			err := picker.Watch(ctx, func(int) {
				printServiceActions(ctx, picker, svc)
				select {
				case refreshed <- struct{}{}:
				default:
				}
			})
			if err != nil {
				return err
			}
		}

		orch := newOrchestrator()
		_, err = orch.StartAddActionSession(ctx, agentsession.AddActionRequest{
			ServiceName:   svc.Name,
			ExternalAppID: deref(svc.ExternalAppId),
			ConnectorID:   deref(svc.ConnectorId),
			ConnectionID:  deref(svc.ConnectionId),
			Description:   strings.Join(args[1:], " "),
		})
		if err != nil {
			return err
		}
		waitForSessions(ctx, orch)

		// A completed session bumps the counter; let the refetch print
		// before the state store closes.
		if !detach && ctx.Err() == nil && app.state.ActionsRefetch() > 0 {
			select {
			case <-refreshed:
			case <-time.After(timeout):
			}
		}
		return nil
	},
}

// printServiceActions lists a service's actions after the picker refetched
// them.
func printServiceActions(ctx context.Context, picker *actionpicker.Picker, svc *dto.MembraneServiceResponse) {
	actions, err := picker.ServiceActions(ctx, svc)
	if err != nil {
		app.log.Warn("CLI", "Failed to list refreshed actions", map[string]interface{}{"error": err.Error()})
		return
	}
	fmt.Printf("Actions for %s refreshed:\n", svc.Name)
	for _, a := range actions {
		fmt.Printf("  %-30s %s\n", a.Name, actionpicker.SelectServiceAction(svc, a))
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Check saved agent sessions and keep polling the running ones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		orch := newOrchestrator()
		if err := orch.Resume(cmd.Context()); err != nil {
			return err
		}
		if !orch.IsBuilding() {
			fmt.Println("No running agent sessions.")
			return nil
		}
		waitForSessions(cmd.Context(), orch)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&appURL, "url", "", "the app's website, helps the agent find its API")
	for _, c := range []*cobra.Command{buildCmd, addActionCmd, resumeCmd} {
		c.Flags().BoolVar(&detach, "detach", false, "start or check sessions without waiting for them")
	}
}
