package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"membrane-connect-be/pkg/actionpicker"
	"membrane-connect-be/pkg/actionstep"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	actionFilter string
	showHidden   bool
	runInputs    []string
)

func newPicker() *actionpicker.Picker {
	return actionpicker.New(nil, actionpicker.NewPreferences(app.storage), app.client, app.state, app.log)
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Browse the action catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		services, err := app.client.ListServices(ctx)
		if err != nil {
			return err
		}
		if err := app.state.SetServices(services); err != nil {
			return err
		}

		picker := newPicker()
		view, err := picker.View(ctx, actionFilter, showHidden)
		if err != nil {
			return err
		}

		switch {
		case view.Empty:
			fmt.Println("No actions found")
			return nil
		case view.AllHidden:
			fmt.Println("All groups are hidden")
			return nil
		}

		header := color.New(color.Bold)
		for _, g := range view.Groups {
			suffix := ""
			if g.Hidden {
				suffix = " (hidden)"
			}
			header.Printf("%s%s\n", strings.ToUpper(g.Category), suffix)
			for _, a := range g.Actions {
				if view.Mode == actionpicker.ViewGrid {
					fmt.Printf("  [%s]", a.Label)
					continue
				}
				fmt.Printf("  %-20s %s\n", a.Label, a.Description)
			}
			if view.Mode == actionpicker.ViewGrid {
				fmt.Println()
			}
		}

		for _, svc := range view.Services {
			header.Printf("%s\n", svc.Name)
			actions, err := picker.ServiceActions(ctx, svc)
			if err != nil {
				color.Red("  failed to load actions: %v", err)
				continue
			}
			for _, a := range actions {
				fmt.Printf("  %-30s %s\n", a.Name, actionpicker.SelectServiceAction(svc, a))
			}
		}

		if view.HiddenCount > 0 && !showHidden {
			plural := ""
			if view.HiddenCount > 1 {
				plural = "s"
			}
			color.Yellow("%d hidden group%s (use --show-hidden)", view.HiddenCount, plural)
		}
		return nil
	},
}

var actionsHideCmd = &cobra.Command{
	Use:   "hide <category>",
	Short: "Hide or unhide an action group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hidden, err := actionpicker.NewPreferences(app.storage).ToggleHiddenGroup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if hidden {
			fmt.Printf("%s is now hidden\n", args[0])
		} else {
			fmt.Printf("%s is now shown\n", args[0])
		}
		return nil
	},
}

var actionsViewCmd = &cobra.Command{
	Use:   "toggle-view",
	Short: "Switch between list and grid layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := actionpicker.NewPreferences(app.storage).ToggleViewMode(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("View mode: %s\n", mode)
		return nil
	},
}

func parseInputs(pairs []string) (map[string]interface{}, error) {
	config := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("input %q must look like field=value", pair)
		}
		var value interface{}
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		config[actionstep.InputPrefix+key] = value
	}
	return config, nil
}

var runCmd = &cobra.Command{
	Use:   "run <action-type>",
	Short: "Run an action the way a workflow step does",
	Long: `Run an action the way a workflow step does. The action type is
membrane:<service-id>:<action-key>, as printed by 'membranectl actions'.
Inputs are field=value pairs; JSON values are decoded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := parseInputs(runInputs)
		if err != nil {
			return err
		}

		step := actionstep.NewStep(app.client, app.log)
		result := step.Run(cmd.Context(), actionstep.Input{ActionType: args[0], Config: config})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("%s", result.Error)
		}
		return nil
	},
}

func init() {
	actionsCmd.Flags().StringVarP(&actionFilter, "filter", "f", "", "only show matching actions and services")
	actionsCmd.Flags().BoolVar(&showHidden, "show-hidden", false, "include hidden groups")
	actionsCmd.AddCommand(actionsHideCmd, actionsViewCmd)

	runCmd.Flags().StringArrayVarP(&runInputs, "input", "i", nil, "action input as field=value (repeatable)")
}
