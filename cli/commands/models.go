package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petal-labs/anthropic/anthropic"
)

func (a *App) newModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect available models",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List models available to your API key",
		Args:  cobra.NoArgs,
		RunE:  a.runModelsList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <model-id>",
		Short: "Show one model",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runModelsGet,
	})
	return cmd
}

func (a *App) runModelsList(cmd *cobra.Command, args []string) error {
	client, err := a.client()
	if err != nil {
		return err
	}

	resp, err := client.Models().List(cmd.Context())
	if err != nil {
		return a.handleError(err)
	}
	if a.jsonOutput {
		return a.writeJSON(resp)
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED")
	for _, m := range resp.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.DisplayName, m.CreatedAt)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if resp.HasMore {
		fmt.Fprintln(a.stdout, "(more models available)")
	}
	return nil
}

func (a *App) runModelsGet(cmd *cobra.Command, args []string) error {
	client, err := a.client()
	if err != nil {
		return err
	}

	m, err := client.Models().Get(cmd.Context(), args[0])
	if err != nil {
		return a.handleError(err)
	}
	if a.jsonOutput {
		return a.writeJSON(m)
	}
	printModel(a, m)
	return nil
}

func printModel(a *App, m *anthropic.ModelInfo) {
	fmt.Fprintf(a.stdout, "ID:      %s\n", m.ID)
	if m.DisplayName != "" {
		fmt.Fprintf(a.stdout, "Name:    %s\n", m.DisplayName)
	}
	if m.CreatedAt != "" {
		fmt.Fprintf(a.stdout, "Created: %s\n", m.CreatedAt)
	}
}
