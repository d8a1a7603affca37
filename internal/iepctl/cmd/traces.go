package cmd

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/brightpath-edu/iepforge/internal/domain/trace"
	"github.com/brightpath-edu/iepforge/internal/iepctl/client"
)

func newTracesCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traces",
		Short: "Inspect GenerationTrace rows for one correlation_id (§3, §7, §C.4)",
	}
	cmd.AddCommand(newTracesListCommand(newClient))
	return cmd
}

func newTracesListCommand(newClient func() *client.Client) *cobra.Command {
	var correlationID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every traced stage invocation for one correlation_id (list_traces, coordinator/admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []trace.Trace
			query := toURLValues(map[string]string{"correlation_id": correlationID})
			if err := newClient().Get(cmd.Context(), "/v1/traces", query, &rows); err != nil {
				return err
			}

			table := uitable.New()
			table.MaxColWidth = 40
			table.AddRow("STAGE", "OUTCOME", "DURATION_MS", "ERROR_KIND", "MODEL", "CREATED")
			for _, row := range rows {
				table.AddRow(row.Stage, row.Outcome, row.DurationMS, row.ErrorKind, row.ModelID, row.CreatedAt.Format("2006-01-02T15:04:05Z"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "correlation_id to look up (required).")
	_ = cmd.MarkFlagRequired("correlation-id")
	return cmd
}
