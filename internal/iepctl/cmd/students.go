package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brightpath-edu/iepforge/internal/iepctl/client"
)

func newStudentsCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Administrative operations scoped to one student (§C.3)",
	}
	cmd.AddCommand(newStudentsReindexCommand(newClient))
	return cmd
}

func newStudentsReindexCommand(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex <student_id>",
		Short: "Rebuild vector-index chunks from a student's approved IEP history (reindex_student_history, admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				ChunksIndexed int `json:"chunks_indexed"`
			}
			path := fmt.Sprintf("/v1/students/%s/reindex", args[0])
			if err := newClient().Post(cmd.Context(), path, nil, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chunks indexed: %d\n", out.ChunksIndexed)
			return nil
		},
	}
}
