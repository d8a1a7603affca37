package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/brightpath-edu/iepforge/internal/domain/iep"
	"github.com/brightpath-edu/iepforge/internal/iepctl/client"
)

func newIEPsCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ieps",
		Short: "Generate, inspect and approve IEPs (§4.5-§4.7, §6)",
	}
	cmd.AddCommand(
		newIEPsGenerateCommand(newClient),
		newIEPsGetCommand(newClient),
		newIEPsListCommand(newClient),
		newIEPsApproveCommand(newClient),
	)
	return cmd
}

func newIEPsGenerateCommand(newClient func() *client.Client) *cobra.Command {
	var studentID, templateID, academicYear, planningNotes string
	var documentIDs []string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a draft IEP from one or more extracted assessments (generate_iep)",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"student_id":              studentID,
				"template_id":             templateID,
				"academic_year":           academicYear,
				"assessment_document_ids": documentIDs,
				"planning_notes":          planningNotes,
			}
			var row iep.IEP
			if err := newClient().Post(cmd.Context(), "/v1/ieps", body, &row); err != nil {
				return err
			}
			return printJSON(cmd, mustMarshal(row))
		},
	}
	cmd.Flags().StringVar(&studentID, "student-id", "", "Student id (required).")
	cmd.Flags().StringVar(&templateID, "template-id", "", "IEPTemplate id (required).")
	cmd.Flags().StringVar(&academicYear, "academic-year", "", "Academic year, e.g. 2026-2027 (required).")
	cmd.Flags().StringSliceVar(&documentIDs, "document-id", nil, "AssessmentDocument id; repeatable (required).")
	cmd.Flags().StringVar(&planningNotes, "planning-notes", "", "Free-text planning context for the RAG prompt.")
	_ = cmd.MarkFlagRequired("student-id")
	_ = cmd.MarkFlagRequired("template-id")
	_ = cmd.MarkFlagRequired("academic-year")
	_ = cmd.MarkFlagRequired("document-id")
	return cmd
}

func newIEPsGetCommand(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <iep_id>",
		Short: "Fetch one IEP by id (get_iep)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var row iep.IEP
			if err := newClient().Get(cmd.Context(), "/v1/ieps/"+args[0], nil, &row); err != nil {
				return err
			}
			return printJSON(cmd, mustMarshal(row))
		},
	}
}

func newIEPsListCommand(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list <student_id>",
		Short: "List every IEP version for a student as an aligned table (list_ieps)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []iep.IEP
			if err := newClient().Get(cmd.Context(), "/v1/students/"+args[0]+"/ieps", nil, &rows); err != nil {
				return err
			}

			table := uitable.New()
			table.MaxColWidth = 40
			table.AddRow("ID", "VERSION", "STATUS", "TEMPLATE", "ACADEMIC YEAR", "CREATED")
			for _, row := range rows {
				table.AddRow(row.ID, row.Version, row.Status, row.TemplateID, row.AcademicYear, row.CreatedAt.Format("2006-01-02"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func newIEPsApproveCommand(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <iep_id>",
		Short: "Approve a draft IEP, activating it (approve_iep, coordinator/admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var row iep.IEP
			path := "/v1/ieps/" + args[0] + "/approve"
			if err := newClient().Post(cmd.Context(), path, nil, &row); err != nil {
				return err
			}
			return printJSON(cmd, mustMarshal(row))
		},
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(fmt.Sprintf("%q", err.Error()))
	}
	return data
}
