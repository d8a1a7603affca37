package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brightpath-edu/iepforge/internal/iepctl/client"
)

func newAssessmentsCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assessments",
		Short: "Upload and extract assessment documents (§4.1, §4.2)",
	}
	cmd.AddCommand(newAssessmentsUploadCommand(newClient), newAssessmentsExtractCommand(newClient))
	return cmd
}

func newAssessmentsUploadCommand(newClient func() *client.Client) *cobra.Command {
	var studentID, fileName, storageURI, assessmentType, assessorName string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Register a new AssessmentDocument (upload_assessment)",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"student_id":      studentID,
				"file_name":       fileName,
				"storage_uri":     storageURI,
				"assessment_type": assessmentType,
				"assessor_name":   assessorName,
			}
			var out json.RawMessage
			if err := newClient().Post(cmd.Context(), "/v1/assessments", body, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&studentID, "student-id", "", "Student id (required).")
	cmd.Flags().StringVar(&fileName, "file-name", "", "Original file name.")
	cmd.Flags().StringVar(&storageURI, "storage-uri", "", "file:// or http(s):// location of the document (required).")
	cmd.Flags().StringVar(&assessmentType, "type", "", "Assessment type, e.g. WISC-V (required).")
	cmd.Flags().StringVar(&assessorName, "assessor", "", "Name of the assessor who administered the test.")
	_ = cmd.MarkFlagRequired("student-id")
	_ = cmd.MarkFlagRequired("storage-uri")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newAssessmentsExtractCommand(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <document_id>",
		Short: "Run extraction and quantification for one document (extract_and_quantify)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out json.RawMessage
			path := fmt.Sprintf("/v1/assessments/%s/extract", args[0])
			if err := newClient().Post(cmd.Context(), path, nil, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func printJSON(cmd *cobra.Command, data json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}
	pretty, err := json.MarshalIndent(json.RawMessage(data), "", "  ")
	if err != nil {
		return fmt.Errorf("iepctl: format response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
	return nil
}
