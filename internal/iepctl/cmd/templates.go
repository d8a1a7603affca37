package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/mitchellh/go-wordwrap"
	"github.com/spf13/cobra"

	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/iepctl/client"
)

const terminalWrapWidth = 80

func newTemplatesCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Publish, list and inspect IEPTemplate versions (§4.4, §C.2)",
	}
	cmd.AddCommand(
		newTemplatesPublishCommand(newClient),
		newTemplatesListCommand(newClient),
		newTemplatesShowCommand(newClient),
	)
	return cmd
}

func newTemplatesPublishCommand(newClient func() *client.Client) *cobra.Command {
	var name, disabilityCategory, gradeBand, sectionsFile, supersedes string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a new IEPTemplate version from a JSON section-spec file (publish_template)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sections, err := readSectionSpecs(sectionsFile)
			if err != nil {
				return err
			}
			body := map[string]any{
				"name":                name,
				"disability_category": disabilityCategory,
				"grade_band":          gradeBand,
				"sections":            sections,
				"supersedes":          supersedes,
			}
			var t template.Template
			if err := newClient().Post(cmd.Context(), "/v1/templates", body, &t); err != nil {
				return err
			}
			return printJSON(cmd, mustMarshal(t))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Template name (required).")
	cmd.Flags().StringVar(&disabilityCategory, "disability-category", "", "Disability category this template targets (required).")
	cmd.Flags().StringVar(&gradeBand, "grade-band", "", "Grade band this template targets.")
	cmd.Flags().StringVar(&sectionsFile, "sections", "", "Path to a JSON file holding the []SectionSpec array (required).")
	cmd.Flags().StringVar(&supersedes, "supersedes", "", "id of the template version this one replaces.")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("disability-category")
	_ = cmd.MarkFlagRequired("sections")
	return cmd
}

func readSectionSpecs(path string) ([]template.SectionSpec, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("iepctl: read sections file %q: %w", path, err)
	}
	var sections []template.SectionSpec
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("iepctl: parse sections file %q: %w", path, err)
	}
	return sections, nil
}

func newTemplatesListCommand(newClient func() *client.Client) *cobra.Command {
	var disabilityCategory, gradeBand string
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates as an aligned table, optionally filtered (list_templates)",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := map[string]string{
				"disability_category": disabilityCategory,
				"grade_band":          gradeBand,
			}
			if activeOnly {
				query["active_only"] = "true"
			}
			var rows []template.Template
			if err := newClient().Get(cmd.Context(), "/v1/templates", toURLValues(query), &rows); err != nil {
				return err
			}

			table := uitable.New()
			table.MaxColWidth = 40
			table.AddRow("ID", "NAME", "VERSION", "ACTIVE", "DISABILITY CATEGORY", "GRADE BAND")
			for _, t := range rows {
				table.AddRow(t.ID, t.Name, t.Version, t.Active, t.DisabilityCategory, t.GradeBand)
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
	cmd.Flags().StringVar(&disabilityCategory, "disability-category", "", "Filter by disability category.")
	cmd.Flags().StringVar(&gradeBand, "grade-band", "", "Filter by grade band.")
	cmd.Flags().BoolVar(&activeOnly, "active-only", false, "Only show currently-active versions.")
	return cmd
}

func newTemplatesShowCommand(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "show <template_id>",
		Short: "Show one template's sections with guidance text wrapped to terminal width",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []template.Template
			if err := newClient().Get(cmd.Context(), "/v1/templates", nil, &rows); err != nil {
				return err
			}
			for _, t := range rows {
				if t.ID != args[0] {
					continue
				}
				return showTemplate(cmd, t)
			}
			return fmt.Errorf("iepctl: template %q not found", args[0])
		},
	}
}

func showTemplate(cmd *cobra.Command, t template.Template) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (v%d, %s, active=%t)\n\n", t.Name, t.Version, t.DisabilityCategory, t.Active)
	for _, section := range t.Sections {
		fmt.Fprintf(out, "## %s (%s)\n", section.HumanTitle, section.SectionKey)
		if section.GuidanceText != "" {
			fmt.Fprintln(out, wordwrap.WrapString(section.GuidanceText, terminalWrapWidth))
		}
		fmt.Fprintln(out)
	}
	return nil
}
