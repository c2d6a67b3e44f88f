package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"evalgo.org/contentupgrade/internal/domain"
	"evalgo.org/contentupgrade/internal/helpers"
	"evalgo.org/contentupgrade/internal/migration"
	"evalgo.org/contentupgrade/internal/operations"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "List the upgrade steps between two versions",
	Long: `List the upgrade steps a document of the given content type would run when
upgraded from one version to another. Without --to the newest registered
version of the same major is used.

Examples:
  contentupgrade plan --content-type H5P.InteractiveBook --from 1.5
  contentupgrade plan --content-type H5P.InteractiveBook --from 1.5 --to 1.6 --output yaml`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().String("content-type", "", "content type machine name, e.g. H5P.InteractiveBook")
	planCmd.Flags().String("from", "", "current version of the content")
	planCmd.Flags().String("to", "", "target version (default: newest registered version)")
	planCmd.Flags().StringP("output", "o", helpers.FormatJSON, "output format, json or yaml")
	_ = planCmd.MarkFlagRequired("content-type")
	_ = planCmd.MarkFlagRequired("from")
}

// planOutput is the printed result of the plan command.
type planOutput struct {
	ContentType string                   `json:"contentType" yaml:"contentType"`
	From        string                   `json:"from" yaml:"from"`
	To          string                   `json:"to" yaml:"to"`
	Steps       []operations.PlannedStep `json:"steps" yaml:"steps"`
}

func runPlan(cmd *cobra.Command, _ []string) error {
	contentType, _ := cmd.Flags().GetString("content-type")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	format, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logrus.StandardLogger(), false)
	if err != nil {
		return err
	}

	result, err := a.plan(contentType, fromStr, toStr)
	if err != nil {
		return err
	}
	return writeFormatted(cmd.OutOrStdout(), result, format)
}

// plan resolves the versions and lists the pending steps.
func (a *app) plan(contentType, fromStr, toStr string) (*planOutput, error) {
	if !helpers.IsMachineName(contentType) {
		return nil, domain.NewValidationError("contentType", fmt.Sprintf("invalid machine name %q", contentType))
	}

	from, err := migration.ParseVersion(fromStr)
	if err != nil {
		return nil, err
	}

	var to migration.Version
	if toStr == "" {
		if to, err = a.steps.Latest(contentType, from.Major); err != nil {
			return nil, err
		}
		if to.Less(from) {
			to = from
		}
	} else {
		if to, err = migration.ParseVersion(toStr); err != nil {
			return nil, err
		}
		if to.Less(from) {
			return nil, domain.NewValidationError("to", "must not be older than from")
		}
	}

	steps, err := operations.Plan(a.steps, contentType, from, to)
	if err != nil {
		return nil, err
	}

	return &planOutput{
		ContentType: contentType,
		From:        from.String(),
		To:          to.String(),
		Steps:       steps,
	}, nil
}
