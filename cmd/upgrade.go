package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"evalgo.org/contentupgrade/internal/domain"
	"evalgo.org/contentupgrade/internal/helpers"
	"evalgo.org/contentupgrade/internal/operations"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade a content document to a newer schema version",
	Long: `Read a content envelope (contentType, version, params, extras) from a JSON or
YAML file, run every pending upgrade step and write the upgraded envelope.

Examples:
  # Upgrade to the newest registered version and print JSON
  contentupgrade upgrade --in book.json

  # Upgrade to 1.6 only and write YAML to a file
  contentupgrade upgrade --in book.yaml --to 1.6 --output yaml --out book.v16.yaml

  # Read from stdin
  cat book.json | contentupgrade upgrade --in -`,
	RunE: runUpgrade,
}

func init() {
	rootCmd.AddCommand(upgradeCmd)

	upgradeCmd.Flags().String("in", "", "content file to upgrade (.json, .yaml or - for stdin)")
	upgradeCmd.Flags().String("out", "", "write the upgraded document to this file instead of stdout")
	upgradeCmd.Flags().String("to", "", "target version (default: newest registered version)")
	upgradeCmd.Flags().StringP("output", "o", helpers.FormatJSON, "output format, json or yaml")
	_ = upgradeCmd.MarkFlagRequired("in")
}

func runUpgrade(cmd *cobra.Command, _ []string) error {
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	to, _ := cmd.Flags().GetString("to")
	format, _ := cmd.Flags().GetString("output")

	if format != helpers.FormatJSON && format != helpers.FormatYAML {
		return fmt.Errorf("unsupported output format %q", format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logrus.StandardLogger(), false)
	if err != nil {
		return err
	}

	env, err := readEnvelope(in, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if to != "" {
		env.TargetVersion = to
	}

	upgraded, err := a.upgradeEnvelope(cmd.Context(), env)
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(out, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := writeFormatted(w, upgraded, format); err != nil {
		_ = closeOut()
		return err
	}
	return closeOut()
}

// upgradeEnvelope runs the upgrade action on env and returns the upgraded envelope.
func (a *app) upgradeEnvelope(ctx context.Context, env *domain.ContentEnvelope) (*domain.ContentEnvelope, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := a.operations.Handle(ctx, domain.Task{Action: domain.ActionUpgrade, Content: env})
	if err != nil {
		return nil, err
	}

	upgraded := &domain.ContentEnvelope{
		ContentType: env.ContentType,
		Version:     env.Version,
		Params:      env.Params,
		Extras:      env.Extras,
	}
	if v, ok := operations.GetResult(result, "to"); ok {
		upgraded.Version, _ = v.(string)
	}
	if v, ok := operations.GetResult(result, "params"); ok {
		upgraded.Params = asMap(v)
	}
	if v, ok := operations.GetResult(result, "extras"); ok {
		upgraded.Extras = asMap(v)
	}

	applied, _ := operations.GetResult(result, "applied")
	a.logger.WithFields(logrus.Fields{
		"content_type": env.ContentType,
		"from":         env.Version,
		"to":           upgraded.Version,
		"applied":      applied,
	}).Info("Upgrade finished")

	return upgraded, nil
}
