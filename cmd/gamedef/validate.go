package main

import (
	"fmt"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/report"
	"github.com/ormasoftchile/gamedef/pkg/validate"
)

var _ pflag.Value = (*diag.Severity)(nil)

type validateFlags struct {
	failOn       diag.Severity
	json         bool
	markdown     bool
	pretty       bool
	noColor      bool
	noSchema     bool
	noReferences bool
	noRules      bool
}

func newValidateCmd(a *app) *cobra.Command {
	f := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate <game.yaml | URL>",
		Short: "Validate a game definition",
		Long: `Validate a game definition and its includes.

Runs the structural schema check, id reference resolution and the semantic
rules in parallel, then prints every diagnostic. Exit status is 1 when any
diagnostic reaches the --fail-on severity.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, a, f, args[0])
		},
	}
	cmd.Flags().Var(&f.failOn, "fail-on", "Lowest failing severity: error or warn (overrides GAMEDEF_FAIL_ON)")
	cmd.Flags().BoolVar(&f.json, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVar(&f.markdown, "markdown", false, "Output the report as Markdown")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "Render --markdown output for the terminal")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored text output (also honors NO_COLOR)")
	cmd.Flags().BoolVar(&f.noSchema, "no-schema", false, "Skip the structural schema check")
	cmd.Flags().BoolVar(&f.noReferences, "no-references", false, "Skip the reference walker (the reference rule reports instead)")
	cmd.Flags().BoolVar(&f.noRules, "no-rules", false, "Skip the semantic rules")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}

func runValidate(cmd *cobra.Command, a *app, f *validateFlags, input string) error {
	ctx := cmd.Context()
	doc, err := a.load(ctx, input)
	if err != nil {
		return err
	}

	opts := a.options()
	if f.failOn != "" {
		opts.Policy = diag.Policy{FailOn: f.failOn}
	}
	opts.SkipSchema = f.noSchema
	opts.SkipReferences = f.noReferences
	opts.SkipRules = f.noRules

	rep, verr := validate.Validate(ctx, doc, opts)
	if err := printReport(cmd, f, displayName(input), rep); err != nil {
		return err
	}
	if verr != nil {
		return verr
	}
	if !rep.OK {
		return errInvalid
	}
	return nil
}

func printReport(cmd *cobra.Command, f *validateFlags, name string, rep *validate.Report) error {
	out := cmd.OutOrStdout()
	switch {
	case f.json:
		return report.JSON(out, rep)
	case f.markdown:
		md := report.Markdown(name, rep)
		if f.pretty {
			rendered, err := report.RenderMarkdown(md, 0)
			if err != nil {
				return err
			}
			md = rendered
		}
		_, err := fmt.Fprint(out, md)
		return err
	default:
		return report.Text(out, name, rep, !f.noColor && !termenv.EnvNoColor())
	}
}
