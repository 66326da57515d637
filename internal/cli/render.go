package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archflow/pkg/errors"
	"github.com/matzehuels/archflow/pkg/pipeline"
)

// renderCommand creates the render command, which lays out a diagram and
// writes a Graphviz preview with every node pinned at its computed center.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output string
		format string
		flags  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "render [diagram.json|diagram.yaml]",
		Short: "Lay out a diagram and write an SVG or DOT preview",
		Long: `Lay out a diagram and write a preview.

The format is taken from --format or the output extension: svg, dot, json or
yaml. SVG output is produced by Graphviz with node positions pinned to the
computed layout, so the preview shows exactly what the layout engine placed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				ext := format
				if ext == "" {
					ext = pipeline.FormatSVG
				}
				output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + ext
			}
			f, err := renderFormat(format, output)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			prog := newProgress(c.Logger)
			res, err := layoutFile(ctx, runner, input, flags.options(cmd, c.Config.PipelineOptions()))
			if err != nil {
				return err
			}
			data, cached, err := runner.Render(ctx, res, f)
			if err != nil {
				return fmt.Errorf("render %s: %w", f, err)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write output %s: %w", output, err)
			}
			prog.done(fmt.Sprintf("Rendered %s", f))

			printSuccess("Render complete")
			printFile(output)
			printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.Ranks, res.Stats.Crossings, res.CacheHit || cached)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.svg)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: svg, dot, json, yaml (default: from extension)")
	flags.register(cmd.Flags())

	return cmd
}

// renderFormat resolves the output format from the flag or the file
// extension.
func renderFormat(flag, output string) (string, error) {
	f := strings.ToLower(flag)
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	}
	switch f {
	case "yml":
		f = pipeline.FormatYAML
	case "gv":
		f = pipeline.FormatDOT
	}
	if !pipeline.ValidFormats[f] {
		return "", errors.New(errors.ErrCodeInvalidOption, "cannot render %q: use svg, dot, json or yaml", output)
	}
	return f, nil
}
