package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		flags  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [diagram.json|diagram.yaml]",
		Short: "Compute node positions and edge routes for a diagram",
		Long: `Compute node positions and edge routes for a diagram.

The input is a JSON or YAML document with "nodes" and "edges". Node sizes are
measured from their labels, nodes are ranked along the flow direction and
edges are routed between them. The output is the same document with x, y,
width, height and edge points filled in.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd, c.Config.PipelineOptions())
			return c.runLayout(cmd.Context(), args[0], output, opts, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	flags.register(cmd.Flags())

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	res, err := layoutFile(ctx, runner, input, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if output == "" {
		output = layoutOutputPath(input)
	}
	if err := diagram.WriteFile(output, res.Data); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.Ranks, res.Stats.Crossings, res.CacheHit)
	for _, is := range res.Issues {
		printWarning("%s", is)
	}
	printNewline()
	printNextStep("Preview", "archflow render "+output+" -o "+strings.TrimSuffix(output, filepath.Ext(output))+".svg")
	return nil
}

// layoutFile reads a document and runs the pipeline on it.
func layoutFile(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options) (*pipeline.Result, error) {
	d, err := diagram.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("load diagram %s: %w", input, err)
	}
	loggerFromContext(ctx).Debug("loaded diagram", "path", input, "nodes", len(d.Nodes), "edges", len(d.Edges))

	res, err := runner.Layout(ctx, d, opts)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", input, err)
	}
	return res, nil
}

// layoutOutputPath derives "<base>.layout.<ext>" from the input path,
// keeping YAML inputs as YAML.
func layoutOutputPath(input string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	if diagram.FormatForPath(input) == diagram.FormatYAML {
		return base + ".layout" + ext
	}
	return base + ".layout.json"
}
