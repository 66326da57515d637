package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/errors"
	"github.com/matzehuels/archflow/pkg/viewport"
)

// fitCommand creates the fit command.
func (c *CLI) fitCommand() *cobra.Command {
	var (
		width, height float64
		insets        string
		padding       float64
		scale         scaleFlags
		flags         layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "fit [laid-out.json]",
		Short: "Compute the transform that fits a laid-out diagram into a container",
		Long: `Compute the pan and scale that center a laid-out diagram in a container.

Insets reserve room for UI chrome and are given as "top,right,bottom,left" or
a single value for all sides. The result is printed as JSON:

  {"x": 350, "y": 275, "scale": 1}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := viewport.ParseInsets(insets)
			if err != nil {
				return err
			}
			fo := scale.fit(cmd, c.Config.FitOptions())
			if cmd.Flags().Changed("padding") {
				fo.Padding = padding
			}
			if err := validateContainer(width, height, fo.Padding); err != nil {
				return err
			}
			if err := errors.ValidateScaleRange(fo.MinScale, fo.MaxScale); err != nil {
				return err
			}

			d, err := diagram.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("load diagram %s: %w", args[0], err)
			}
			runner, err := c.newRunner(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer runner.Close()

			t, err := runner.Fit(d, width, height, in, fo, flags.options(cmd, c.Config.PipelineOptions()))
			if err != nil {
				return err
			}
			return writeTransform(cmd.OutOrStdout(), t)
		},
	}

	cmd.Flags().Float64Var(&width, "width", 0, "container width")
	cmd.Flags().Float64Var(&height, "height", 0, "container height")
	cmd.Flags().StringVar(&insets, "insets", "", "covered container edges: top,right,bottom,left")
	cmd.Flags().Float64Var(&padding, "padding", viewport.DefaultPadding, "space kept around the content")
	scale.register(cmd.Flags(), viewport.DefaultFitMinScale, viewport.DefaultFitMaxScale)
	cmd.Flags().StringVar(&flags.opts.Density, "density", "", "density used to measure edge labels")
	cmd.Flags().Float64Var(&flags.opts.UIScale, "ui-scale", 1, "scale used to measure edge labels")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")

	return cmd
}

// zoomCommand creates the zoom command.
func (c *CLI) zoomCommand() *cobra.Command {
	var (
		width, height float64
		cur           viewport.Transform
		factor        float64
		focal         string
		scale         scaleFlags
	)

	cmd := &cobra.Command{
		Use:   "zoom",
		Short: "Scale a viewport transform around a focal point",
		Long: `Scale a viewport transform around a focal point so the content under
the point stays in place. The focal point defaults to the container center.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			zo := scale.zoom(cmd, c.Config.ZoomOptions())
			if err := validateContainer(width, height, 0); err != nil {
				return err
			}
			if err := errors.ValidateScaleRange(zo.MinScale, zo.MaxScale); err != nil {
				return err
			}
			if factor <= 0 || errors.ValidateFinite("factor", factor) != nil {
				return errors.New(errors.ErrCodeInvalidOption, "factor must be a positive number")
			}

			var fp *diagram.Point
			if focal != "" {
				p, err := viewport.ParsePoint(focal)
				if err != nil {
					return err
				}
				fp = &p
			}
			t := viewport.Zoom(diagram.Size{W: width, H: height}, cur, factor, fp, zo)
			return writeTransform(cmd.OutOrStdout(), t)
		},
	}

	cmd.Flags().Float64Var(&width, "width", 0, "container width")
	cmd.Flags().Float64Var(&height, "height", 0, "container height")
	cmd.Flags().Float64Var(&cur.X, "x", 0, "current pan x")
	cmd.Flags().Float64Var(&cur.Y, "y", 0, "current pan y")
	cmd.Flags().Float64Var(&cur.Scale, "scale", 1, "current scale")
	cmd.Flags().Float64Var(&factor, "factor", 0, "zoom factor (>1 zooms in)")
	cmd.Flags().StringVar(&focal, "focal", "", "focal point in screen units: x,y")
	scale.register(cmd.Flags(), viewport.DefaultZoomMinScale, viewport.DefaultZoomMaxScale)
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	_ = cmd.MarkFlagRequired("factor")

	return cmd
}

func validateContainer(width, height, padding float64) error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"width", width}, {"height", height}, {"padding", padding}} {
		if err := errors.ValidateNonNegative(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

func writeTransform(w io.Writer, t viewport.Transform) error {
	enc := json.NewEncoder(w)
	return enc.Encode(t)
}
