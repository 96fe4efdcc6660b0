package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cerrors "github.com/matzehuels/comfyscope/pkg/errors"
	cio "github.com/matzehuels/comfyscope/pkg/io"
	"github.com/matzehuels/comfyscope/pkg/pipeline"
	"github.com/matzehuels/comfyscope/pkg/workflow"
)

// stdoutPath selects standard output for -o.
const stdoutPath = "-"

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file; empty derives it from the input name
	format   string // "dot" or "svg"
	detailed bool   // show node ids and widget values
	polarity bool   // color prompt nodes by polarity
	noCache  bool
}

// renderCommand creates the render command.
//
// The input is either a PNG with an embedded workflow or a workflow JSON file
// previously written by export.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: pipeline.FormatSVG}

	cmd := &cobra.Command{
		Use:   "render <image|workflow.json>",
		Short: "Draw a workflow as a node-link diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cerrors.ValidateFormat(opts.format, pipeline.FormatDOT, pipeline.FormatSVG); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (default <input>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node ids and widget values")
	cmd.Flags().BoolVar(&opts.polarity, "polarity", false, "color prompt nodes by polarity")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	popts := pipelineOptions(cfg, input, nil)
	popts.Formats = []string{opts.format}
	popts.Detailed = opts.detailed
	popts.Polarity = opts.polarity
	popts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering "+filepath.Base(input)+"...")
	spinner.Start()
	data, err := c.renderInput(ctx, input, popts, opts.noCache)
	spinner.Stop()
	if err != nil {
		return err
	}

	output := outputPath(opts.output, input, opts.format)
	if err := writeOutput(output, data); err != nil {
		return err
	}

	if output != stdoutPath {
		printSuccess("Rendered %s", opts.format)
		printFile(output)
	}
	return nil
}

// renderInput renders a workflow JSON file directly, or runs the cached
// pipeline for an image.
func (c *CLI) renderInput(ctx context.Context, input string, opts pipeline.Options, noCache bool) ([]byte, error) {
	format := opts.Formats[0]

	if isWorkflowFile(input) {
		wf, err := cio.ImportJSON(input)
		if err != nil {
			return nil, err
		}
		return renderWorkflow(ctx, wf, opts)
	}

	image, err := readImage(input)
	if err != nil {
		return nil, err
	}
	opts.Image = image

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	res, err := runner.Execute(ctx, opts)
	if err != nil {
		return nil, err
	}
	return res.Artifacts[format], nil
}

func renderWorkflow(ctx context.Context, wf *workflow.Workflow, opts pipeline.Options) ([]byte, error) {
	artifacts, err := pipeline.Render(ctx, wf, opts)
	if err != nil {
		return nil, err
	}
	return artifacts[opts.Formats[0]], nil
}

func isWorkflowFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// outputPath returns output, or the input path with its extension replaced
// by format.
func outputPath(output, input, format string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing. "-" writes to standard output.
func openOutput(path string) (io.WriteCloser, error) {
	if path == stdoutPath {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// writeOutput writes data to path and reports the error from closing it,
// which is where a full disk usually surfaces.
func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
