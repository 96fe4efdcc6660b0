package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	cerrors "github.com/matzehuels/comfyscope/pkg/errors"
)

// Output formats for the extract command.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// extractOpts holds the command-line flags for the extract command.
type extractOpts struct {
	output  string
	jobs    int
	noCache bool
	refresh bool
}

// extractResult is the outcome for one image. Exactly one of the prompt
// lists or Error is meaningful.
type extractResult struct {
	File     string   `json:"file" yaml:"file"`
	Positive []string `json:"positive" yaml:"positive"`
	Negative []string `json:"negative" yaml:"negative"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`

	nodes  int
	links  int
	cached bool
	err    error
}

// extractCommand creates the extract command.
func (c *CLI) extractCommand() *cobra.Command {
	opts := extractOpts{output: outputText, jobs: defaultJobs}

	cmd := &cobra.Command{
		Use:   "extract <image>...",
		Short: "Print the positive and negative prompts embedded in images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cerrors.ValidateFormat(opts.output, outputText, outputJSON, outputYAML); err != nil {
				return err
			}
			return c.runExtract(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output format: text, json, yaml")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "images processed concurrently")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results and overwrite them")

	return cmd
}

func (c *CLI) runExtract(ctx context.Context, paths []string, opts extractOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	results, err := extractAll(ctx, paths, opts.jobs, func(ctx context.Context, path string) extractResult {
		res := extractResult{File: path}
		image, err := readImage(path)
		if err != nil {
			res.setErr(err)
			return res
		}
		popts := pipelineOptions(cfg, path, image)
		popts.Refresh = opts.refresh
		out, err := runner.Execute(ctx, popts)
		if err != nil {
			res.setErr(err)
			return res
		}
		res.Positive = out.Extraction.Positive
		res.Negative = out.Extraction.Negative
		res.nodes = out.Stats.NodeCount
		res.links = out.Stats.LinkCount
		res.cached = out.CacheInfo.ExtractHit
		return res
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			c.Logger.Error("extraction failed", "file", r.File, "err", r.err)
		}
	}
	prog.done(fmt.Sprintf("Extracted %d of %d images", len(results)-failed, len(results)))

	if err := writeExtractResults(os.Stdout, opts.output, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(results))
	}
	return nil
}

func (r *extractResult) setErr(err error) {
	r.err = err
	r.Error = cerrors.UserMessage(err)
}

// extractAll runs fn for every path with at most jobs in flight. Results keep
// input order. Per-file failures are carried in the results; only context
// cancellation aborts the whole run.
func extractAll(ctx context.Context, paths []string, jobs int, fn func(context.Context, string) extractResult) ([]extractResult, error) {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]extractResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = fn(ctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeExtractResults writes results in the given output format. A single
// result is written as an object, several as a list.
func writeExtractResults(w io.Writer, format string, results []extractResult) error {
	var v any = results
	if len(results) == 1 {
		v = results[0]
	}

	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		writeText(w, results)
		return nil
	}
}

func writeText(w io.Writer, results []extractResult) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, StyleTitle.Render(r.File))
		if r.err != nil {
			fmt.Fprintln(w, styleIconError.Render(iconError)+" "+r.Error)
			continue
		}
		fmt.Fprintln(w, formatStats(r.nodes, r.links, r.cached))
		writePromptList(w, "Positive", StylePositive, r.Positive)
		writePromptList(w, "Negative", StyleNegative, r.Negative)
	}
}

func writePromptList(w io.Writer, label string, style lipgloss.Style, prompts []string) {
	fmt.Fprintf(w, "%s %s\n", style.Render(label), StyleDim.Render(fmt.Sprintf("(%d)", len(prompts))))
	if len(prompts) == 0 {
		fmt.Fprintln(w, "  "+StyleDim.Render("none"))
		return
	}
	for _, p := range prompts {
		fmt.Fprintln(w, "  "+StyleDim.Render(iconInfo)+" "+StyleValue.Render(p))
	}
}
