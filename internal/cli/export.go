package cli

import (
	"context"

	"github.com/spf13/cobra"

	cio "github.com/matzehuels/comfyscope/pkg/io"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var output string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "export <image>",
		Short: "Write the embedded workflow as JSON",
		Long: `Write the workflow embedded in a PNG image as a JSON file that can be loaded
back into ComfyUI. Links are written in array form.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default from config, "+cio.DefaultFilename+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, path, output string, noCache bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if output == "" {
		output = cfg.Export.Filename
	}

	image, err := readImage(path)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := runner.Execute(ctx, pipelineOptions(cfg, path, image))
	if err != nil {
		return err
	}
	if err := cio.ExportJSON(res.Extraction.Workflow, output); err != nil {
		return err
	}

	printSuccess("Exported workflow")
	printStats(res.Stats.NodeCount, res.Stats.LinkCount, res.CacheInfo.ExtractHit)
	printFile(output)
	printNextStep("Draw it", appName+" render "+output)
	return nil
}
