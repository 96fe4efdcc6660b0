package pipeline

import (
	"bytes"
	"context"
	"fmt"

	cio "github.com/matzehuels/comfyscope/pkg/io"
	"github.com/matzehuels/comfyscope/pkg/render/nodelink"
	"github.com/matzehuels/comfyscope/pkg/workflow"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, wf *workflow.Workflow, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var dot string
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = cio.WriteJSON(wf, &buf)
			data = buf.Bytes()
		case FormatDOT, FormatSVG:
			if dot == "" {
				dot = nodelink.ToDOT(wf, nodelinkOptions(opts))
			}
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = nodelink.RenderSVG(ctx, dot)
			}
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func nodelinkOptions(opts Options) nodelink.Options {
	return nodelink.Options{
		Detailed: opts.Detailed,
		Polarity: opts.Polarity,
		Classify: opts.ClassifyOptions(),
	}
}
