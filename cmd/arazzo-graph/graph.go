package main

import (
	"fmt"
	"os"

	"github.com/rendis/arazzo-graph/internal/diagram"
	"github.com/rendis/arazzo-graph/internal/expressions"
	"github.com/rendis/arazzo-graph/internal/graph"
	"github.com/rendis/arazzo-graph/internal/layout"
	"github.com/spf13/cobra"
)

func newGraphCmd(a *app) *cobra.Command {
	var (
		workflowID       string
		hideFailureEdges bool
		nodeFilter       string
		edgeFilter       string
		output           string
	)
	cmd := &cobra.Command{
		Use:   "graph <document>",
		Short: "Print the execution graph of a workflow",
		Example: `  # Graph of the first workflow
  arazzo-graph graph pets.arazzo.yaml

  # Only the failure edges of one workflow, as YAML
  arazzo-graph graph pets.arazzo.yaml --workflow adopt --edge-filter 'kind == "failure"' -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			opts := a.graphOptions()
			if cmd.Flags().Changed("hide-failure-edges") {
				opts.HideFailureEdges = hideFailureEdges
			}
			g, err := graph.Derive(doc, resolveWorkflow(doc, workflowID), opts)
			if err != nil {
				return err
			}
			if nodeFilter != "" || edgeFilter != "" {
				g, err = graph.Filter(cmd.Context(), g, nodeFilter, edgeFilter, expressions.NewExprEngine())
				if err != nil {
					return err
				}
			}
			a.logger.Debug("graph derived", "workflow_id", g.WorkflowID,
				"nodes", len(g.Nodes), "edges", len(g.Edges), "diagnostics", len(g.Diagnostics))
			return printValue(cmd.OutOrStdout(), g, output)
		},
	}
	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "workflow id (default: the first workflow)")
	cmd.Flags().BoolVar(&hideFailureEdges, "hide-failure-edges", false, "omit failure edges")
	cmd.Flags().StringVar(&nodeFilter, "node-filter", "", "expr predicate over id, kind, label, operation, start, end, invalidLinks")
	cmd.Flags().StringVar(&edgeFilter, "edge-filter", "", "expr predicate over id, source, target, kind, label, invalid")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func newLayoutCmd(a *app) *cobra.Command {
	var (
		workflowID  string
		orientation string
		output      string
	)
	cmd := &cobra.Command{
		Use:   "layout <document>",
		Short: "Print node positions for a workflow graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.Layout
			switch layout.Orientation(orientation) {
			case "":
			case layout.Vertical, layout.Horizontal:
				opts.Orientation = layout.Orientation(orientation)
			default:
				return fmt.Errorf("orientation must be %q or %q", layout.Vertical, layout.Horizontal)
			}

			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			g, err := graph.Derive(doc, resolveWorkflow(doc, workflowID), a.graphOptions())
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), layout.Compute(g, nil, opts), output)
		},
	}
	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "workflow id (default: the first workflow)")
	cmd.Flags().StringVar(&orientation, "orientation", "", "vertical or horizontal (default from settings)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func newDiagramCmd(a *app) *cobra.Command {
	var (
		workflowID string
		format     string
		outFile    string
		hideData   bool
		binDir     string
	)
	cmd := &cobra.Command{
		Use:   "diagram <document>",
		Short: "Render a workflow graph as Mermaid, ASCII, SVG or PNG",
		Example: `  # Mermaid flowchart on stdout
  arazzo-graph diagram pets.arazzo.yaml

  # PNG image
  arazzo-graph diagram pets.arazzo.yaml --format png --out adopt.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			g, err := graph.Derive(doc, resolveWorkflow(doc, workflowID), a.graphOptions())
			if err != nil {
				return err
			}
			title := "Workflow " + g.WorkflowID
			if doc.Info != nil && doc.Info.Title != "" {
				title = doc.Info.Title + ": " + g.WorkflowID
			}
			model := diagram.Build(g, diagram.Options{
				Title:       title,
				HideData:    hideData,
				Orientation: a.cfg.Layout.Orientation,
			})

			var data []byte
			switch format {
			case "mermaid":
				data = []byte(diagram.RenderMermaid(model))
			case "ascii":
				data = []byte(diagram.RenderASCIIAuto(cmd.Context(), model, binDir))
			case string(diagram.PNG), string(diagram.SVG):
				if data, err = diagram.RenderImage(cmd.Context(), model, diagram.ImageFormat(format)); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown diagram format %q", format)
			}

			if outFile == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outFile, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outFile, err)
			}
			a.logger.Info("diagram written", "file", outFile, "format", format, "bytes", len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "workflow id (default: the first workflow)")
	cmd.Flags().StringVarP(&format, "format", "f", "mermaid", "mermaid, ascii, svg or png")
	cmd.Flags().StringVar(&outFile, "out", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&hideData, "hide-data", false, "omit data edges")
	cmd.Flags().StringVar(&binDir, "mermaid-ascii-dir", "", "directory holding a mermaid-ascii binary used for ascii output")
	return cmd
}
