package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rendis/arazzo-graph/internal/catalog"
	"github.com/rendis/arazzo-graph/internal/config"
	"github.com/rendis/arazzo-graph/internal/graph"
	"github.com/rendis/arazzo-graph/internal/logging"
	"github.com/rendis/arazzo-graph/pkg/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// app carries what every command needs once the root command has loaded
// settings.
type app struct {
	configPath string
	logLevel   string

	viper  *viper.Viper
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "arazzo-graph",
		Short: "Inspect and edit Arazzo workflows as execution graphs",
		Long: `arazzo-graph derives the execution graph of Arazzo 1.0 workflows:
  - control flow from step order and goto/retry actions
  - data flow from $steps references
  - dangling targets and references as diagnostics

It renders, lays out and validates workflows from the command line, and
serves an MCP editor over stdio.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "settings file (default: settings.yaml in ~/.arazzo-graph or the working directory)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newGraphCmd(a),
		newLayoutCmd(a),
		newDiagramCmd(a),
		newValidateCmd(a),
		newClassifyCmd(),
		newPreviewCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// load reads settings with the command line taking precedence over
// environment, settings file and defaults.
func (a *app) load(cmd *cobra.Command) error {
	v := config.New(a.configPath)
	if err := v.BindPFlag("log_level", cmd.Flags().Lookup("log-level")); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.viper, a.cfg = v, cfg
	a.logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	a.logger.Debug("settings loaded", "file", v.ConfigFileUsed(), "log_level", cfg.LogLevel)
	return nil
}

func (a *app) graphOptions() graph.Options {
	return graph.Options{HideFailureEdges: a.cfg.Graph.HideFailureEdges}
}

// hints merges the operation methods of every configured OpenAPI description.
func (a *app) hints() (catalog.Static, error) {
	out := make(catalog.Static)
	for _, path := range a.cfg.Catalog.OpenAPI {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		table, err := catalog.LoadOpenAPI(data)
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", path, err)
		}
		for op, method := range table {
			out[op] = method
		}
		a.logger.Debug("catalog loaded", "file", path, "operations", len(table))
	}
	return out, nil
}

// readDocument decodes the document at path, or stdin for "-", and checks
// the structure the graph relies on.
func readDocument(cmd *cobra.Command, path string) (*schema.Document, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	doc, err := schema.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := schema.IsStructurallyValid(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// resolveWorkflow returns id, or the first workflow's id when id is empty.
func resolveWorkflow(doc *schema.Document, id string) string {
	if id == "" && len(doc.Workflows) > 0 {
		return doc.Workflows[0].WorkflowID
	}
	return id
}

// printValue writes v as indented JSON or as YAML. YAML goes through JSON
// first so field names follow the json tags.
func printValue(w io.Writer, v any, format string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "", "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}
