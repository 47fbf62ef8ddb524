package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rendis/arazzo-graph/internal/expressions"
	"github.com/rendis/arazzo-graph/internal/validation"
	"github.com/rendis/arazzo-graph/pkg/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newValidateCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate an Arazzo document",
		Long: `Validate checks a document in three stages: the document schema and
structural rules, then references and criteria, then step reachability.
It exits non-zero when any error is found; warnings alone do not fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			// Decode only: structural problems are reported as issues.
			doc, err := schema.Decode(data)
			if err != nil {
				return err
			}
			v, err := validation.NewValidator()
			if err != nil {
				return err
			}
			result := v.Validate(doc)
			a.logger.Debug("document validated", "errors", len(result.Errors), "warnings", len(result.Warnings))

			if output == "text" {
				printIssues(cmd, result)
			} else if err := printValue(cmd.OutOrStdout(), result, output); err != nil {
				return err
			}
			if !result.Valid() {
				return fmt.Errorf("%d validation error(s)", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func printIssues(cmd *cobra.Command, result *schema.ValidationResult) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, is := range result.Errors {
		fmt.Fprintf(w, "error\t%s\t%s\t%s\n", is.Path, is.Code, is.Message)
	}
	for _, is := range result.Warnings {
		fmt.Fprintf(w, "warning\t%s\t%s\t%s\n", is.Path, is.Code, is.Message)
	}
	w.Flush()
	if len(result.Errors) == 0 && len(result.Warnings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
	}
}

func newClassifyCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "List the runtime expressions in a string",
		Example: `  arazzo-graph classify 'Bearer {$steps.login.outputs.token}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found := expressions.ClassifyAll(args[0])
			if found == nil {
				found = []*expressions.Expression{}
			}
			return printValue(cmd.OutOrStdout(), found, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func newPreviewCmd(a *app) *cobra.Command {
	var (
		workflowID string
		stepID     string
		samplePath string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "preview <document>",
		Short: "Evaluate a step's success criteria and outputs against a sample exchange",
		Long: `Preview resolves a step's success criteria and outputs against a
hand-written sample (YAML or JSON) with url, method, statusCode, request,
response, inputs and steps fields. No API is called.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			step, err := doc.FindStep(resolveWorkflow(doc, workflowID), stepID)
			if err != nil {
				return err
			}
			sample, err := readSample(samplePath)
			if err != nil {
				return err
			}

			ev, err := expressions.NewEvaluator()
			if err != nil {
				return err
			}
			passed, results := ev.EvaluateCriteria(cmd.Context(), step.SuccessCriteria, sample)
			outputs, outputErrs := ev.PreviewOutputs(cmd.Context(), step.Outputs, sample)
			a.logger.Debug("step previewed", "step_id", stepID, "passed", passed)

			return printValue(cmd.OutOrStdout(), map[string]any{
				"step_id":       stepID,
				"passed":        passed,
				"criteria":      results,
				"outputs":       outputs,
				"output_errors": outputErrs,
			}, output)
		},
	}
	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "workflow id (default: the first workflow)")
	cmd.Flags().StringVar(&stepID, "step", "", "step id")
	cmd.Flags().StringVar(&samplePath, "sample", "", "sample exchange file (YAML or JSON)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	_ = cmd.MarkFlagRequired("step")
	_ = cmd.MarkFlagRequired("sample")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// readSample decodes a sample exchange. JSON is valid YAML, so one decoder
// serves both; the YAML tree is re-encoded as JSON so bodies keep JSON types.
func readSample(path string) (*expressions.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("parse sample: %w", err)
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("parse sample: %w", err)
	}
	var sample expressions.Sample
	if err := json.Unmarshal(raw, &sample); err != nil {
		return nil, fmt.Errorf("parse sample: %w", err)
	}
	return &sample, nil
}
