package e2e

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rendis/arazzo-graph/internal/diagram"
	"github.com/rendis/arazzo-graph/internal/expressions"
	"github.com/rendis/arazzo-graph/internal/graph"
	"github.com/rendis/arazzo-graph/internal/layout"
	"github.com/rendis/arazzo-graph/internal/validation"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

// --- Example test harness ---

func examplesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "examples")
}

// loadExample reads examples/<name>/workflow.arazzo.yaml as text.
func loadExample(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(examplesDir(), name, "workflow.arazzo.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read %s", path)
	return string(data)
}

func decodeExample(t *testing.T, name string) *schema.Document {
	t.Helper()
	doc, err := schema.Decode([]byte(loadExample(t, name)))
	require.NoError(t, err, "failed to decode %s", name)
	require.NoError(t, schema.IsStructurallyValid(doc))
	return doc
}

// loadSample reads examples/<name>/sample.yaml, if present.
func loadSample(t *testing.T, name string) *expressions.Sample {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(examplesDir(), name, "sample.yaml"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var generic any
	require.NoError(t, yaml.Unmarshal(data, &generic))
	raw, err := json.Marshal(generic)
	require.NoError(t, err)
	var sample expressions.Sample
	require.NoError(t, json.Unmarshal(raw, &sample))
	return &sample
}

// --- Every example ---

// TestExamples_All validates, derives, lays out and renders every workflow
// of every example document.
func TestExamples_All(t *testing.T) {
	entries, err := os.ReadDir(examplesDir())
	require.NoError(t, err)

	v, err := validation.NewValidator()
	require.NoError(t, err)

	var seen int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, err := os.Stat(filepath.Join(examplesDir(), name, "workflow.arazzo.yaml")); err != nil {
			continue
		}
		seen++

		t.Run(name, func(t *testing.T) {
			doc := decodeExample(t, name)

			result := v.Validate(doc)
			assert.True(t, result.Valid(), "validation errors: %+v", result.Errors)

			for _, wf := range doc.Workflows {
				g, err := graph.Derive(doc, wf.WorkflowID, graph.Options{})
				require.NoError(t, err)
				assert.Len(t, g.Topo.Ordered, len(wf.Steps), "every step is ordered")
				assert.Empty(t, g.Diagnostics)

				first := layout.Compute(g, nil, layout.DefaultOptions())
				second := layout.Compute(g, nil, layout.DefaultOptions())
				assert.Equal(t, first, second, "layout is deterministic")
				assert.Len(t, first, len(g.Nodes))

				out := diagram.RenderMermaid(diagram.Build(g, diagram.Options{}))
				for _, id := range g.Topo.Ordered {
					assert.Contains(t, out, id)
				}
			}

			if sample := loadSample(t, name); sample != nil {
				ev, err := expressions.NewEvaluator()
				require.NoError(t, err)
				step := &doc.Workflows[0].Steps[0]
				passed, results := ev.EvaluateCriteria(context.Background(), step.SuccessCriteria, sample)
				assert.True(t, passed, "criteria: %+v", results)
				_, outErrs := ev.PreviewOutputs(context.Background(), step.Outputs, sample)
				assert.Empty(t, outErrs)
			}
		})
	}
	assert.NotZero(t, seen, "no example documents found")
}

// --- Per-example shape ---

func TestExample_PetAdoption(t *testing.T) {
	doc := decodeExample(t, "pet-adoption")

	g, err := graph.Derive(doc, "adoptPet", graph.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"findPet", "adopt"}, g.Topo.Ordered)
	assert.Equal(t, []string{"findPet"}, g.Topo.Starts)
	assert.Equal(t, []string{"adopt"}, g.Topo.Ends)

	// retry without a target loops on findPet
	retries := g.EdgesBetween("findPet", "findPet")
	require.Len(t, retries, 1)
	assert.Equal(t, graph.EdgeFailure, retries[0].Kind)
	assert.False(t, retries[0].Invalid)

	data := g.EdgesOfKind(graph.EdgeData)
	require.Len(t, data, 1)
	assert.Equal(t, "petId", data[0].Label)

	require.NotNil(t, g.Node(graph.OutputNodeID))
	assert.Len(t, g.EdgesBetween("adopt", graph.OutputNodeID), 1)
}

func TestExample_PetAdoptionPreview(t *testing.T) {
	doc := decodeExample(t, "pet-adoption")
	sample := loadSample(t, "pet-adoption")
	require.NotNil(t, sample)

	step, err := doc.FindStep("adoptPet", "findPet")
	require.NoError(t, err)

	ev, err := expressions.NewEvaluator()
	require.NoError(t, err)
	outputs, errs := ev.PreviewOutputs(context.Background(), step.Outputs, sample)
	assert.Empty(t, errs)
	assert.Equal(t, float64(7), outputs["petId"])
	assert.Equal(t, "Tom", outputs["name"])

	v, err := validation.NewValidator()
	require.NoError(t, err)
	wf, err := doc.FindWorkflow("adoptPet")
	require.NoError(t, err)
	assert.NoError(t, v.ValidateInputs(sample.Inputs, wf))
	assert.Error(t, v.ValidateInputs(map[string]any{"kind": "cat"}, wf), "adopter is required")
}

func TestExample_Checkout(t *testing.T) {
	doc := decodeExample(t, "checkout")

	g, err := graph.Derive(doc, "checkout", graph.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"createCart", "addItem", "pay", "confirm", "compensate"}, g.Topo.Ordered)
	assert.Equal(t, []string{"createCart"}, g.Topo.Starts)
	assert.ElementsMatch(t, []string{"confirm", "compensate"}, g.Topo.Ends)

	// pay leaves sequential order through its goto, confirm ends the flow
	var control []graph.Edge
	for _, e := range g.EdgesBetween("pay", "confirm") {
		if e.Kind != graph.EdgeData {
			control = append(control, e)
		}
	}
	require.Len(t, control, 1)
	assert.Equal(t, graph.EdgeSuccess, control[0].Kind)
	assert.Empty(t, g.EdgesBetween("confirm", "compensate"))

	declined := g.EdgesBetween("pay", "compensate")
	require.Len(t, declined, 1)
	assert.Equal(t, graph.EdgeFailure, declined[0].Kind)
	assert.Equal(t, "declined", declined[0].Label)

	// the component retry is a reference, not an edge
	assert.Empty(t, g.EdgesBetween("pay", "pay"))

	hidden, err := graph.Derive(doc, "checkout", graph.Options{HideFailureEdges: true})
	require.NoError(t, err)
	assert.Empty(t, hidden.EdgesOfKind(graph.EdgeFailure))
	assert.Equal(t, g.Topo, hidden.Topo, "hiding edges does not change the order")

	pos := layout.Compute(g, nil, layout.DefaultOptions())
	assert.Equal(t, pos["createCart"].X, pos["pay"].X)
	assert.Less(t, pos["compensate"].X, pos["pay"].X, "failure branch sits on the negative side")

	out := diagram.RenderMermaid(diagram.Build(g, diagram.Options{}))
	assert.Contains(t, out, "compensate[[")
}
