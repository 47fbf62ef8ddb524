package diagram

import (
	"strings"
	"testing"

	"github.com/rendis/arazzo-graph/internal/graph"
	"github.com/stretchr/testify/assert"
)

func TestRenderMermaidLinear(t *testing.T) {
	output := RenderMermaid(Build(derive(linearWorkflow()), Options{}))

	assert.True(t, strings.HasPrefix(output, "graph TD\n"))
	assert.Contains(t, output, "%% Workflow etl")

	// Steps are rectangles, virtual nodes stadiums.
	assert.Contains(t, output, `fetch["fetch"]`)
	assert.Contains(t, output, `__input__(["Inputs"])`)
	assert.Contains(t, output, `__output__(["Outputs"])`)

	assert.Contains(t, output, "__input__ --> fetch")
	assert.Contains(t, output, "fetch --> transform")
	assert.Contains(t, output, "fetch -. records .- transform")
	assert.Contains(t, output, "store --> __output__")

	assert.Contains(t, output, "classDef invalid")
	assert.Contains(t, output, "class fetch start")
	assert.Contains(t, output, "class store finish")
}

func TestRenderMermaidBranching(t *testing.T) {
	output := RenderMermaid(Build(derive(branchingWorkflow()), Options{Selected: "notify"}))

	assert.Contains(t, output, "pay -->|goto_ship| ship")
	assert.Contains(t, output, "pay -.->|retry_pay| pay")
	assert.Contains(t, output, "pay -.->|invalid: ghost| pay")
	assert.Contains(t, output, `ship[["ship"]]`)
	assert.Contains(t, output, "class pay invalid")
	assert.Contains(t, output, "class notify selected")
}

func TestRenderMermaidDirection(t *testing.T) {
	model := Build(derive(linearWorkflow()), Options{})
	model.Direction = LeftRight
	assert.True(t, strings.HasPrefix(RenderMermaid(model), "graph LR\n"))

	model.Direction = ""
	assert.True(t, strings.HasPrefix(RenderMermaid(model), "graph TD\n"))
}

func TestMermaidSafeID(t *testing.T) {
	assert.Equal(t, "get_pet_by_id", mermaidSafeID("get-pet.by id"))
	assert.Equal(t, graph.InputNodeID, mermaidSafeID(graph.InputNodeID))
}

func TestMermaidEscapeLabel(t *testing.T) {
	assert.Equal(t, "a #124; b #quot;c#quot;", mermaidEscapeLabel(`a | b "c"`))
}

func TestRenderMermaidForCLI(t *testing.T) {
	model := Build(derive(branchingWorkflow()), Options{Selected: "notify"})
	output := RenderMermaidForCLI(model)

	assert.True(t, strings.HasPrefix(output, "graph TD\n"))
	assert.Contains(t, output, "pay-INVALID1 -->|goto_ship| ship")
	assert.Contains(t, output, "notify-SEL --> ship")
	assert.NotContains(t, output, "ghost")
	assert.NotContains(t, output, "[")
}

func TestRenderASCIIAutoFallsBack(t *testing.T) {
	model := Build(derive(linearWorkflow()), Options{})

	assert.Equal(t, RenderASCII(model), RenderASCIIAuto(t.Context(), model, ""))
	assert.Equal(t, RenderASCII(model), RenderASCIIAuto(t.Context(), model, t.TempDir()))
}
