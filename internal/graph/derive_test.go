package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/rendis/arazzo-graph/internal/expressions"
	"github.com/rendis/arazzo-graph/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test workflow builders ---

func step(id string) schema.Step {
	return schema.Step{StepID: id, OperationID: "api." + id}
}

func goTo(name, target string) *schema.Action {
	return &schema.Action{Name: name, Type: schema.ActionGoto, StepID: target}
}

func linearWorkflow(outputs bool) *schema.Workflow {
	wf := &schema.Workflow{
		WorkflowID: "linear",
		Steps:      []schema.Step{step("step1"), step("step2"), step("step3")},
	}
	if outputs {
		wf.Outputs = map[string]string{"result": "$steps.step3.outputs.value"}
	}
	return wf
}

func branchingWorkflow() *schema.Workflow {
	start := step("start")
	start.OnSuccess = schema.Actions{goTo("goto_end", "end")}
	return &schema.Workflow{
		WorkflowID: "branching",
		Steps:      []schema.Step{start, step("middle"), step("end")},
	}
}

func selfRetryWorkflow() *schema.Workflow {
	risky := step("risky")
	risky.OnFailure = schema.Actions{&schema.Action{Name: "again", Type: schema.ActionRetry, StepID: "risky"}}
	return &schema.Workflow{
		WorkflowID: "retry",
		Steps:      []schema.Step{step("prepare"), risky, step("finish")},
	}
}

func stepToStep(g *Graph) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source != InputNodeID {
			out = append(out, e)
		}
	}
	return out
}

func edgeIDs(edges []Edge) []string {
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	return ids
}

// --- Scenarios ---

func TestDerive_Linear(t *testing.T) {
	g := DeriveWorkflow(linearWorkflow(false), Options{})

	assert.Equal(t, []string{
		"__input__->step1",
		"seq:step1->step2",
		"seq:step2->step3",
	}, edgeIDs(g.Edges))
	assert.Len(t, stepToStep(g), 2)
	assert.Nil(t, g.Node(OutputNodeID))

	assert.Equal(t, []string{"step1", "step2", "step3"}, g.Topo.Ordered)
	assert.Equal(t, []string{"step1"}, g.Topo.Starts)
	assert.Equal(t, []string{"step3"}, g.Topo.Ends)
	assert.True(t, g.Node("step1").Start)
	assert.True(t, g.Node("step3").End)
	assert.Equal(t, "step1\n(api.step1)", g.Node("step1").Label)
}

func TestDerive_LinearWithOutputs(t *testing.T) {
	g := DeriveWorkflow(linearWorkflow(true), Options{})

	assert.Len(t, stepToStep(g), 3)
	require.NotNil(t, g.Node(OutputNodeID))
	assert.Len(t, g.EdgesBetween("step3", OutputNodeID), 1)
	assert.Len(t, g.Nodes, 5)
}

func TestDerive_BranchingGoto(t *testing.T) {
	g := DeriveWorkflow(branchingWorkflow(), Options{})

	success := g.EdgesBetween("start", "end")
	require.Len(t, success, 1)
	assert.Equal(t, EdgeSuccess, success[0].Kind)
	assert.Equal(t, "goto_end", success[0].Label)

	assert.Empty(t, g.EdgesBetween("start", "middle"), "explicit goto suppresses fallthrough")

	seq := g.EdgesBetween("middle", "end")
	require.Len(t, seq, 1)
	assert.Equal(t, EdgeSequential, seq[0].Kind)

	assert.Len(t, g.Incoming("end"), 2)
	assert.Equal(t, []string{"start", "middle"}, g.Topo.Starts)
	assert.Equal(t, []string{"start", "middle", "end"}, g.Topo.Ordered)
	assert.Equal(t, []string{"end"}, g.Topo.Ends)
}

func TestDerive_EndActionSuppressesFallthrough(t *testing.T) {
	first := step("first")
	first.OnSuccess = schema.Actions{&schema.Action{Name: "stop", Type: schema.ActionEnd}}
	wf := &schema.Workflow{WorkflowID: "w", Steps: []schema.Step{first, step("second")}}

	g := DeriveWorkflow(wf, Options{})
	assert.Empty(t, g.EdgesBetween("first", "second"))
	assert.Equal(t, []string{"first", "second"}, g.Topo.Starts)
	assert.Equal(t, []string{"first", "second"}, g.Topo.Ends)
}

func TestDerive_ReferenceActionsAreOpaque(t *testing.T) {
	first := step("first")
	first.OnSuccess = schema.Actions{&schema.ActionReference{Reference: "$components.successActions.finish"}}
	wf := &schema.Workflow{WorkflowID: "w", Steps: []schema.Step{first, step("second")}}

	g := DeriveWorkflow(wf, Options{})
	assert.Len(t, g.EdgesBetween("first", "second"), 1)
	assert.Zero(t, g.Node("first").InvalidLinks)
}

func TestDerive_SelfRetry(t *testing.T) {
	shown := DeriveWorkflow(selfRetryWorkflow(), Options{})
	hidden := DeriveWorkflow(selfRetryWorkflow(), Options{HideFailureEdges: true})

	loops := shown.EdgesBetween("risky", "risky")
	require.Len(t, loops, 1)
	assert.Equal(t, EdgeFailure, loops[0].Kind)
	assert.False(t, loops[0].Invalid)

	assert.Empty(t, hidden.EdgesBetween("risky", "risky"))

	var rest []Edge
	for _, e := range shown.Edges {
		if e.Kind != EdgeFailure {
			rest = append(rest, e)
		}
	}
	assert.Equal(t, rest, hidden.Edges, "hiding failure edges changes nothing else")
	assert.Equal(t, shown.Topo, hidden.Topo)
}

func TestDerive_OnlyStepRetriesItself(t *testing.T) {
	only := step("only")
	only.OnFailure = schema.Actions{&schema.Action{Name: "again", Type: schema.ActionRetry}}
	g := DeriveWorkflow(&schema.Workflow{WorkflowID: "w", Steps: []schema.Step{only}}, Options{})

	assert.Equal(t, []string{"only"}, g.Topo.Starts)
	assert.Equal(t, []string{"only"}, g.Topo.Ordered)
	assert.Len(t, g.EdgesBetween("only", "only"), 1)
}

func TestDerive_CycleFallbackStarts(t *testing.T) {
	a, b := step("a"), step("b")
	a.OnSuccess = schema.Actions{goTo("to_b", "b")}
	b.OnSuccess = schema.Actions{goTo("to_a", "a")}
	g := DeriveWorkflow(&schema.Workflow{WorkflowID: "w", Steps: []schema.Step{a, b}}, Options{})

	assert.Equal(t, []string{"a", "b"}, g.Topo.Starts)
	assert.Equal(t, []string{"a", "b"}, g.Topo.Ordered)
	assert.Empty(t, g.Topo.Ends)
}

func TestDerive_Totality(t *testing.T) {
	a, b, c, d := step("a"), step("b"), step("c"), step("d")
	a.OnSuccess = schema.Actions{goTo("skip", "c")}
	c.OnSuccess = schema.Actions{goTo("back", "a")}
	d.OnFailure = schema.Actions{goTo("loop", "b")}
	wf := &schema.Workflow{WorkflowID: "w", Steps: []schema.Step{a, b, c, d}}

	g := DeriveWorkflow(wf, Options{})
	assert.Len(t, g.Topo.Ordered, len(wf.Steps))
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, g.Topo.Ordered)
}

func TestDerive_InvalidTargets(t *testing.T) {
	a := step("a")
	a.OnSuccess = schema.Actions{goTo("to_ghost", "ghost")}
	a.OnFailure = schema.Actions{&schema.Action{Name: "retry_gone", Type: schema.ActionRetry, StepID: "gone"}}
	wf := &schema.Workflow{WorkflowID: "w", Steps: []schema.Step{a, step("b")}}

	g := DeriveWorkflow(wf, Options{})
	loops := g.EdgesBetween("a", "a")
	require.Len(t, loops, 2)
	assert.True(t, loops[0].Invalid)
	assert.Equal(t, "invalid: ghost", loops[0].Label)
	assert.Equal(t, EdgeSuccess, loops[0].Kind)
	assert.Equal(t, EdgeFailure, loops[1].Kind)
	assert.Equal(t, 2, g.Node("a").InvalidLinks)
	assert.Len(t, g.Diagnostics, 2)
	assert.Empty(t, g.EdgesBetween("a", "b"), "an invalid goto still suppresses fallthrough")

	hidden := DeriveWorkflow(wf, Options{HideFailureEdges: true})
	assert.Len(t, hidden.EdgesBetween("a", "a"), 1)
	assert.Equal(t, 2, hidden.Node("a").InvalidLinks)
}

func TestDerive_WorkflowGoto(t *testing.T) {
	a := step("a")
	a.OnSuccess = schema.Actions{&schema.Action{Name: "sub", Type: schema.ActionGoto, WorkflowID: "other"}}
	wf := &schema.Workflow{WorkflowID: "w", Steps: []schema.Step{a, step("b")}}

	g := DeriveWorkflow(wf, Options{})
	assert.Equal(t, []string{"other"}, g.Node("a").WorkflowTargets)
	assert.Empty(t, g.EdgesBetween("a", "b"))
	assert.Zero(t, g.Node("a").InvalidLinks)
}

func TestDerive_DataEdges(t *testing.T) {
	login, fetch := step("login"), step("fetch")
	fetch.Parameters = []schema.Parameter{
		{Name: "token", In: "header", Value: "Bearer {$steps.login.outputs.token}"},
		{Name: "session", In: "query", Value: "$steps.login.outputs.session"},
		{Name: "page", In: "query", Value: 1},
		{Name: "id", In: "path", Value: "$inputs.id"},
	}
	g := DeriveWorkflow(&schema.Workflow{WorkflowID: "w", Steps: []schema.Step{login, fetch}}, Options{})

	data := g.EdgesOfKind(EdgeData)
	require.Len(t, data, 2)
	assert.Equal(t, "token", data[0].Label)
	assert.Equal(t, "session", data[1].Label)
	assert.Equal(t, "login", data[0].Source)
	assert.Equal(t, "fetch", data[0].Target)
	assert.NotEqual(t, data[0].ID, data[1].ID)

	assert.Len(t, g.EdgesBetween("login", "fetch"), 3, "data edges coexist with the sequential edge")
}

func TestDerive_DanglingDataAfterDelete(t *testing.T) {
	a := step("a")
	a.Parameters = []schema.Parameter{{Name: "x", In: "query", Value: "$steps.b.outputs.x"}}
	wf := &schema.Workflow{WorkflowID: "w", Steps: []schema.Step{a}}

	g := DeriveWorkflow(wf, Options{})
	assert.Empty(t, g.EdgesOfKind(EdgeData))
	assert.Equal(t, 1, g.Node("a").InvalidLinks)
	require.Len(t, g.Diagnostics, 1)
	assert.Equal(t, DiagDanglingData, g.Diagnostics[0].Code)
	assert.Equal(t, "$steps.b.outputs.x", g.Diagnostics[0].Reference)
}

func TestDerive_EmptyWorkflow(t *testing.T) {
	g := DeriveWorkflow(&schema.Workflow{WorkflowID: "w", Outputs: map[string]string{"a": "$inputs.a"}}, Options{})

	assert.Len(t, g.Nodes, 2)
	assert.Empty(t, g.Edges)
	assert.Empty(t, g.Topo.Ordered)
}

func TestDerive_DocumentErrors(t *testing.T) {
	doc := schema.NewDocument()

	g, err := Derive(doc, "workflow_1", Options{})
	require.NoError(t, err)
	assert.Equal(t, "workflow_1", g.WorkflowID)

	_, err = Derive(doc, "missing", Options{})
	assert.True(t, errors.Is(err, schema.ErrNotFound))

	_, err = Derive(nil, "x", Options{})
	assert.True(t, errors.Is(err, schema.ErrNotFound))
}

func TestDerive_RejectsBadStepIDs(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
	}{
		{"duplicate", []string{"a", "b", "a"}},
		{"empty", []string{"a", ""}},
		{"input node", []string{InputNodeID, "a"}},
		{"output node", []string{"a", OutputNodeID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := schema.NewDocument()
			for _, id := range tt.ids {
				doc.Workflows[0].Steps = append(doc.Workflows[0].Steps, step(id))
			}
			g, err := Derive(doc, "workflow_1", Options{})
			assert.Nil(t, g)
			assert.True(t, errors.Is(err, schema.ErrStructural), "got %v", err)
		})
	}
}

func TestDerive_DoesNotMutate(t *testing.T) {
	wf := branchingWorkflow()
	before := wf.Clone()
	DeriveWorkflow(wf, Options{HideFailureEdges: true})
	assert.Equal(t, before, *wf)
}

// --- Filter ---

func TestFilter(t *testing.T) {
	g := DeriveWorkflow(selfRetryWorkflow(), Options{})
	engine := expressions.NewExprEngine()

	out, err := Filter(context.Background(), g, `kind == "step"`, `kind != "failure"`, engine)
	require.NoError(t, err)
	assert.Len(t, out.Nodes, 3)
	assert.Nil(t, out.Node(InputNodeID))
	for _, e := range out.Edges {
		assert.NotEqual(t, EdgeFailure, e.Kind)
		assert.NotEqual(t, InputNodeID, e.Source)
	}
	assert.Equal(t, g.Topo.Ordered, out.Topo.Ordered)

	out, err = Filter(context.Background(), g, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, g.Edges, out.Edges)

	_, err = Filter(context.Background(), g, `id +`, "", engine)
	assert.True(t, errors.Is(err, schema.ErrExpression))
}
