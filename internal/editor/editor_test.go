package editor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rendis/arazzo-graph/internal/catalog"
	"github.com/rendis/arazzo-graph/internal/expressions"
	"github.com/rendis/arazzo-graph/internal/graph"
	"github.com/rendis/arazzo-graph/internal/layout"
	"github.com/rendis/arazzo-graph/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test document builders ---

// orderDoc is a three step workflow: create -> pay -> ship, with pay
// jumping straight to ship and retrying itself on failure.
func orderDoc() *schema.Document {
	doc := schema.NewDocument()
	doc.Components = &schema.Components{
		SuccessActions: map[string]schema.Action{"done": {Name: "done", Type: schema.ActionEnd}},
	}
	doc.Workflows[0] = schema.Workflow{
		WorkflowID: "order",
		Steps: []schema.Step{
			{
				StepID:      "create",
				OperationID: "createOrder",
				Outputs:     map[string]string{"id": "$response.body#/id"},
			},
			{
				StepID:      "pay",
				OperationID: "payOrder",
				Parameters: []schema.Parameter{
					{Name: "order", In: "path", Value: "$steps.create.outputs.id"},
				},
				RequestBody: &schema.RequestBody{
					Payload:      map[string]any{"order": "$steps.create.outputs.id", "note": []any{"for $steps.create.outputs.id"}},
					Replacements: []schema.PayloadReplacement{{Target: "/order", Value: "$steps.create.outputs.id"}},
				},
				SuccessCriteria: []schema.Criterion{{Condition: "$steps.create.outputs.id != null"}},
				OnSuccess: schema.Actions{
					&schema.Action{Name: "goto_ship", Type: schema.ActionGoto, StepID: "ship"},
				},
				OnFailure: schema.Actions{
					&schema.Action{Name: "retry_pay", Type: schema.ActionRetry, StepID: "pay"},
					&schema.ActionReference{Reference: "$components.successActions.done"},
				},
				Outputs: map[string]string{"receipt": "$response.body#/receipt"},
			},
			{
				StepID:      "ship",
				OperationID: "shipOrder",
				Parameters: []schema.Parameter{
					{Name: "order", In: "query", Value: "$steps.create.outputs.id"},
					{Name: "receipt", In: "query", Value: "$steps.pay.outputs.receipt"},
				},
			},
		},
		Outputs: map[string]string{"receipt": "$steps.pay.outputs.receipt"},
	}
	return doc
}

func orderState(t *testing.T) State {
	t.Helper()
	s, err := NewState(orderDoc())
	require.NoError(t, err)
	return s
}

func mustApply(t *testing.T, s State, m Mutation) State {
	t.Helper()
	next, err := Apply(s, m)
	require.NoError(t, err)
	return next
}

func activeWorkflow(t *testing.T, s State) *schema.Workflow {
	t.Helper()
	wf, err := s.Document.FindWorkflow(s.WorkflowID)
	require.NoError(t, err)
	return wf
}

func stepIDs(wf *schema.Workflow) []string {
	ids := make([]string, len(wf.Steps))
	for i, s := range wf.Steps {
		ids[i] = s.StepID
	}
	return ids
}

func deriveState(t *testing.T, s State) *graph.Graph {
	t.Helper()
	g, err := graph.Derive(s.Document, s.WorkflowID, graph.Options{})
	require.NoError(t, err)
	return g
}

// --- Apply ---

func TestNewState(t *testing.T) {
	s, err := NewState(nil)
	require.NoError(t, err)
	assert.Equal(t, "workflow_1", s.WorkflowID)

	_, err = NewState(&schema.Document{})
	assert.True(t, errors.Is(err, schema.ErrStructural))
}

func TestApply_LeavesInputUntouchedOnError(t *testing.T) {
	s := orderState(t)
	before := s.Document.Clone()

	got, err := Apply(s, RenameStep{From: "pay", To: "ship"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrConflict))
	assert.Same(t, s.Document, got.Document)
	assert.Empty(t, cmp.Diff(before, s.Document))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := orderState(t)
	before := s.Document.Clone()

	mustApply(t, s, RenameStep{From: "create", To: "open"})
	mustApply(t, s, DeleteStep{StepID: "pay"})
	assert.Empty(t, cmp.Diff(before, s.Document))
}

// --- AddStep ---

func TestAddStep(t *testing.T) {
	s := orderState(t)

	s = mustApply(t, s, AddStep{Step: schema.Step{OperationID: "audit"}, Position: &layout.Point{X: 1, Y: 2}})
	s = mustApply(t, s, AddStep{Step: schema.Step{OperationID: "notify"}})
	wf := activeWorkflow(t, s)

	assert.Equal(t, []string{"create", "pay", "ship", "step_1", "step_2"}, stepIDs(wf))
	assert.Equal(t, 2, s.Seq)
	assert.Equal(t, layout.Point{X: 1, Y: 2}, s.Positions["step_1"])
	assert.NotContains(t, s.Positions, "step_2")

	_, err := Apply(s, AddStep{Step: schema.Step{StepID: "pay"}})
	assert.True(t, errors.Is(err, schema.ErrConflict))

	for _, id := range []string{"send mail", "a/b", graph.OutputNodeID} {
		_, err = Apply(s, AddStep{Step: schema.Step{StepID: id}})
		assert.True(t, errors.Is(err, schema.ErrValidation), "%q: got %v", id, err)
	}
}

func TestAddStep_SkipsTakenGeneratedIDs(t *testing.T) {
	s := orderState(t)
	s = mustApply(t, s, AddStep{Step: schema.Step{StepID: "step_1"}})
	s = mustApply(t, s, AddStep{})
	assert.Equal(t, "step_2", activeWorkflow(t, s).Steps[4].StepID)
}

// --- DeleteStep ---

func TestDeleteStep(t *testing.T) {
	s := orderState(t)
	s.Selected = "ship"
	s.Positions = layout.Positions{"ship": {X: 3}, "pay": {X: 4}}

	s = mustApply(t, s, DeleteStep{StepID: "ship"})
	wf := activeWorkflow(t, s)

	assert.Equal(t, []string{"create", "pay"}, stepIDs(wf))
	pay := wf.Step("pay")
	require.NotNil(t, pay.OnSuccess, "emptied lists stay non-nil")
	assert.Empty(t, pay.OnSuccess)
	assert.Len(t, pay.OnFailure, 2, "unrelated actions and references survive")
	assert.Empty(t, wf.ListActionsReferencing("ship"))
	assert.Equal(t, "", s.Selected)
	assert.NotContains(t, s.Positions, "ship")
	assert.Contains(t, s.Positions, "pay")

	_, err := Apply(s, DeleteStep{StepID: "ship"})
	assert.True(t, errors.Is(err, schema.ErrNotFound))
}

func TestDeleteStep_LeavesDanglingDataFlagged(t *testing.T) {
	s := mustApply(t, orderState(t), DeleteStep{StepID: "create"})

	wf := activeWorkflow(t, s)
	assert.Equal(t, "$steps.create.outputs.id", wf.Step("pay").Parameters[0].Value)

	g := deriveState(t, s)
	assert.Equal(t, 1, g.Node("pay").InvalidLinks)
	assert.Equal(t, 1, g.Node("ship").InvalidLinks)
	assert.Len(t, g.Topo.Ordered, 2)
}

// --- RenameStep ---

func TestRenameStep_Closure(t *testing.T) {
	s := orderState(t)
	s.Selected = "create"
	s.Positions = layout.Positions{"create": {X: 9, Y: 9}}

	s = mustApply(t, s, RenameStep{From: "create", To: "open"})
	s = mustApply(t, s, RenameStep{From: "ship", To: "deliver"})
	wf := activeWorkflow(t, s)

	assert.Equal(t, []string{"open", "pay", "deliver"}, stepIDs(wf))
	assert.Equal(t, "open", s.Selected)
	assert.Equal(t, layout.Point{X: 9, Y: 9}, s.Positions["open"])
	assert.NotContains(t, s.Positions, "create")

	pay := wf.Step("pay")
	goTo := pay.OnSuccess.Concrete()[0]
	assert.Equal(t, "deliver", goTo.StepID)
	assert.Equal(t, "goto_deliver", goTo.Name, "generated names follow the target")

	assert.Equal(t, "$steps.open.outputs.id", pay.Parameters[0].Value)
	assert.Equal(t, map[string]any{"order": "$steps.open.outputs.id", "note": []any{"for $steps.open.outputs.id"}}, pay.RequestBody.Payload)
	assert.Equal(t, "$steps.open.outputs.id", pay.RequestBody.Replacements[0].Value)
	assert.Equal(t, "$steps.open.outputs.id != null", pay.SuccessCriteria[0].Condition)

	ref := pay.OnFailure[1].(*schema.ActionReference)
	assert.Equal(t, "$components.successActions.done", ref.Reference)

	for _, st := range wf.Steps {
		for _, p := range st.Parameters {
			assert.False(t, expressions.ReferencesStep(p.Value.(string), "create"))
			assert.False(t, expressions.ReferencesStep(p.Value.(string), "ship"))
		}
	}
	assert.Empty(t, wf.ListActionsReferencing("ship"))
	assert.Len(t, wf.ListActionsReferencing("deliver"), 1)
}

func TestRenameStep_SelfRetryAndOutputs(t *testing.T) {
	s := mustApply(t, orderState(t), RenameStep{From: "pay", To: "charge"})
	wf := activeWorkflow(t, s)

	retry := wf.Step("charge").OnFailure.Concrete()[0]
	assert.Equal(t, "charge", retry.StepID)
	assert.Equal(t, "retry_charge", retry.Name)
	assert.Equal(t, "$steps.charge.outputs.receipt", wf.Outputs["receipt"])
	assert.Equal(t, "$steps.charge.outputs.receipt", wf.Step("ship").Parameters[1].Value)
}

func TestRenameStep_KeepsCustomNames(t *testing.T) {
	s := orderState(t)
	s = mustApply(t, s, UpdateStep{StepID: "pay", Patch: StepPatch{OnSuccess: schema.Actions{
		&schema.Action{Name: "fast-track", Type: schema.ActionGoto, StepID: "ship"},
	}}})
	s = mustApply(t, s, RenameStep{From: "ship", To: "deliver"})

	a := activeWorkflow(t, s).Step("pay").OnSuccess.Concrete()[0]
	assert.Equal(t, "fast-track", a.Name)
	assert.Equal(t, "deliver", a.StepID)
}

func TestRenameStep_Errors(t *testing.T) {
	s := orderState(t)

	tests := []struct {
		name string
		m    RenameStep
		want error
	}{
		{"missing", RenameStep{From: "nope", To: "x"}, schema.ErrNotFound},
		{"conflict", RenameStep{From: "pay", To: "ship"}, schema.ErrConflict},
		{"empty", RenameStep{From: "pay", To: " "}, schema.ErrValidation},
		{"space", RenameStep{From: "create", To: "create order"}, schema.ErrValidation},
		{"dot", RenameStep{From: "create", To: "create.v2"}, schema.ErrValidation},
		{"input node", RenameStep{From: "create", To: graph.InputNodeID}, schema.ErrValidation},
		{"output node", RenameStep{From: "ship", To: graph.OutputNodeID}, schema.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(s, tt.m)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	same := mustApply(t, s, RenameStep{From: "pay", To: "pay"})
	assert.Empty(t, cmp.Diff(s.Document, same.Document))
}

// --- Connect / Disconnect ---

func TestConnect_NotDeduplicated(t *testing.T) {
	s := orderState(t)
	s = mustApply(t, s, Connect{Source: "create", Target: "ship"})
	s = mustApply(t, s, Connect{Source: "create", Target: "ship"})

	actions := activeWorkflow(t, s).Step("create").OnSuccess.Concrete()
	require.Len(t, actions, 2)
	assert.Equal(t, "goto_ship", actions[0].Name)
	assert.Equal(t, schema.ActionGoto, actions[1].Type)

	g := deriveState(t, s)
	assert.Len(t, g.EdgesBetween("create", "ship"), 3, "two success edges plus the data edge")
	toPay := g.EdgesBetween("create", "pay")
	require.Len(t, toPay, 1)
	assert.Equal(t, graph.EdgeData, toPay[0].Kind, "fallthrough is suppressed by the gotos")

	_, err := Apply(s, Connect{Source: "create", Target: "ghost"})
	assert.True(t, errors.Is(err, schema.ErrNotFound))
}

func TestDisconnect(t *testing.T) {
	s := orderState(t)
	s = mustApply(t, s, Disconnect{Source: "pay", Target: "ship"})

	pay := activeWorkflow(t, s).Step("pay")
	assert.NotNil(t, pay.OnSuccess)
	assert.Empty(t, pay.OnSuccess)
	assert.Len(t, pay.OnFailure, 2, "failure actions are not touched")

	again := mustApply(t, s, Disconnect{Source: "pay", Target: "ship"})
	assert.Empty(t, cmp.Diff(s.Document, again.Document))

	_, err := Apply(s, Disconnect{Source: "ghost", Target: "ship"})
	assert.True(t, errors.Is(err, schema.ErrNotFound))
}

// --- InsertStepOnEdge ---

func TestInsertStepOnEdge_Goto(t *testing.T) {
	s := orderState(t)
	s = mustApply(t, s, InsertStepOnEdge{Step: schema.Step{StepID: "fraud", OperationID: "checkFraud"}, Source: "pay", Target: "ship"})
	wf := activeWorkflow(t, s)

	assert.Equal(t, "fraud", s.Selected)
	assert.Equal(t, []string{"create", "pay", "fraud", "ship"}, stepIDs(wf))

	g := deriveState(t, s)
	assert.Len(t, g.EdgesBetween("pay", "fraud"), 1)
	assert.Len(t, g.EdgesBetween("fraud", "ship"), 1)
	for _, e := range g.EdgesBetween("pay", "ship") {
		assert.Equal(t, graph.EdgeData, e.Kind, "no direct control edge remains")
	}
	assert.Equal(t, "goto_fraud", wf.Step("pay").OnSuccess.Concrete()[0].Name)
}

func TestInsertStepOnEdge_Fallthrough(t *testing.T) {
	s := orderState(t)
	s = mustApply(t, s, InsertStepOnEdge{Source: "create", Target: "pay"})
	wf := activeWorkflow(t, s)

	assert.Equal(t, []string{"create", "step_1", "pay", "ship"}, stepIDs(wf))
	assert.Equal(t, "step_1", s.Selected)
	assert.Empty(t, wf.Step("step_1").OnSuccess)

	g := deriveState(t, s)
	assert.Len(t, g.EdgesBetween("create", "step_1"), 1)
	assert.Len(t, g.EdgesBetween("step_1", "pay"), 1)
	for _, e := range g.EdgesBetween("create", "pay") {
		assert.Equal(t, graph.EdgeData, e.Kind)
	}
}

func TestInsertStepOnEdge_FallthroughStepWithOwnGoto(t *testing.T) {
	doc := schema.NewDocument()
	doc.Workflows[0].Steps = []schema.Step{{StepID: "a"}, {StepID: "b"}, {StepID: "c"}}
	s, err := NewState(doc)
	require.NoError(t, err)

	n := schema.Step{StepID: "n", OnSuccess: schema.Actions{
		&schema.Action{Name: "skip", Type: schema.ActionGoto, StepID: "c"},
	}}
	s = mustApply(t, s, InsertStepOnEdge{Step: n, Source: "a", Target: "b"})
	wf := activeWorkflow(t, s)
	assert.Equal(t, []string{"a", "n", "b", "c"}, stepIDs(wf))

	g := deriveState(t, s)
	assert.Len(t, g.EdgesBetween("a", "n"), 1)
	toB := g.EdgesBetween("n", "b")
	require.Len(t, toB, 1)
	assert.Equal(t, graph.EdgeSuccess, toB[0].Kind)
	assert.Len(t, g.EdgesBetween("n", "c"), 1, "the supplied goto is kept")
	assert.Empty(t, g.EdgesBetween("a", "b"))
}

func TestInsertStepOnEdge_FallthroughStepThatEnds(t *testing.T) {
	doc := schema.NewDocument()
	doc.Workflows[0].Steps = []schema.Step{{StepID: "a"}, {StepID: "b"}}
	s, err := NewState(doc)
	require.NoError(t, err)

	n := schema.Step{StepID: "n", OnSuccess: schema.Actions{&schema.Action{Name: "stop", Type: schema.ActionEnd}}}
	s = mustApply(t, s, InsertStepOnEdge{Step: n, Source: "a", Target: "b"})

	g := deriveState(t, s)
	assert.Len(t, g.EdgesBetween("n", "b"), 1)
	assert.Equal(t, []string{"a", "n", "b"}, g.Topo.Ordered)
}

func TestInsertStepOnEdge_FailureOnlyKeepsFallthrough(t *testing.T) {
	doc := schema.NewDocument()
	doc.Workflows[0].Steps = []schema.Step{
		{StepID: "a", OnFailure: schema.Actions{&schema.Action{Name: "goto_c", Type: schema.ActionGoto, StepID: "c"}}},
		{StepID: "b"},
		{StepID: "c"},
	}
	s, err := NewState(doc)
	require.NoError(t, err)
	before := deriveState(t, s)

	s = mustApply(t, s, InsertStepOnEdge{Step: schema.Step{StepID: "n"}, Source: "a", Target: "c"})
	after := deriveState(t, s)

	assert.Len(t, after.EdgesBetween("a", "n"), 1)
	assert.Len(t, after.EdgesBetween("n", "c"), 1)
	assert.Empty(t, after.EdgesBetween("a", "c"))
	assert.Equal(t, before.EdgesBetween("a", "b")[0].Kind, after.EdgesBetween("a", "b")[0].Kind)
	assert.Len(t, after.EdgesBetween("b", "c"), 1)
}

func TestInsertStepOnEdge_Errors(t *testing.T) {
	s := orderState(t)

	_, err := Apply(s, InsertStepOnEdge{Source: "create", Target: "ship"})
	assert.True(t, errors.Is(err, schema.ErrValidation))

	_, err = Apply(s, InsertStepOnEdge{Source: "ghost", Target: "ship"})
	assert.True(t, errors.Is(err, schema.ErrNotFound))

	_, err = Apply(s, InsertStepOnEdge{Step: schema.Step{StepID: "create"}, Source: "pay", Target: "ship"})
	assert.True(t, errors.Is(err, schema.ErrConflict))

	_, err = Apply(s, InsertStepOnEdge{Step: schema.Step{StepID: "fraud check"}, Source: "pay", Target: "ship"})
	assert.True(t, errors.Is(err, schema.ErrValidation))
}

// --- Reorder / UpdateStep ---

func TestReorder(t *testing.T) {
	s := mustApply(t, orderState(t), Reorder{From: 2, To: 0})
	wf := activeWorkflow(t, s)
	assert.Equal(t, []string{"ship", "create", "pay"}, stepIDs(wf))
	assert.Equal(t, "ship", wf.Step("pay").OnSuccess.Concrete()[0].StepID)

	_, err := Apply(s, Reorder{From: 0, To: 3})
	assert.True(t, errors.Is(err, schema.ErrValidation))

	_, err = Apply(s, Reorder{WorkflowID: "nope", From: 0, To: 1})
	assert.True(t, errors.Is(err, schema.ErrNotFound))
}

func TestUpdateStep_WithRename(t *testing.T) {
	newID, desc, op := "open", "Opens the order", "openOrder"
	s := mustApply(t, orderState(t), UpdateStep{StepID: "create", Patch: StepPatch{
		StepID:      &newID,
		Description: &desc,
		OperationID: &op,
	}})
	wf := activeWorkflow(t, s)

	open := wf.Step("open")
	require.NotNil(t, open)
	assert.Equal(t, desc, open.Description)
	assert.Equal(t, "openOrder", open.OperationID)
	assert.Equal(t, "$steps.open.outputs.id", wf.Step("pay").Parameters[0].Value)
}

func TestUpdateStep_AtomicOnConflict(t *testing.T) {
	s := orderState(t)
	taken, desc := "ship", "changed"

	_, err := Apply(s, UpdateStep{StepID: "create", Patch: StepPatch{StepID: &taken, Description: &desc}})
	assert.True(t, errors.Is(err, schema.ErrConflict))
	assert.Equal(t, "", activeWorkflow(t, s).Step("create").Description)
}

func TestUpdateStep_RejectsMalformedID(t *testing.T) {
	s := orderState(t)
	bad := "create order"

	_, err := Apply(s, UpdateStep{StepID: "create", Patch: StepPatch{StepID: &bad}})
	assert.True(t, errors.Is(err, schema.ErrValidation))
	assert.Equal(t, "$steps.create.outputs.id", activeWorkflow(t, s).Step("pay").Parameters[0].Value)

	g := deriveState(t, s)
	assert.Len(t, g.EdgesOfKind(graph.EdgeData), 3)
	assert.Empty(t, g.Diagnostics)
}

func TestUpdateStep_OperationExclusive(t *testing.T) {
	path := "{$sourceDescriptions.api.url}#/paths/~1orders/post"
	s := mustApply(t, orderState(t), UpdateStep{StepID: "create", Patch: StepPatch{OperationPath: &path}})

	st := activeWorkflow(t, s).Step("create")
	assert.Equal(t, "", st.OperationID)
	assert.Equal(t, path, st.OperationPath)
}

// --- Selection / positions / workflows ---

func TestSelectMoveAndSwitch(t *testing.T) {
	doc := orderDoc()
	doc.Workflows = append(doc.Workflows, schema.Workflow{WorkflowID: "refund"})
	s, err := NewState(doc)
	require.NoError(t, err)

	s = mustApply(t, s, Select{NodeID: "pay"})
	s = mustApply(t, s, MoveNode{NodeID: graph.InputNodeID, Position: layout.Point{X: -1}})
	assert.Equal(t, "pay", s.Selected)
	assert.Equal(t, layout.Point{X: -1}, s.Positions[graph.InputNodeID])

	_, err = Apply(s, Select{NodeID: "ghost"})
	assert.True(t, errors.Is(err, schema.ErrNotFound))
	_, err = Apply(s, MoveNode{NodeID: "ghost"})
	assert.True(t, errors.Is(err, schema.ErrNotFound))

	s = mustApply(t, s, SetActiveWorkflow{WorkflowID: "refund"})
	assert.Equal(t, "refund", s.WorkflowID)
	assert.Equal(t, "", s.Selected)
	assert.Empty(t, s.Positions)

	_, err = Apply(s, SetActiveWorkflow{WorkflowID: "ghost"})
	assert.True(t, errors.Is(err, schema.ErrNotFound))

	s = mustApply(t, s, Select{})
	assert.Equal(t, "", s.Selected)
}

// --- Helpers ---

func TestNewStep(t *testing.T) {
	hints := catalog.Static{"createOrder": "POST", "cancelOrder": "DELETE"}

	assert.Equal(t, "$statusCode == 201", NewStep("createOrder", hints).SuccessCriteria[0].Condition)
	assert.Equal(t, "$statusCode == 204", NewStep("cancelOrder", hints).SuccessCriteria[0].Condition)
	assert.Equal(t, "$statusCode == 200", NewStep("getOrder", hints).SuccessCriteria[0].Condition)
	assert.Equal(t, "$statusCode == 200", NewStep("getOrder", nil).SuccessCriteria[0].Condition)

	st := NewStep("createOrder", hints)
	assert.Equal(t, "", st.StepID)
	assert.Equal(t, "createOrder", st.OperationID)
}

func TestDecodeMutation(t *testing.T) {
	m, err := DecodeMutation(KindRenameStep, []byte(`{"from":"a","to":"b"}`))
	require.NoError(t, err)
	assert.Equal(t, &RenameStep{From: "a", To: "b"}, m)

	m, err = DecodeMutation(KindAddStep, []byte(`{"step":{"stepId":"x","operationId":"op","onSuccess":[{"reference":"$components.successActions.done"},{"name":"n","type":"end"}]}}`))
	require.NoError(t, err)
	add := m.(*AddStep)
	assert.Equal(t, "x", add.Step.StepID)
	require.Len(t, add.Step.OnSuccess, 2)
	assert.True(t, schema.IsReferenceAction(add.Step.OnSuccess[0]))

	m, err = DecodeMutation(KindSelect, nil)
	require.NoError(t, err)
	assert.Equal(t, KindSelect, m.Kind())

	_, err = DecodeMutation("explode", nil)
	assert.True(t, errors.Is(err, schema.ErrValidation))

	_, err = DecodeMutation(KindConnect, []byte(`{"source":`))
	assert.True(t, errors.Is(err, schema.ErrDecode))
}
