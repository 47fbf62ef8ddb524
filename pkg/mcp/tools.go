package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/arazzo-graph/internal/diagram"
	"github.com/rendis/arazzo-graph/internal/editor"
	"github.com/rendis/arazzo-graph/internal/expressions"
	"github.com/rendis/arazzo-graph/internal/graph"
	"github.com/rendis/arazzo-graph/internal/layout"
	"github.com/rendis/arazzo-graph/pkg/schema"
)

// handleLoad opens a document in a new editor session.
func (s *GraphServer) handleLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var doc *schema.Document
	if text := req.GetString("document", ""); text != "" {
		decoded, err := decodeDocument(text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid document: %v", err)), nil
		}
		doc = decoded
	}

	sess, err := editor.NewSession(doc,
		editor.WithLogger(s.log()),
		editor.WithMetrics(s.metrics),
		editor.WithHistoryLimit(s.history),
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open session: %v", err)), nil
	}
	if wfID := req.GetString("workflow_id", ""); wfID != "" {
		if _, err := sess.Dispatch(ctx, editor.SetActiveWorkflow{WorkflowID: wfID}); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to select workflow: %v", err)), nil
		}
	}
	s.sessions.Add(sess)
	s.watch(ctx, sess.ID())

	state := sess.State()
	workflows := make([]string, len(state.Document.Workflows))
	for i, wf := range state.Document.Workflows {
		workflows[i] = wf.WorkflowID
	}
	s.log().InfoContext(ctx, "editor session opened",
		"session_id", sess.ID(), "workflows", len(workflows))

	return marshalResult(map[string]any{
		"session_id":  sess.ID(),
		"workflow_id": state.WorkflowID,
		"workflows":   workflows,
		"validation":  s.validator.Validate(state.Document),
	})
}

// handleValidate runs the validation pipeline on a session or inline document.
func (s *GraphServer) handleValidate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, _, errResult := s.documentFor(req)
	if errResult != nil {
		return errResult, nil
	}
	return marshalResult(s.validator.Validate(doc))
}

// handleExport serializes a session document.
func (s *GraphServer) handleExport(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.sessionFor(req)
	if errResult != nil {
		return errResult, nil
	}
	doc := sess.State().Document

	var data []byte
	var err error
	switch format := req.GetString("format", "yaml"); format {
	case "yaml":
		data, err = schema.EncodeYAML(doc)
	case "json":
		data, err = schema.EncodeJSON(doc)
	default:
		return mcp.NewToolResultError("format must be yaml or json"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleDerive derives the execution graph of a workflow, optionally filtered.
func (s *GraphServer) handleDerive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, _, errResult := s.deriveFor(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	nodeFilter, edgeFilter := req.GetString("node_filter", ""), req.GetString("edge_filter", "")
	if nodeFilter != "" || edgeFilter != "" {
		filtered, err := graph.Filter(ctx, g, nodeFilter, edgeFilter, s.filters)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("filter failed: %v", err)), nil
		}
		g = filtered
	}
	return marshalResult(g)
}

// handleDiagram renders the execution graph of a workflow.
func (s *GraphServer) handleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, selected, errResult := s.deriveFor(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	model := diagram.Build(g, diagram.Options{
		Selected:    selected,
		HideData:    req.GetBool("hide_data", false),
		Orientation: s.defaults().Layout.Orientation,
	})

	switch format := req.GetString("format", "mermaid"); format {
	case "mermaid":
		return mcp.NewToolResultText(diagram.RenderMermaid(model)), nil
	case "ascii":
		return mcp.NewToolResultText(diagram.RenderASCII(model)), nil
	case string(diagram.SVG):
		svg, err := diagram.RenderImage(ctx, model, diagram.SVG)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(svg)), nil
	case string(diagram.PNG):
		png, err := diagram.RenderImage(ctx, model, diagram.PNG)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultImage("workflow "+g.WorkflowID, base64.StdEncoding.EncodeToString(png), "image/png"), nil
	default:
		return mcp.NewToolResultError("format must be mermaid, ascii, svg or png"), nil
	}
}

// handleLayout computes positions for the active workflow of a session.
func (s *GraphServer) handleLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.sessionFor(req)
	if errResult != nil {
		return errResult, nil
	}

	opts := s.defaults().Layout
	switch o := req.GetString("orientation", ""); o {
	case "":
	case string(layout.Vertical), string(layout.Horizontal):
		opts.Orientation = layout.Orientation(o)
	default:
		return mcp.NewToolResultError("orientation must be vertical or horizontal"), nil
	}

	g, err := sess.Graph(ctx, s.defaults().Graph)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("derive failed: %v", err)), nil
	}
	return marshalResult(map[string]any{
		"workflow_id": g.WorkflowID,
		"orientation": opts.Orientation,
		"positions":   sess.Layout(g, opts),
	})
}

// handleClassify lists the runtime expressions in a string.
func (s *GraphServer) handleClassify(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text is required"), nil
	}
	found := expressions.ClassifyAll(text)
	if found == nil {
		found = []*expressions.Expression{}
	}
	return marshalResult(map[string]any{
		"literal":     len(found) == 0,
		"expressions": found,
	})
}

// handlePreview evaluates a step's success criteria and outputs against a
// sample exchange.
func (s *GraphServer) handlePreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.sessionFor(req)
	if errResult != nil {
		return errResult, nil
	}
	stepID, err := req.RequireString("step_id")
	if err != nil {
		return mcp.NewToolResultError("step_id is required"), nil
	}
	raw, err := json.Marshal(mcp.ParseStringMap(req, "sample", map[string]any{}))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid sample: %v", err)), nil
	}
	var sample expressions.Sample
	if err := json.Unmarshal(raw, &sample); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid sample: %v", err)), nil
	}

	state := sess.State()
	wf, err := state.Document.FindWorkflow(state.WorkflowID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	step := wf.Step(stepID)
	if step == nil {
		return mcp.NewToolResultError(fmt.Sprintf("step %q not found", stepID)), nil
	}

	out := map[string]any{"step_id": stepID}
	if sample.Inputs != nil {
		if err := s.validator.ValidateInputs(sample.Inputs, wf); err != nil {
			out["inputs_error"] = err.Error()
		}
	}
	passed, results := s.evaluator.EvaluateCriteria(ctx, step.SuccessCriteria, &sample)
	outputs, outputErrs := s.evaluator.PreviewOutputs(ctx, step.Outputs, &sample)
	out["passed"] = passed
	out["criteria"] = results
	out["outputs"] = outputs
	if len(outputErrs) > 0 {
		out["output_errors"] = outputErrs
	}
	return marshalResult(out)
}

// handleApply decodes and dispatches one editor mutation.
func (s *GraphServer) handleApply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.sessionFor(req)
	if errResult != nil {
		return errResult, nil
	}
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind is required"), nil
	}

	var payload []byte
	if fields := mcp.ParseStringMap(req, "payload", nil); fields != nil {
		if payload, err = json.Marshal(fields); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid payload: %v", err)), nil
		}
	}
	m, err := editor.DecodeMutation(kind, payload)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.dispatch(ctx, sess, m)
}

// handleAddOperation appends a step for an operation with a default criterion.
func (s *GraphServer) handleAddOperation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.sessionFor(req)
	if errResult != nil {
		return errResult, nil
	}
	ref, err := req.RequireString("operation_ref")
	if err != nil {
		return mcp.NewToolResultError("operation_ref is required"), nil
	}
	step := editor.NewStep(ref, s.hints)
	step.StepID = req.GetString("step_id", "")
	return s.dispatch(ctx, sess, editor.AddStep{Step: step})
}

// handleUndo restores the state before the last mutation.
func (s *GraphServer) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.sessionFor(req)
	if errResult != nil {
		return errResult, nil
	}
	state, err := sess.Undo(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.changed(ctx, sess, state, "undo")
}

// handleRedo re-applies the last undone mutation.
func (s *GraphServer) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.sessionFor(req)
	if errResult != nil {
		return errResult, nil
	}
	state, err := sess.Redo(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.changed(ctx, sess, state, "redo")
}

// --- Helpers ---

func (s *GraphServer) dispatch(ctx context.Context, sess *editor.Session, m editor.Mutation) (*mcp.CallToolResult, error) {
	state, err := sess.Dispatch(ctx, m)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.changed(ctx, sess, state, m.Kind())
}

// changed notifies the other watchers of sess and returns the new state
// summary with its derived graph.
func (s *GraphServer) changed(ctx context.Context, sess *editor.Session, state editor.State, kind string) (*mcp.CallToolResult, error) {
	s.watch(ctx, sess.ID())
	if err := s.notifier.Notify(ctx, sess.ID(), clientID(ctx), map[string]any{
		"session_id":  sess.ID(),
		"workflow_id": state.WorkflowID,
		"kind":        kind,
	}); err != nil {
		s.log().WarnContext(ctx, "change notification failed", "session_id", sess.ID(), "error", err)
	}

	g, err := graph.Derive(state.Document, state.WorkflowID, s.defaults().Graph)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("derive failed: %v", err)), nil
	}
	return marshalResult(map[string]any{
		"session_id":  sess.ID(),
		"workflow_id": state.WorkflowID,
		"selected":    state.Selected,
		"can_undo":    sess.CanUndo(),
		"can_redo":    sess.CanRedo(),
		"graph":       g,
	})
}

// deriveFor derives the graph named by a request: the active or given
// workflow of session_id, or the given or first workflow of an inline
// document. It also returns the session's selected node.
func (s *GraphServer) deriveFor(ctx context.Context, req mcp.CallToolRequest) (*graph.Graph, string, *mcp.CallToolResult) {
	opts := graph.Options{
		HideFailureEdges: req.GetBool("hide_failure_edges", s.defaults().Graph.HideFailureEdges),
	}
	workflowID := req.GetString("workflow_id", "")

	var g *graph.Graph
	var selected string
	var err error
	if id := req.GetString("session_id", ""); id != "" {
		sess, lookupErr := s.sessions.Get(id)
		if lookupErr != nil {
			return nil, "", mcp.NewToolResultError(lookupErr.Error())
		}
		if state := sess.State(); workflowID == "" || workflowID == state.WorkflowID {
			g, err = sess.Graph(ctx, opts)
			selected = state.Selected
		} else {
			g, err = graph.Derive(state.Document, workflowID, opts)
		}
	} else {
		doc, activeID, errResult := s.documentFor(req)
		if errResult != nil {
			return nil, "", errResult
		}
		if workflowID == "" {
			workflowID = activeID
		}
		g, err = graph.Derive(doc, workflowID, opts)
	}
	if err != nil {
		return nil, "", mcp.NewToolResultError(fmt.Sprintf("derive failed: %v", err))
	}
	return g, selected, nil
}

func (s *GraphServer) sessionFor(req mcp.CallToolRequest) (*editor.Session, *mcp.CallToolResult) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return nil, mcp.NewToolResultError("session_id is required")
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return sess, nil
}

// documentFor resolves the document named by session_id or given inline as
// document, with the workflow a derivation defaults to.
func (s *GraphServer) documentFor(req mcp.CallToolRequest) (*schema.Document, string, *mcp.CallToolResult) {
	if id := req.GetString("session_id", ""); id != "" {
		sess, err := s.sessions.Get(id)
		if err != nil {
			return nil, "", mcp.NewToolResultError(err.Error())
		}
		state := sess.State()
		return state.Document, state.WorkflowID, nil
	}
	text := req.GetString("document", "")
	if text == "" {
		return nil, "", mcp.NewToolResultError("one of session_id or document is required")
	}
	doc, err := decodeDocument(text)
	if err != nil {
		return nil, "", mcp.NewToolResultError(fmt.Sprintf("invalid document: %v", err))
	}
	return doc, doc.Workflows[0].WorkflowID, nil
}

// decodeDocument parses text and checks the invariants the graph needs.
func decodeDocument(text string) (*schema.Document, error) {
	doc, err := schema.Decode([]byte(text))
	if err != nil {
		return nil, err
	}
	if err := schema.IsStructurallyValid(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// watch registers the calling client as a watcher of an editor session.
func (s *GraphServer) watch(ctx context.Context, editorID string) {
	if id := clientID(ctx); id != "" {
		s.sessions.Watch(editorID, id)
	}
}

func clientID(ctx context.Context) string {
	if session := server.ClientSessionFromContext(ctx); session != nil {
		return session.SessionID()
	}
	return ""
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
