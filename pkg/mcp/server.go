package mcp

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/arazzo-graph/internal/catalog"
	"github.com/rendis/arazzo-graph/internal/expressions"
	"github.com/rendis/arazzo-graph/internal/graph"
	"github.com/rendis/arazzo-graph/internal/layout"
	"github.com/rendis/arazzo-graph/internal/telemetry"
	"github.com/rendis/arazzo-graph/internal/validation"
)

// Version is reported to MCP clients during initialization.
const Version = "1.0.0"

// GraphServerDeps holds the dependencies for creating a GraphServer.
type GraphServerDeps struct {
	Logger       *slog.Logger
	Metrics      *telemetry.Metrics
	Hints        catalog.Hints
	Graph        graph.Options
	Layout       layout.Options
	HistoryLimit int
}

// GraphServer wraps an MCP server with workflow graph tool handlers.
type GraphServer struct {
	logger  atomic.Pointer[slog.Logger]
	metrics *telemetry.Metrics
	hints   catalog.Hints
	views   atomic.Pointer[ViewDefaults]
	history int

	validator *validation.Validator
	evaluator *expressions.Evaluator
	filters   *expressions.ExprEngine
	sessions  *SessionRegistry
	notifier  ChangeNotifier
	mcpServer *server.MCPServer
}

// NewGraphServer creates a GraphServer with every tool registered.
func NewGraphServer(deps GraphServerDeps) (*GraphServer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	v, err := validation.NewValidator()
	if err != nil {
		return nil, err
	}
	ev, err := expressions.NewEvaluator()
	if err != nil {
		return nil, err
	}
	s := &GraphServer{
		metrics:   deps.Metrics,
		hints:     deps.Hints,
		history:   deps.HistoryLimit,
		validator: v,
		evaluator: ev,
		filters:   expressions.NewExprEngine(),
		sessions:  NewSessionRegistry(),
	}
	s.logger.Store(logger)
	s.SetViewDefaults(ViewDefaults{Graph: deps.Graph, Layout: deps.Layout})

	hooks := &server.Hooks{}
	hooks.AddOnUnregisterSession(func(_ context.Context, session server.ClientSession) {
		s.sessions.Unwatch(session.SessionID())
	})

	mcpSrv := server.NewMCPServer(
		"arazzo-graph",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(hooks),
		server.WithInstructions("arazzo-graph edits Arazzo workflow documents as execution graphs. Use workflow.load to open a document in an editor session, graph.derive, graph.layout and graph.diagram to inspect it, editor.apply, editor.undo and editor.redo to change it, and workflow.export to get the edited document back."),
	)
	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	s.notifier = NewMCPNotifier(mcpSrv, s.sessions)
	return s, nil
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *GraphServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *GraphServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Sessions returns the registry of open editor sessions.
func (s *GraphServer) Sessions() *SessionRegistry {
	return s.sessions
}

// SetLogger swaps the logger used by handlers and new editor sessions. Safe
// to call while serving.
func (s *GraphServer) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger.Store(l)
	}
}

// ViewDefaults are the derivation and layout settings used when a tool call
// does not override them.
type ViewDefaults struct {
	Graph  graph.Options
	Layout layout.Options
}

// SetViewDefaults swaps the derivation and layout defaults. A zero Layout
// selects layout.DefaultOptions(). Safe to call while serving.
func (s *GraphServer) SetViewDefaults(d ViewDefaults) {
	if d.Layout == (layout.Options{}) {
		d.Layout = layout.DefaultOptions()
	}
	s.views.Store(&d)
}

func (s *GraphServer) defaults() ViewDefaults {
	return *s.views.Load()
}

func (s *GraphServer) log() *slog.Logger {
	return s.logger.Load()
}

func (s *GraphServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: loadTool(), Handler: s.handleLoad},
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: exportTool(), Handler: s.handleExport},
		{Tool: deriveTool(), Handler: s.handleDerive},
		{Tool: layoutTool(), Handler: s.handleLayout},
		{Tool: diagramTool(), Handler: s.handleDiagram},
		{Tool: classifyTool(), Handler: s.handleClassify},
		{Tool: previewTool(), Handler: s.handlePreview},
		{Tool: applyTool(), Handler: s.handleApply},
		{Tool: addOperationTool(), Handler: s.handleAddOperation},
		{Tool: undoTool(), Handler: s.handleUndo},
		{Tool: redoTool(), Handler: s.handleRedo},
	}
}

// --- Tool definitions ---

func loadTool() mcp.Tool {
	return mcp.NewTool("workflow.load",
		mcp.WithDescription("Open an Arazzo document in a new editor session"),
		mcp.WithString("document", mcp.Description("Arazzo document as YAML or JSON (default: a new empty document)")),
		mcp.WithString("workflow_id", mcp.Description("Workflow to make active (default: the first one)")),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("workflow.validate",
		mcp.WithDescription("Validate an Arazzo document and list errors and warnings"),
		mcp.WithString("session_id", mcp.Description("Editor session whose document is validated")),
		mcp.WithString("document", mcp.Description("Arazzo document as YAML or JSON, used when no session_id is given")),
	)
}

func exportTool() mcp.Tool {
	return mcp.NewTool("workflow.export",
		mcp.WithDescription("Serialize the document of an editor session"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Editor session ID")),
		mcp.WithString("format", mcp.Enum("yaml", "json"), mcp.Description("Output format (default: yaml)")),
	)
}

func deriveTool() mcp.Tool {
	return mcp.NewTool("graph.derive",
		mcp.WithDescription("Derive the execution graph of a workflow"),
		mcp.WithString("session_id", mcp.Description("Editor session whose active workflow is derived")),
		mcp.WithString("document", mcp.Description("Arazzo document as YAML or JSON, used when no session_id is given")),
		mcp.WithString("workflow_id", mcp.Description("Workflow to derive (default: the active or first workflow)")),
		mcp.WithBoolean("hide_failure_edges", mcp.Description("Omit failure edges from the result")),
		mcp.WithString("node_filter", mcp.Description("expr predicate over id, kind, label, operation, start, end, invalidLinks")),
		mcp.WithString("edge_filter", mcp.Description("expr predicate over id, source, target, kind, label, invalid")),
	)
}

func layoutTool() mcp.Tool {
	return mcp.NewTool("graph.layout",
		mcp.WithDescription("Compute node positions for the active workflow of an editor session"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Editor session ID")),
		mcp.WithString("orientation", mcp.Enum("vertical", "horizontal"), mcp.Description("Primary axis (default from settings)")),
	)
}

func diagramTool() mcp.Tool {
	return mcp.NewTool("graph.diagram",
		mcp.WithDescription("Render the execution graph of a workflow as Mermaid, ASCII, SVG or PNG"),
		mcp.WithString("session_id", mcp.Description("Editor session whose active workflow is rendered")),
		mcp.WithString("document", mcp.Description("Arazzo document as YAML or JSON, used when no session_id is given")),
		mcp.WithString("workflow_id", mcp.Description("Workflow to render (default: the active or first workflow)")),
		mcp.WithString("format", mcp.Enum("mermaid", "ascii", "svg", "png"), mcp.Description("Output format (default: mermaid)")),
		mcp.WithBoolean("hide_failure_edges", mcp.Description("Omit failure edges")),
		mcp.WithBoolean("hide_data", mcp.Description("Omit data edges")),
	)
}

func classifyTool() mcp.Tool {
	return mcp.NewTool("expression.classify",
		mcp.WithDescription("List the runtime expressions found in a string"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to classify")),
	)
}

func previewTool() mcp.Tool {
	return mcp.NewTool("criteria.preview",
		mcp.WithDescription("Evaluate a step's success criteria and outputs against a sample exchange"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Editor session ID")),
		mcp.WithString("step_id", mcp.Required(), mcp.Description("Step of the active workflow")),
		mcp.WithObject("sample", mcp.Required(), mcp.Description("Sample {url, method, statusCode, request, response, inputs, steps}")),
	)
}

func applyTool() mcp.Tool {
	return mcp.NewTool("editor.apply",
		mcp.WithDescription("Apply one editor mutation to a session"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Editor session ID")),
		mcp.WithString("kind", mcp.Required(),
			mcp.Enum("addStep", "deleteStep", "renameStep", "connect", "disconnect", "insertStepOnEdge",
				"reorder", "updateStep", "select", "moveNode", "setActiveWorkflow"),
			mcp.Description("Mutation kind"),
		),
		mcp.WithObject("payload", mcp.Description("Mutation fields, e.g. {\"from\": \"a\", \"to\": \"b\"} for renameStep")),
	)
}

func addOperationTool() mcp.Tool {
	return mcp.NewTool("editor.add_operation",
		mcp.WithDescription("Add a step calling an operation, with a default success criterion for its method"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Editor session ID")),
		mcp.WithString("operation_ref", mcp.Required(), mcp.Description("operationId of the operation to call")),
		mcp.WithString("step_id", mcp.Description("Step ID (default: generated step_N)")),
	)
}

func undoTool() mcp.Tool {
	return mcp.NewTool("editor.undo",
		mcp.WithDescription("Undo the last mutation of a session"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Editor session ID")),
	)
}

func redoTool() mcp.Tool {
	return mcp.NewTool("editor.redo",
		mcp.WithDescription("Redo the last undone mutation of a session"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Editor session ID")),
	)
}
