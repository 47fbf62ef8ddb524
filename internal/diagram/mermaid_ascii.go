package diagram

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RenderASCIIAuto renders with the mermaid-ascii binary in binDir when it is
// present and works, and with RenderASCII otherwise.
func RenderASCIIAuto(ctx context.Context, model *DiagramModel, binDir string) string {
	if binDir != "" {
		binPath := filepath.Join(binDir, "mermaid-ascii")
		if _, err := os.Stat(binPath); err == nil {
			if result, err := RenderASCIIViaCLI(ctx, model, binPath); err == nil {
				return result
			}
		}
	}
	return RenderASCII(model)
}

// RenderASCIIViaCLI pipes simplified Mermaid syntax through the mermaid-ascii binary.
func RenderASCIIViaCLI(ctx context.Context, model *DiagramModel, binPath string) (string, error) {
	cmd := exec.CommandContext(ctx, binPath)
	cmd.Stdin = strings.NewReader(RenderMermaidForCLI(model))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("mermaid-ascii: %w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}

// RenderMermaidForCLI generates the edge-only Mermaid subset mermaid-ascii
// can parse. Node state is folded into the node IDs, and invalid self loops
// are dropped since the tool cannot draw them.
func RenderMermaidForCLI(model *DiagramModel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "graph %s\n", direction(model))

	displayID := make(map[string]string, len(model.Nodes))
	for _, node := range model.Nodes {
		displayID[node.ID] = cliNodeID(node)
	}
	resolve := func(id string) string {
		if d, ok := displayID[id]; ok {
			return d
		}
		return mermaidSafeID(id)
	}

	for _, edge := range model.Edges {
		if edge.Invalid || edge.Kind == EdgeData {
			continue
		}
		label := ""
		if edge.Label != "" {
			label = fmt.Sprintf("|%s|", edge.Label)
		}
		fmt.Fprintf(&b, "    %s -->%s %s\n", resolve(edge.From), label, resolve(edge.To))
	}
	return b.String()
}

// cliNodeID builds a display ID for the mermaid-ascii CLI.
func cliNodeID(node *Node) string {
	id := node.Label
	if id == "" {
		id = node.ID
	}
	if node.Invalid > 0 {
		id += fmt.Sprintf("-INVALID%d", node.Invalid)
	}
	if node.Selected {
		id += "-SEL"
	}
	return strings.ReplaceAll(id, " ", "-")
}
