package diagram

import (
	"fmt"
	"strings"
)

// nodeTags returns the short ASCII indicators shown under a node label.
func nodeTags(node *Node) []string {
	var tags []string
	if node.Start {
		tags = append(tags, "[START]")
	}
	if node.End {
		tags = append(tags, "[END]")
	}
	if node.Selected {
		tags = append(tags, "[SEL]")
	}
	if node.Invalid > 0 {
		tags = append(tags, fmt.Sprintf("[INVALID %d]", node.Invalid))
	}
	return tags
}

// RenderASCII renders a DiagramModel as a text diagram: one row of boxes per
// level, followed by the jumps that do not follow the main line.
func RenderASCII(model *DiagramModel) string {
	var b strings.Builder

	if model.Title != "" {
		fmt.Fprintf(&b, "=== %s ===\n\n", model.Title)
	}

	for levelIdx, level := range model.Levels {
		var boxes []asciiBox
		for _, nodeID := range level {
			node := findNode(model.Nodes, nodeID)
			if node == nil {
				continue
			}
			boxes = append(boxes, makeBox(node))
		}

		renderBoxRow(&b, boxes)
		if levelIdx < len(model.Levels)-1 {
			renderConnector(&b, len(boxes))
		}
	}

	var jumps []Edge
	for _, edge := range model.Edges {
		if edge.Kind != EdgeSequential {
			jumps = append(jumps, edge)
		}
	}
	if len(jumps) > 0 {
		b.WriteString("\n--- links ---\n")
		for _, edge := range jumps {
			renderJump(&b, edge)
		}
	}

	for _, node := range model.Nodes {
		for _, wf := range node.Targets {
			fmt.Fprintf(&b, "  %s ⇒ workflow %s\n", node.ID, wf)
		}
	}
	return b.String()
}

// asciiBox holds the rendered lines of a single box.
type asciiBox struct {
	lines []string
	width int
}

// makeBox creates an ASCII box for a node.
func makeBox(node *Node) asciiBox {
	contentLines := []string{node.Label}
	if node.Detail != "" {
		contentLines = append(contentLines, node.Detail)
	}
	if tags := nodeTags(node); len(tags) > 0 {
		contentLines = append(contentLines, strings.Join(tags, " "))
	}

	maxLen := 0
	for _, line := range contentLines {
		if n := len([]rune(line)); n > maxLen {
			maxLen = n
		}
	}
	width := maxLen + 4 // 2 border + 2 padding

	lines := make([]string, 0, len(contentLines)+2)
	lines = append(lines, "┌"+strings.Repeat("─", width-2)+"┐")
	for _, content := range contentLines {
		padded := content + strings.Repeat(" ", maxLen-len([]rune(content)))
		lines = append(lines, "│ "+padded+" │")
	}
	lines = append(lines, "└"+strings.Repeat("─", width-2)+"┘")

	return asciiBox{lines: lines, width: width}
}

// renderBoxRow writes boxes side by side.
func renderBoxRow(b *strings.Builder, boxes []asciiBox) {
	maxHeight := 0
	for _, box := range boxes {
		maxHeight = max(maxHeight, len(box.lines))
	}

	for row := range maxHeight {
		for i, box := range boxes {
			if i > 0 {
				b.WriteString("  ")
			}
			if row < len(box.lines) {
				b.WriteString(box.lines[row])
			} else {
				b.WriteString(strings.Repeat(" ", box.width))
			}
		}
		b.WriteByte('\n')
	}
}

// renderConnector draws a vertical connector between levels.
func renderConnector(b *strings.Builder, boxCount int) {
	if boxCount == 0 {
		return
	}
	b.WriteString("       │\n")
	b.WriteString("       ▼\n")
}

func renderJump(b *strings.Builder, edge Edge) {
	arrow := "─→"
	switch edge.Kind {
	case EdgeFailure:
		arrow = "╌→"
	case EdgeData:
		arrow = "··→"
	}
	line := fmt.Sprintf("  %s %s %s  %s", edge.From, arrow, edge.To, edge.Kind)
	if edge.Label != "" {
		line += " " + edge.Label
	}
	if edge.Invalid {
		line += " (!)"
	}
	b.WriteString(line + "\n")
}
