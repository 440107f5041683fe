package auditors

import (
	"fmt"
	"strings"
)

const (
	toolAutoStringConstant         = "auto"
	toolNpmStringConstant          = "npm"
	toolYarnStringConstant         = "yarn"
	toolPnpmStringConstant         = "pnpm"
	unknownToolMessageTemplate     = "unsupported package manager %q (expected auto, npm, yarn, or pnpm)"
	toolNameSeparatorConstant      = ", "
	unknownToolNameDisplayConstant = "unknown"
)

// Tool identifies a dependency-management tool able to audit a project.
type Tool string

// Supported tools.
const (
	ToolAuto Tool = Tool(toolAutoStringConstant)
	ToolNpm  Tool = Tool(toolNpmStringConstant)
	ToolYarn Tool = Tool(toolYarnStringConstant)
	ToolPnpm Tool = Tool(toolPnpmStringConstant)
)

// SupportedTools lists the concrete tools with an adapter.
func SupportedTools() []Tool {
	return []Tool{ToolNpm, ToolYarn, ToolPnpm}
}

// String returns the tool name.
func (tool Tool) String() string {
	if len(tool) == 0 {
		return unknownToolNameDisplayConstant
	}
	return string(tool)
}

// ParseTool resolves a configured tool name. An empty value means auto-detection.
func ParseTool(raw string) (Tool, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "", toolAutoStringConstant:
		return ToolAuto, nil
	case toolNpmStringConstant:
		return ToolNpm, nil
	case toolYarnStringConstant:
		return ToolYarn, nil
	case toolPnpmStringConstant:
		return ToolPnpm, nil
	default:
		return "", ConfigurationError{Message: fmt.Sprintf(unknownToolMessageTemplate, raw)}
	}
}

func formatToolNames(tools []Tool) string {
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.String())
	}
	return strings.Join(names, toolNameSeparatorConstant)
}
