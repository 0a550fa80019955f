package domain

import "strings"

// ToolCategory groups tools for analysis.
type ToolCategory string

const (
	CategoryFileOps  ToolCategory = "file_ops"
	CategoryShell    ToolCategory = "shell"
	CategoryAgent    ToolCategory = "agent"
	CategorySearch   ToolCategory = "search"
	CategoryWeb      ToolCategory = "web"
	CategoryPlanning ToolCategory = "planning"
	CategoryMCP      ToolCategory = "mcp"
	CategoryOther    ToolCategory = "other"
)

// ShellTool is the tool whose invocations are also recorded as commands.
const ShellTool = "Bash"

type prefixRule struct {
	prefix   string
	category ToolCategory
}

// prefixRules are evaluated in order before the table lookup.
var prefixRules = []prefixRule{
	{prefix: "mcp__", category: CategoryMCP},
}

var toolCategories = map[string]ToolCategory{
	"Read":           CategoryFileOps,
	"Write":          CategoryFileOps,
	"Edit":           CategoryFileOps,
	"MultiEdit":      CategoryFileOps,
	"NotebookRead":   CategoryFileOps,
	"NotebookEdit":   CategoryFileOps,
	ShellTool:        CategoryShell,
	"Task":           CategoryAgent,
	"Glob":           CategorySearch,
	"Grep":           CategorySearch,
	"LS":             CategorySearch,
	"WebFetch":       CategoryWeb,
	"WebSearch":      CategoryWeb,
	"TodoRead":       CategoryPlanning,
	"TodoWrite":      CategoryPlanning,
	"exit_plan_mode": CategoryPlanning,
}

// Categorize maps a tool name to its category.
func Categorize(toolName string) ToolCategory {
	for _, rule := range prefixRules {
		if strings.HasPrefix(toolName, rule.prefix) {
			return rule.category
		}
	}
	if c, ok := toolCategories[toolName]; ok {
		return c
	}
	return CategoryOther
}
