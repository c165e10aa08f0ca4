package project_context

import (
	"strings"

	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
)

// RenderTree renders a project tree as indented text: directories first in visit order,
// then the files of the node in input order, two spaces per level.
func RenderTree(root *models.TreeNode) string {
	if root == nil {
		return ""
	}
	var builder strings.Builder
	renderNode(&builder, root, "")
	return builder.String()
}

func renderNode(builder *strings.Builder, node *models.TreeNode, indent string) {
	for _, name := range node.ChildOrder {
		child := node.Children[name]
		builder.WriteString(indent + folderIcon + " " + child.Name + "/\n")
		renderNode(builder, child, indent+"  ")
	}

	for _, file := range node.Files {
		builder.WriteString(indent + FileIcon(file.File.Extension) + " " + file.DisplayName + "\n")
	}
}
