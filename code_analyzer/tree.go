package code_analyzer

import (
	"strings"

	"github.com/meysamhadeli/patchpilot/code_analyzer/models"
	"github.com/meysamhadeli/patchpilot/utils"
)

// RootNodeName is the name of every tree root.
const RootNodeName = "Project"

const directoryType = "directory"

func newTreeNode(name, nodePath string) *models.TreeNode {
	return &models.TreeNode{
		Name:     name,
		Type:     directoryType,
		Path:     nodePath,
		Children: make(map[string]*models.TreeNode),
	}
}

// BuildTree rebuilds the directory hierarchy of files from their relative paths.
// Files without a separator in their path land on the root node.
func BuildTree(files []models.File) *models.TreeNode {
	root := newTreeNode(RootNodeName, "")

	for i := range files {
		file := &files[i]

		if !utils.HasSeparator(file.Path) {
			root.Files = append(root.Files, models.TreeFile{
				File:        file,
				DisplayName: file.Name,
				ParentPath:  "",
			})
			continue
		}

		parts := strings.Split(utils.NormalizePath(file.Path), utils.PathSeparator)
		fileName := parts[len(parts)-1]

		current := root
		currentPath := ""
		for _, dirName := range parts[:len(parts)-1] {
			if currentPath == "" {
				currentPath = dirName
			} else {
				currentPath = utils.JoinPath(currentPath, dirName)
			}

			child, ok := current.Children[dirName]
			if !ok {
				child = newTreeNode(dirName, currentPath)
				current.Children[dirName] = child
				current.ChildOrder = append(current.ChildOrder, dirName)
			}
			current = child
		}

		current.Files = append(current.Files, models.TreeFile{
			File:        file,
			DisplayName: fileName,
			ParentPath:  currentPath,
		})
	}

	return root
}

// CountTreeFiles returns the number of file entries held by node and all its descendants.
func CountTreeFiles(node *models.TreeNode) int {
	if node == nil {
		return 0
	}
	total := len(node.Files)
	for _, child := range node.Children {
		total += CountTreeFiles(child)
	}
	return total
}
