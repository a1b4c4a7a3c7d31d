package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/tree"

	ftree "github.com/dipcp/dipcp/internal/tree"
)

// RenderFileTree renders a project file tree rooted at root.
// Example output:
//
//	acme/content
//	├─ docs/
//	│  ├─ guide.md
//	│  ╰─ intro.md [local]
//	╰─ README.md
func RenderFileTree(title string, root *ftree.Node) string {
	if root == nil || len(root.Children) == 0 {
		return TreeRootStyle.Render(title) + "\n" + Dim("  No files yet")
	}

	t := tree.Root(TreeRootStyle.Render(title))
	for _, child := range root.Children {
		addNode(t, child)
	}

	t.Enumerator(roundedEnumerator()).
		EnumeratorStyle(TreeEnumeratorStyle).
		Indenter(treeIndenter())

	return t.String()
}

func addNode(parent *tree.Tree, node *ftree.Node) {
	if node.IsDir {
		dir := tree.Root(formatNodeLabel(node))
		for _, child := range node.Children {
			addNode(dir, child)
		}
		parent.Child(dir)
		return
	}
	parent.Child(formatNodeLabel(node))
}

// formatNodeLabel labels a tree entry, marking locally edited files
func formatNodeLabel(node *ftree.Node) string {
	name := node.Name
	if node.IsDir {
		name += "/"
	}
	if node.IsLocal {
		return TreeItemStyle.Render(name) + " " + StatusLocalStyle.Render("[local]")
	}
	return TreeItemStyle.Render(name)
}

// RenderTreeSummary renders a one-line count below the tree
func RenderTreeSummary(files, dirs, local int) string {
	line := fmt.Sprintf("%d file(s), %d director(ies)", files, dirs)
	if local > 0 {
		line += fmt.Sprintf(", %d with local edits", local)
	}
	return Dim(line)
}

// roundedEnumerator returns a custom rounded enumerator for trees
func roundedEnumerator() tree.Enumerator {
	return func(children tree.Children, i int) string {
		if children.Length() == 0 {
			return ""
		}
		if i == children.Length()-1 {
			return "╰─ "
		}
		return "├─ "
	}
}

// treeIndenter returns an indenter function for trees
func treeIndenter() tree.Indenter {
	return func(children tree.Children, i int) string {
		if children.Length() == 0 {
			return ""
		}
		if i == children.Length()-1 {
			return "   "
		}
		return "│  "
	}
}
