// Package tree derives a hierarchical project tree from the flat
// path-keyed file list of the dual store.
package tree

import (
	"sort"
	"strings"

	"github.com/dipcp/dipcp/internal/model"
	"github.com/dipcp/dipcp/internal/names"
)

// Node is one entry of the derived project tree.
type Node struct {
	Name     string
	Path     string // repository-relative, no trailing slash
	IsDir    bool
	IsLocal  bool // true if this file, or any descendant, is a workspace edit
	Children []*Node
}

// Child returns the direct child with the given name, if any.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Build derives the project tree from a flat record list. Directories
// may appear as explicit trailing-slash records or are synthesized when
// a file path implies them. Records under the deletion-tombstone
// namespace are ignored. The returned root node has an empty path.
func Build(records []*model.FileRecord) *Node {
	root := &Node{IsDir: true}
	index := map[string]*Node{"": root}

	// Parents must exist before children are attached
	sorted := make([]*model.FileRecord, 0, len(records))
	for _, rec := range records {
		if rec.Path == "" || names.IsDeletionKey(rec.Path) {
			continue
		}
		sorted = append(sorted, rec)
	}
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := depth(sorted[i].Path), depth(sorted[j].Path)
		if di != dj {
			return di < dj
		}
		return sorted[i].Path < sorted[j].Path
	})

	for _, rec := range sorted {
		path := strings.TrimSuffix(rec.Path, "/")
		parent := ensureDir(index, parentPath(path))

		if node, ok := index[path]; ok {
			// Explicit record for an already-synthesized directory
			node.IsLocal = node.IsLocal || rec.IsLocal
			continue
		}

		node := &Node{
			Name:    baseName(path),
			Path:    path,
			IsDir:   rec.IsDir(),
			IsLocal: rec.IsLocal,
		}
		parent.Children = append(parent.Children, node)
		if node.IsDir {
			index[path] = node
		}
	}

	propagateLocal(root)
	sortChildren(root)
	return root
}

// ensureDir returns the directory node for path, synthesizing it and
// any missing ancestors.
func ensureDir(index map[string]*Node, path string) *Node {
	if node, ok := index[path]; ok {
		return node
	}

	parent := ensureDir(index, parentPath(path))
	node := &Node{
		Name:  baseName(path),
		Path:  path,
		IsDir: true,
	}
	parent.Children = append(parent.Children, node)
	index[path] = node
	return node
}

// propagateLocal marks a directory local when any descendant is.
func propagateLocal(n *Node) bool {
	for _, c := range n.Children {
		if propagateLocal(c) {
			n.IsLocal = true
		}
	}
	return n.IsLocal
}

// sortChildren orders directories ahead of files, then by name.
func sortChildren(n *Node) {
	sort.Slice(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
	for _, c := range n.Children {
		sortChildren(c)
	}
}

func depth(path string) int {
	return strings.Count(strings.TrimSuffix(path, "/"), "/")
}

func parentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func baseName(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
