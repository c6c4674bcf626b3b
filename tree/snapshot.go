package tree

import "path/filepath"

// View is a nested, display-oriented copy of part of the index.
type View struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Directory bool   `json:"directory"`
	Loaded    bool   `json:"loaded,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Children  []View `json:"children,omitempty"`
}

// Snapshot returns the loaded subtree under path. depth limits how many
// levels of children are included; a negative depth means no limit.
func (i *Index) Snapshot(path string, depth int) (View, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := i.get(filepath.Clean(path))
	if n == nil {
		return View{}, false
	}
	return i.view(n, depth), true
}

func (i *Index) view(n *Node, depth int) View {
	v := View{
		Path:      n.Path,
		Name:      n.Name,
		Directory: n.IsDir(),
		Loaded:    n.Loaded(),
	}
	if !n.IsDir() {
		v.Size = n.Size
	}
	if depth == 0 || !n.Loaded() {
		return v
	}
	v.Children = make([]View, 0, len(n.Children))
	for _, childPath := range n.Children {
		if child := i.get(childPath); child != nil {
			v.Children = append(v.Children, i.view(child, depth-1))
		}
	}
	return v
}
