// Package tree keeps a lazily loaded view of a workspace directory. Nodes
// live in a radix tree keyed by path; directories reference their children by
// path, which lets a rename move a whole subtree by rewriting key prefixes.
package tree

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/armon/go-radix"
	"github.com/lexandro/notebrowser-mcp/fsprovider"
)

// Kind distinguishes directories from files.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Node is a single entry of the index. For directories, Children is nil
// until the directory has been loaded and non-nil (possibly empty) after.
type Node struct {
	Path     string
	Name     string
	Kind     Kind
	Children []string
	Loading  bool
	Size     int64
	ModTime  time.Time
}

// IsDir reports whether the node is a directory.
func (n Node) IsDir() bool { return n.Kind == KindDirectory }

// Loaded reports whether a directory's children have been read.
func (n Node) Loaded() bool { return n.Kind == KindDirectory && n.Children != nil }

func (n *Node) clone() Node {
	c := *n
	if n.Children != nil {
		c.Children = append(make([]string, 0, len(n.Children)), n.Children...)
	}
	return c
}

// Index is the in-memory directory tree of one workspace.
// All methods are safe for concurrent use; provider I/O runs outside the lock.
type Index struct {
	mu       sync.Mutex
	provider fsprovider.Provider
	root     string
	nodes    *radix.Tree
}

// LoadRoot reads one level of path and returns an index rooted there.
func LoadRoot(ctx context.Context, provider fsprovider.Provider, path string) (*Index, error) {
	path = filepath.Clean(path)
	if provider.Exists(ctx, path) && !provider.IsDirectory(ctx, path) {
		return nil, fsprovider.NewError("loadRoot", path, fsprovider.KindInvalidPath, os.ErrInvalid)
	}

	entries, err := provider.ReadDirectory(ctx, path)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		provider: provider,
		root:     path,
		nodes:    radix.New(),
	}
	root := &Node{
		Path: path,
		Name: filepath.Base(path),
		Kind: KindDirectory,
	}
	idx.nodes.Insert(path, root)
	idx.merge(root, entries)
	return idx, nil
}

// RootPath returns the absolute path of the workspace root.
func (i *Index) RootPath() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.root
}

// Len returns the number of nodes currently held, the root included.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.nodes.Len()
}

// Node returns a copy of the node at path.
func (i *Index) Node(path string) (Node, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := i.get(filepath.Clean(path))
	if n == nil {
		return Node{}, false
	}
	return n.clone(), true
}

// IsLoaded reports whether path is a directory whose children are in the index.
func (i *Index) IsLoaded(path string) bool {
	n, ok := i.Node(path)
	return ok && n.Loaded()
}

// Children returns copies of the children of path in display order. The
// boolean is false when path is unknown or not loaded.
func (i *Index) Children(path string) ([]Node, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := i.get(filepath.Clean(path))
	if n == nil || !n.Loaded() {
		return nil, false
	}
	children := make([]Node, 0, len(n.Children))
	for _, childPath := range n.Children {
		if child := i.get(childPath); child != nil {
			children = append(children, child.clone())
		}
	}
	return children, true
}

// Expand loads the children of a directory. It is a no-op when the directory
// is already loaded or another caller is loading it.
func (i *Index) Expand(ctx context.Context, path string) error {
	const op = "expand"
	path = filepath.Clean(path)

	i.mu.Lock()
	n := i.get(path)
	if n == nil {
		i.mu.Unlock()
		return fsprovider.NewError(op, path, fsprovider.KindNotFound, os.ErrNotExist)
	}
	if n.Kind != KindDirectory {
		i.mu.Unlock()
		return fsprovider.NewError(op, path, fsprovider.KindInvalidPath, os.ErrInvalid)
	}
	if n.Loading || n.Children != nil {
		i.mu.Unlock()
		return nil
	}
	n.Loading = true
	i.mu.Unlock()

	entries, err := i.provider.ReadDirectory(ctx, path)

	i.mu.Lock()
	defer i.mu.Unlock()
	n.Loading = false
	if err != nil {
		return err
	}
	// The node may have been removed or re-keyed while the read was in flight.
	if i.get(path) != n {
		return nil
	}
	i.merge(n, entries)
	return nil
}

// Reload re-reads a loaded directory and merges the result, keeping the
// subtrees of children that are still present. Unloaded directories stay
// unloaded.
func (i *Index) Reload(ctx context.Context, path string) error {
	const op = "reload"
	path = filepath.Clean(path)

	i.mu.Lock()
	n := i.get(path)
	if n == nil {
		i.mu.Unlock()
		return fsprovider.NewError(op, path, fsprovider.KindNotFound, os.ErrNotExist)
	}
	if !n.Loaded() {
		i.mu.Unlock()
		return nil
	}
	i.mu.Unlock()

	entries, err := i.provider.ReadDirectory(ctx, path)
	if err != nil {
		if fsprovider.KindOf(err) == fsprovider.KindNotFound && path != i.RootPath() {
			i.Remove(path)
		}
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.get(path) != n || !n.Loaded() {
		return nil
	}
	i.merge(n, entries)
	return nil
}

// Invalidate marks a directory unloaded and drops its descendants.
func (i *Index) Invalidate(path string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := i.get(filepath.Clean(path))
	if n == nil || n.Kind != KindDirectory {
		return
	}
	i.nodes.DeletePrefix(subtreePrefix(n.Path))
	i.nodes.Insert(n.Path, n)
	n.Children = nil
}

// Remove deletes a node and its subtree, unlinking it from its parent.
// The root cannot be removed.
func (i *Index) Remove(path string) {
	path = filepath.Clean(path)
	i.mu.Lock()
	defer i.mu.Unlock()
	if path == i.root {
		return
	}
	i.removeLocked(path)
}

// Rekey moves the node at oldPath, with its loaded descendants, to newPath.
// If the new parent is not loaded the subtree is dropped instead, since it
// would be unreachable.
func (i *Index) Rekey(oldPath, newPath string) error {
	const op = "rekey"
	oldPath, newPath = filepath.Clean(oldPath), filepath.Clean(newPath)

	i.mu.Lock()
	defer i.mu.Unlock()

	n := i.get(oldPath)
	if n == nil {
		return fsprovider.NewError(op, oldPath, fsprovider.KindNotFound, os.ErrNotExist)
	}
	if oldPath == i.root {
		return fsprovider.NewError(op, oldPath, fsprovider.KindInvalidPath, os.ErrInvalid)
	}
	if oldPath == newPath {
		return nil
	}
	if strings.HasPrefix(newPath, subtreePrefix(oldPath)) {
		return fsprovider.NewError(op, newPath, fsprovider.KindInvalidPath, os.ErrInvalid)
	}

	moved := map[string]*Node{oldPath: n}
	i.nodes.WalkPrefix(subtreePrefix(oldPath), func(key string, v interface{}) bool {
		moved[key] = v.(*Node)
		return false
	})
	i.removeLocked(oldPath)

	newParent := i.get(filepath.Dir(newPath))
	if newParent == nil || !newParent.Loaded() {
		return nil
	}
	if i.get(newPath) != nil {
		i.removeLocked(newPath)
	}

	for key, node := range moved {
		node.Path = newPath + strings.TrimPrefix(key, oldPath)
		for j, child := range node.Children {
			node.Children[j] = newPath + strings.TrimPrefix(child, oldPath)
		}
		i.nodes.Insert(node.Path, node)
	}
	n.Name = filepath.Base(newPath)
	newParent.Children = append(newParent.Children, newPath)
	i.sortChildren(newParent)
	return nil
}

// LoadedDirectories lists the paths of all loaded directories in key order.
func (i *Index) LoadedDirectories() []string {
	var dirs []string
	i.Walk(func(n Node) bool {
		if n.Loaded() {
			dirs = append(dirs, n.Path)
		}
		return true
	})
	return dirs
}

// Walk calls fn for each node in key order until fn returns false.
// fn receives copies and may call back into the index.
func (i *Index) Walk(fn func(Node) bool) {
	i.mu.Lock()
	nodes := make([]Node, 0, i.nodes.Len())
	i.nodes.Walk(func(_ string, v interface{}) bool {
		nodes = append(nodes, v.(*Node).clone())
		return false
	})
	i.mu.Unlock()

	for _, n := range nodes {
		if !fn(n) {
			return
		}
	}
}

func (i *Index) get(path string) *Node {
	v, ok := i.nodes.Get(path)
	if !ok {
		return nil
	}
	return v.(*Node)
}

func (i *Index) removeLocked(path string) {
	n := i.get(path)
	if n == nil {
		return
	}
	i.nodes.DeletePrefix(subtreePrefix(path))
	i.nodes.Delete(path)

	if parent := i.get(filepath.Dir(path)); parent != nil && parent.Children != nil {
		kept := parent.Children[:0]
		for _, child := range parent.Children {
			if child != path {
				kept = append(kept, child)
			}
		}
		parent.Children = kept
	}
}

// merge replaces the children of n with entries. Children present before and
// after keep their node, and with it their loaded subtree.
func (i *Index) merge(n *Node, entries []fsprovider.Entry) {
	SortEntries(entries)

	next := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		childPath := filepath.Join(n.Path, e.Name)
		kind := KindFile
		if e.IsDirectory {
			kind = KindDirectory
		}

		if existing := i.get(childPath); existing != nil && existing.Kind == kind {
			existing.Size = e.Size
			existing.ModTime = e.ModTime
		} else {
			if existing != nil {
				i.nodes.DeletePrefix(subtreePrefix(childPath))
			}
			i.nodes.Insert(childPath, &Node{
				Path:    childPath,
				Name:    e.Name,
				Kind:    kind,
				Size:    e.Size,
				ModTime: e.ModTime,
			})
		}
		next = append(next, childPath)
		seen[childPath] = true
	}

	for _, old := range n.Children {
		if !seen[old] {
			i.nodes.DeletePrefix(subtreePrefix(old))
			i.nodes.Delete(old)
		}
	}
	n.Children = next
}

func (i *Index) sortChildren(n *Node) {
	sort.SliceStable(n.Children, func(a, b int) bool {
		na, nb := i.get(n.Children[a]), i.get(n.Children[b])
		if na == nil || nb == nil {
			return na != nil
		}
		return Less(na.Name, na.IsDir(), nb.Name, nb.IsDir())
	})
}

// subtreePrefix is the key prefix shared by every descendant of path.
func subtreePrefix(path string) string {
	sep := string(filepath.Separator)
	if strings.HasSuffix(path, sep) {
		return path
	}
	return path + sep
}
