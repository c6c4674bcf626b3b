// Package tags manages the tag sidecar file of a workspace: tag definitions
// plus the set of tags assigned to each file or folder.
//
// Mutations are whole-file read-modify-write. A mutex serialises this
// process's own writes, but nothing guards against another process writing
// the same file; the last writer wins.
package tags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lexandro/notebrowser-mcp/fsprovider"
	"github.com/lexandro/notebrowser-mcp/ignore"
)

// SidecarName is the tag file kept at the workspace root.
const SidecarName = ignore.TagSidecarName

// PresetColors are the suggested tag colors. The first is the default.
var PresetColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A", "#98D8C8",
	"#F7DC6F", "#BB8FCE", "#85C1E2", "#F8B88B", "#ABEBC6",
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ErrNoRoot is returned by mutations when the store is not bound to a workspace.
var ErrNoRoot = errors.New("tag store has no workspace root")

// Tag is a named, colored label.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Assignment is the set of tags on one item.
type Assignment struct {
	TagIDs []string `json:"tagIds"`
}

// File is the sidecar document.
type File struct {
	Tags  []Tag                 `json:"tags"`
	Items map[string]Assignment `json:"items"`
}

// Empty returns a file with no tags and no items.
func Empty() File {
	return File{Tags: []Tag{}, Items: map[string]Assignment{}}
}

// Store reads and writes the sidecar of the bound workspace root.
type Store struct {
	mu       sync.Mutex
	provider fsprovider.Provider
	root     string
	logger   *slog.Logger
	bus      *Bus
}

// NewStore creates a store bound to root. root may be empty until a
// workspace is opened.
func NewStore(provider fsprovider.Provider, root string, logger *slog.Logger) *Store {
	return &Store{
		provider: provider,
		root:     root,
		logger:   logger,
		bus:      NewBus(),
	}
}

// Bus returns the change notification bus.
func (s *Store) Bus() *Bus {
	return s.bus
}

// Root returns the bound workspace root.
func (s *Store) Root() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// SidecarPath returns the sidecar location for the bound root, or "".
func (s *Store) SidecarPath() string {
	return sidecarPath(s.Root())
}

// Rebind points the store at a new workspace root and notifies subscribers.
func (s *Store) Rebind(root string) {
	s.mu.Lock()
	s.root = root
	s.mu.Unlock()
	s.logger.Debug("tag store rebound", "root", root)
	s.bus.Publish()
}

// RebaseKeys moves every assignment keyed under oldRoot to the same relative
// key under newRoot. It is used after the workspace root itself was renamed,
// and reports how many items moved. Nothing is written when no key matches.
func (s *Store) RebaseKeys(ctx context.Context, oldRoot, newRoot string) (int, error) {
	oldPrefix, newPrefix := NormalizePath(oldRoot), NormalizePath(newRoot)
	if oldPrefix == newPrefix {
		return 0, nil
	}
	matching := func(f File) []string {
		var keys []string
		for key := range f.Items {
			if _, ok := cutRoot(key, oldPrefix); ok {
				keys = append(keys, key)
			}
		}
		return keys
	}
	if len(matching(s.Load(ctx))) == 0 {
		return 0, nil
	}

	moved := 0
	err := s.update(ctx, "rebaseKeys", func(f *File) error {
		for _, key := range matching(*f) {
			rest, _ := cutRoot(key, oldPrefix)
			ids := f.Items[key].TagIDs
			delete(f.Items, key)
			newKey := newPrefix + rest
			setItem(f, newKey, dedupe(append(append([]string(nil), f.Items[newKey].TagIDs...), ids...)))
			moved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("tag assignments rebased", "from", oldRoot, "to", newRoot, "items", moved)
	return moved, nil
}

// cutRoot returns the part of key after root when key is root or lies below it.
func cutRoot(key, root string) (string, bool) {
	root = strings.TrimSuffix(root, "/")
	if key == root {
		return "", true
	}
	if strings.HasPrefix(key, root+"/") {
		return key[len(root):], true
	}
	return "", false
}

// NormalizePath converts an item path to the form used as a sidecar key.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}

// Load reads the sidecar. A missing, unreadable or corrupt file yields an
// empty document; Load never fails.
func (s *Store) Load(ctx context.Context) File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save overwrites the sidecar with f and notifies subscribers.
func (s *Store) Save(ctx context.Context, f File) error {
	s.mu.Lock()
	err := s.save(ctx, normalize(f))
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.bus.Publish()
	return nil
}

// ListTags returns all tag definitions in stored order.
func (s *Store) ListTags(ctx context.Context) []Tag {
	return s.Load(ctx).Tags
}

// CreateTag adds a tag with a fresh id. An empty color selects the first preset.
func (s *Store) CreateTag(ctx context.Context, name, color string) (Tag, error) {
	const op = "createTag"
	name, color, err := validateTag(op, name, color)
	if err != nil {
		return Tag{}, err
	}
	tag := Tag{ID: uuid.NewString(), Name: name, Color: color}
	err = s.update(ctx, op, func(f *File) error {
		f.Tags = append(f.Tags, tag)
		return nil
	})
	if err != nil {
		return Tag{}, err
	}
	return tag, nil
}

// UpdateTag renames or recolors an existing tag.
func (s *Store) UpdateTag(ctx context.Context, id, name, color string) (Tag, error) {
	const op = "updateTag"
	name, color, err := validateTag(op, name, color)
	if err != nil {
		return Tag{}, err
	}
	var updated Tag
	err = s.update(ctx, op, func(f *File) error {
		for i := range f.Tags {
			if f.Tags[i].ID == id {
				f.Tags[i].Name = name
				f.Tags[i].Color = color
				updated = f.Tags[i]
				return nil
			}
		}
		return unknownTag(op, id)
	})
	if err != nil {
		return Tag{}, err
	}
	return updated, nil
}

// DeleteTag removes a tag and every assignment of it.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	const op = "deleteTag"
	return s.update(ctx, op, func(f *File) error {
		kept := f.Tags[:0]
		found := false
		for _, tag := range f.Tags {
			if tag.ID == id {
				found = true
				continue
			}
			kept = append(kept, tag)
		}
		if !found {
			return unknownTag(op, id)
		}
		f.Tags = kept
		for path, a := range f.Items {
			setItem(f, path, without(a.TagIDs, id))
		}
		return nil
	})
}

// SetAssignment replaces the tags of itemPath. Every id must exist; an empty
// set removes the item's entry.
func (s *Store) SetAssignment(ctx context.Context, itemPath string, tagIDs []string) error {
	const op = "setAssignment"
	key := NormalizePath(itemPath)
	return s.update(ctx, op, func(f *File) error {
		known := tagSet(f.Tags)
		for _, id := range tagIDs {
			if !known[id] {
				return fsprovider.NewError(op, key, fsprovider.KindInvalidPath, fmt.Errorf("unknown tag id %q", id))
			}
		}
		setItem(f, key, dedupe(tagIDs))
		return nil
	})
}

// ToggleAssignment adds tagID to itemPath, or removes it if present. It
// reports whether the tag is assigned afterwards.
func (s *Store) ToggleAssignment(ctx context.Context, itemPath, tagID string) (bool, error) {
	const op = "toggleAssignment"
	key := NormalizePath(itemPath)
	assigned := false
	err := s.update(ctx, op, func(f *File) error {
		if !tagSet(f.Tags)[tagID] {
			return unknownTag(op, tagID)
		}
		current := f.Items[key].TagIDs
		if slices.Contains(current, tagID) {
			setItem(f, key, without(current, tagID))
			return nil
		}
		assigned = true
		setItem(f, key, append(append([]string(nil), current...), tagID))
		return nil
	})
	return assigned, err
}

// ClearAssignment removes every tag from itemPath.
func (s *Store) ClearAssignment(ctx context.Context, itemPath string) error {
	key := NormalizePath(itemPath)
	return s.update(ctx, "clearAssignment", func(f *File) error {
		delete(f.Items, key)
		return nil
	})
}

// TagsFor returns the tags assigned to itemPath in definition order.
func (s *Store) TagsFor(ctx context.Context, itemPath string) []Tag {
	f := s.Load(ctx)
	assigned := f.Items[NormalizePath(itemPath)].TagIDs
	tags := []Tag{}
	for _, tag := range f.Tags {
		if slices.Contains(assigned, tag.ID) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// QueryByTags returns, sorted, every item carrying at least one of tagIDs.
// An empty filter matches nothing.
func (s *Store) QueryByTags(ctx context.Context, tagIDs []string) []string {
	paths := []string{}
	if len(tagIDs) == 0 {
		return paths
	}
	wanted := make(map[string]bool, len(tagIDs))
	for _, id := range tagIDs {
		wanted[id] = true
	}
	for path, a := range s.Load(ctx).Items {
		for _, id := range a.TagIDs {
			if wanted[id] {
				paths = append(paths, path)
				break
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// update runs fn on a freshly loaded document, persists the result and
// publishes a change event.
func (s *Store) update(ctx context.Context, op string, fn func(*File) error) error {
	s.mu.Lock()
	if s.root == "" {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrNoRoot)
	}
	f := s.load(ctx)
	if err := fn(&f); err != nil {
		s.mu.Unlock()
		return err
	}
	err := s.save(ctx, f)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.bus.Publish()
	return nil
}

func (s *Store) load(ctx context.Context) File {
	path := sidecarPath(s.root)
	if path == "" || !s.provider.Exists(ctx, path) {
		return Empty()
	}

	content, err := s.provider.ReadFile(ctx, path)
	if err != nil {
		s.logger.Warn("cannot read tag file, using empty store", "path", path, "error", err)
		return Empty()
	}
	var f File
	if err := json.Unmarshal(content.Data, &f); err != nil {
		parseErr := fsprovider.NewError("loadTags", path, fsprovider.KindParseError, err)
		s.logger.Warn("corrupt tag file, using empty store", "error", parseErr)
		return Empty()
	}
	return normalize(f)
}

func (s *Store) save(ctx context.Context, f File) error {
	path := sidecarPath(s.root)
	if path == "" {
		return ErrNoRoot
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tag file: %w", err)
	}
	return s.provider.WriteFile(ctx, path, string(data))
}

// normalize fixes keys to forward slashes, drops empty assignments and
// references to tags that do not exist.
func normalize(f File) File {
	out := Empty()
	if f.Tags != nil {
		out.Tags = f.Tags
	}
	known := tagSet(out.Tags)
	for path, a := range f.Items {
		var ids []string
		for _, id := range a.TagIDs {
			if known[id] {
				ids = append(ids, id)
			}
		}
		key := NormalizePath(path)
		setItem(&out, key, dedupe(append(out.Items[key].TagIDs, ids...)))
	}
	return out
}

func validateTag(op, name, color string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fsprovider.NewError(op, "", fsprovider.KindInvalidPath, errors.New("tag name is empty"))
	}
	if color == "" {
		color = PresetColors[0]
	}
	if !colorPattern.MatchString(color) {
		return "", "", fsprovider.NewError(op, "", fsprovider.KindInvalidPath, fmt.Errorf("color %q is not #rrggbb", color))
	}
	return name, color, nil
}

func unknownTag(op, id string) error {
	return fsprovider.NewError(op, id, fsprovider.KindNotFound, fmt.Errorf("unknown tag id %q", id))
}

func sidecarPath(root string) string {
	if root == "" {
		return ""
	}
	return filepath.Join(root, SidecarName)
}

func setItem(f *File, key string, ids []string) {
	if len(ids) == 0 {
		delete(f.Items, key)
		return
	}
	f.Items[key] = Assignment{TagIDs: ids}
}

func tagSet(tags []Tag) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		set[tag.ID] = true
	}
	return set
}

func without(ids []string, id string) []string {
	var out []string
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
