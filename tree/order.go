package tree

import (
	"sort"

	"github.com/lexandro/notebrowser-mcp/fsprovider"
	"golang.org/x/text/cases"
)

// Less orders directories before files, then names case-insensitively. Names
// that fold to the same key fall back to a raw comparison so the order is total.
func Less(aName string, aDir bool, bName string, bDir bool) bool {
	if aDir != bDir {
		return aDir
	}
	folder := cases.Fold()
	aKey, bKey := folder.String(aName), folder.String(bName)
	if aKey != bKey {
		return aKey < bKey
	}
	return aName < bName
}

// SortEntries sorts provider entries in display order.
func SortEntries(entries []fsprovider.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Less(entries[i].Name, entries[i].IsDirectory, entries[j].Name, entries[j].IsDirectory)
	})
}
