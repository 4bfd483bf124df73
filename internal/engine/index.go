package engine

import "sort"

// IndexEntry locates one live key's most recent Set record in the log.
type IndexEntry struct {
	Offset     int64
	FramedSize int64
}

type indexedKey struct {
	key   string
	entry IndexEntry
}

// sortedByOffset returns the index contents ordered by ascending Offset,
// the order the compactor must preserve the log in.
func sortedByOffset(index map[string]IndexEntry) []indexedKey {
	entries := make([]indexedKey, 0, len(index))
	for k, e := range index {
		entries = append(entries, indexedKey{key: k, entry: e})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].entry.Offset < entries[j].entry.Offset
	})

	return entries
}
