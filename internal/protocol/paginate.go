package protocol

// Per-page hints, pre-computed from the worst-case serialized size of one
// item after field truncation so that every page envelope stays within
// MaxEnvelopeBytes. Song records carry more fields than playlist summaries,
// so each entity kind gets its own hint.
const (
	PlaylistsPerPage = 4
	ArtistsPerPage   = 4
	AlbumsPerPage    = 3
	SongsPerPage     = 2
)

// Text field caps applied before pagination measurement. Unbounded
// user-supplied strings would otherwise defeat the per-page hints.
const (
	MaxTitleRunes = 30
	MaxNameRunes  = 24
)

// Page is one bounded slice of a larger result set.
type Page[T any] struct {
	Items      []T
	Page       int // 1-based
	TotalPages int
}

// Paginate splits items into pages of at most perPage entries. An empty
// input yields exactly one page with an empty item list, never zero pages,
// so a receiver can tell "answered with nothing" from "no answer received".
func Paginate[T any](items []T, perPage int) []Page[T] {
	if perPage < 1 {
		perPage = 1
	}
	if len(items) == 0 {
		return []Page[T]{{Items: []T{}, Page: 1, TotalPages: 1}}
	}

	total := (len(items) + perPage - 1) / perPage
	pages := make([]Page[T], 0, total)
	for start := 0; start < len(items); start += perPage {
		end := min(start+perPage, len(items))
		pages = append(pages, Page[T]{
			Items:      items[start:end],
			Page:       len(pages) + 1,
			TotalPages: total,
		})
	}
	return pages
}

// TruncateField cuts s to at most max runes. Splitting is rune-safe; a cap
// mid-character would corrupt the UTF-8 text on the wire.
func TruncateField(s string, max int) string {
	if max < 1 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// TruncateTitle applies the song title cap.
func TruncateTitle(s string) string { return TruncateField(s, MaxTitleRunes) }

// TruncateName applies the artist/album/playlist name cap.
func TruncateName(s string) string { return TruncateField(s, MaxNameRunes) }
