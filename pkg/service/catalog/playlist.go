package catalog

import "strings"

// PlaylistEntry is a single playlist line pairing a display name with a
// presigned URL.
type PlaylistEntry struct {
	Name string
	URL  string
}

// GeneratePlaylist renders entries as an extended M3U document. The playlist
// is regenerated wholesale on every rebuild, never edited incrementally.
func GeneratePlaylist(entries []PlaylistEntry) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, e := range entries {
		b.WriteString("#EXTINF:-1,")
		b.WriteString(e.Name)
		b.WriteString("\n")
		b.WriteString(e.URL)
		b.WriteString("\n")
	}
	return b.String()
}
