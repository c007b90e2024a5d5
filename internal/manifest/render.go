package manifest

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// String renders the manifest as a human-readable table dump. Diagnostic
// only; protocol logic never consults this output.
func (m *Manifest) String() string {
	var b strings.Builder

	maxPathLen := 6
	for _, f := range m.FileTable {
		if len(f.RelPath) > maxPathLen {
			maxPathLen = len(f.RelPath)
		}
	}

	fmt.Fprintf(&b, "MANIFEST VERSION: %s\n", m.Version)
	fmt.Fprintln(&b, "FILE TABLE")
	writeTableHeader(&b, []column{
		{"idx", 12}, {"size", 12}, {"hash", 66}, {"path", maxPathLen},
	})
	for idx, f := range m.FileTable {
		fmt.Fprintf(&b, " %10d | %10d | %-64s | %s\n",
			idx, f.SizeBytes, hex.EncodeToString(f.Hash[:]), f.RelPath)
	}
	fmt.Fprintln(&b, "CHUNK TABLE")
	writeTableHeader(&b, []column{
		{"idx", 12}, {"file_idx", 12}, {"offset", 12}, {"size", 12}, {"hash", 66},
	})
	for idx, c := range m.ChunkTable {
		fmt.Fprintf(&b, " %10d | %10d | %10d | %10d | %s\n",
			idx, c.FileIndex, c.Offset, c.SizeBytes, hex.EncodeToString(c.Hash[:]))
	}
	return b.String()
}

type column struct {
	name  string
	width int
}

func writeTableHeader(b *strings.Builder, columns []column) {
	for i, col := range columns {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(center(col.name, col.width))
	}
	b.WriteByte('\n')
	for i, col := range columns {
		if i > 0 {
			b.WriteByte('+')
		}
		b.WriteString(strings.Repeat("-", col.width))
	}
	b.WriteByte('\n')
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}
