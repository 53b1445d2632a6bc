package detectdupes

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"unsafe"

	"github.com/google/vectorio"
	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// iovMax bounds the iovecs handed to one writev call (POSIX minimum IOV_MAX is 16, Linux allows 1024)
const iovMax = 1024

// DuplicateGroup is a canonical file together with every duplicate found for it
type DuplicateGroup struct {
	Hash      string   `json:"hash"`
	Canonical string   `json:"canonical"`
	Size      int64    `json:"size"`
	Files     []string `json:"files"` // canonical first, then duplicates in detection order
	Deleted   []string `json:"deleted,omitempty"`
	Count     int      `json:"count"`
}

// Duplicates returns the group's files without the canonical one
func (g *DuplicateGroup) Duplicates() []string {
	if len(g.Files) == 0 {
		return nil
	}
	return g.Files[1:]
}

// groupRef is what the skiplist stores; the group itself stays mutable
type groupRef struct {
	group *DuplicateGroup
}

// Report collects duplicate matches ordered by canonical path
type Report struct {
	groups  *zcsl.ZeroCopySkiplist[groupRef, string, string]
	matches int
	Stats   ScanStatistics
}

// NewReport creates an empty report
func NewReport() *Report {
	keyOf := func(ref *groupRef) string {
		return ref.group.Canonical
	}
	sizeOf := func(ref *groupRef) int {
		return len(ref.group.Files)
	}
	return &Report{
		groups: zcsl.MakeZeroCopySkiplist[groupRef, string, string](16, keyOf, sizeOf, strings.Compare),
	}
}

// Add records a match under its canonical file
func (r *Report) Add(match DuplicateMatch) {
	r.matches++

	if item, _ := r.groups.Find(match.Canonical); item != nil {
		group := item.Item().group
		group.Files = append(group.Files, match.Path)
		group.Count = len(group.Files)
		if match.Deleted {
			group.Deleted = append(group.Deleted, match.Path)
		}
		return
	}

	group := &DuplicateGroup{
		Hash:      match.Hash,
		Canonical: match.Canonical,
		Size:      match.Size,
		Files:     []string{match.Canonical, match.Path},
		Count:     2,
	}
	if match.Deleted {
		group.Deleted = []string{match.Path}
	}
	r.groups.Insert(&groupRef{group: group}, match.Hash)
}

// Len returns the number of matches added
func (r *Report) Len() int {
	return r.matches
}

// Groups returns the duplicate groups sorted by canonical path
func (r *Report) Groups() []DuplicateGroup {
	groups := make([]DuplicateGroup, 0, r.groups.Length())
	for current := r.groups.First(); current != nil; current = current.Next() {
		groups = append(groups, *current.Item().group)
	}
	return groups
}

// Render writes the report in the given format
func (r *Report) Render(w io.Writer, format string) error {
	switch format {
	case FormatHuman, "":
		return writeLines(w, r.humanLines())
	case FormatFdupes:
		return writeLines(w, r.fdupesLines())
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			Groups     []DuplicateGroup `json:"groups"`
			Statistics ScanStatistics   `json:"statistics"`
		}{
			Groups:     r.Groups(),
			Statistics: r.Stats,
		})
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// MatchLine is the human readable line for one duplicate
func MatchLine(match DuplicateMatch) string {
	line := fmt.Sprintf("%s already exists as %s [%d bytes]", match.Path, match.Canonical, match.Size)
	if match.Deleted {
		line += " (deleted)"
	}
	return line
}

func (r *Report) humanLines() [][]byte {
	var lines [][]byte
	for _, group := range r.Groups() {
		deleted := make(map[string]bool, len(group.Deleted))
		for _, path := range group.Deleted {
			deleted[path] = true
		}
		for _, path := range group.Duplicates() {
			line := MatchLine(DuplicateMatch{
				Path:      path,
				Canonical: group.Canonical,
				Size:      group.Size,
				Deleted:   deleted[path],
			})
			lines = append(lines, []byte(line+"\n"))
		}
	}
	return lines
}

// fdupesLines lists each group one file per line, groups separated by a blank line
func (r *Report) fdupesLines() [][]byte {
	var lines [][]byte
	for i, group := range r.Groups() {
		if i > 0 {
			lines = append(lines, []byte("\n"))
		}
		for _, path := range group.Files {
			lines = append(lines, []byte(path+"\n"))
		}
	}
	return lines
}

// writeLines writes lines to w; files get them through writev in iovMax chunks
func writeLines(w io.Writer, lines [][]byte) error {
	file, ok := w.(*os.File)
	if !ok {
		for _, line := range lines {
			if _, err := w.Write(line); err != nil {
				return err
			}
		}
		return nil
	}

	for offset := 0; offset < len(lines); offset += iovMax {
		end := offset + iovMax
		if end > len(lines) {
			end = len(lines)
		}
		if err := writevLines(file, lines[offset:end]); err != nil {
			return err
		}
	}
	return nil
}

func writevLines(file *os.File, lines [][]byte) error {
	iovecs := make([]syscall.Iovec, 0, len(lines))
	total := 0
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		iovec := syscall.Iovec{Base: (*byte)(unsafe.Pointer(&line[0]))}
		iovec.SetLen(len(line))
		iovecs = append(iovecs, iovec)
		total += len(line)
	}
	if len(iovecs) == 0 {
		return nil
	}

	nw, err := vectorio.WritevRaw(uintptr(file.Fd()), iovecs)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if nw == total {
		return nil
	}

	// short write (pipes, terminals): finish with plain writes
	rest := make([]byte, 0, total-nw)
	skipped := 0
	for _, line := range lines {
		if skipped+len(line) <= nw {
			skipped += len(line)
			continue
		}
		start := 0
		if skipped < nw {
			start = nw - skipped
		}
		rest = append(rest, line[start:]...)
		skipped += len(line)
	}
	if _, err := file.Write(rest); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// FormatBytes formats a byte count in human readable form
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
