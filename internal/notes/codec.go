// Package notes handles the on-disk note format: extracting embeddable
// text from raw note content and recovering timestamps from the
// date-partitioned file naming convention.
package notes

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/memvault/memvault/internal/constants"
)

const headerDelimiter = "---"

var sectionHeadingPattern = regexp.MustCompile(`^##\s+(.+)$`)

// timeNamePattern matches the HH-MM-SS-<fractional> file naming convention
// used by the note writer.
var timeNamePattern = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{2})-(\d{1,3})$`)

// ExtractSearchableText normalizes raw note content into the text that gets
// embedded, and collects section labels in order of appearance.
//
// The leading header block (between a `---` line and the next `---` line) is
// stripped when present. `## Label` heading lines are collected into the
// returned section list and removed from the body. Runs of three or more
// blank lines collapse to a single blank line.
func ExtractSearchableText(raw string) (string, []string) {
	lines := strings.Split(raw, "\n")

	// Strip the header block only when the closing delimiter exists; a
	// malformed header means nothing is stripped.
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == headerDelimiter {
		for i := 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == headerDelimiter {
				lines = lines[i+1:]
				break
			}
		}
	}

	var sections []string
	body := make([]string, 0, len(lines))
	for _, line := range lines {
		if m := sectionHeadingPattern.FindStringSubmatch(line); m != nil {
			sections = append(sections, strings.TrimSpace(m[1]))
			continue
		}
		body = append(body, line)
	}

	return strings.TrimSpace(collapseBlankRuns(body)), sections
}

// collapseBlankRuns joins lines, replacing any run of 3+ blank lines with
// exactly one blank line. Runs of one or two blanks pass through untouched.
func collapseBlankRuns(lines []string) string {
	var b strings.Builder
	blanks := 0
	flush := func() {
		if blanks >= 3 {
			b.WriteString("\n")
		} else {
			for i := 0; i < blanks; i++ {
				b.WriteString("\n")
			}
		}
		blanks = 0
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blanks++
			continue
		}
		flush()
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
	}
	flush()
	return b.String()
}

// TimestampFromPath recovers a note's creation instant (millisecond epoch)
// from its date directory and time-encoded file name. The second return
// value is false when the path does not follow the naming convention;
// callers fall back to the current time.
func TimestampFromPath(notePath string) (int64, bool) {
	base := strings.TrimSuffix(filepath.Base(notePath), constants.NoteExtension)
	m := timeNamePattern.FindStringSubmatch(base)
	if m == nil {
		return 0, false
	}

	day, err := time.ParseInLocation(constants.DateDirLayout, filepath.Base(filepath.Dir(notePath)), time.Local)
	if err != nil {
		return 0, false
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	second, _ := strconv.Atoi(m[3])
	millis, _ := strconv.Atoi(m[4])
	if hour > 23 || minute > 59 || second > 59 {
		return 0, false
	}

	t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, second, millis*int(time.Millisecond), time.Local)
	return t.UnixMilli(), true
}

// NoteFileName encodes an instant into the HH-MM-SS-mmm note file name.
func NoteFileName(t time.Time) string {
	return fmt.Sprintf("%s-%03d%s", t.Format(constants.TimeNameLayout), t.Nanosecond()/int(time.Millisecond), constants.NoteExtension)
}
