package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxSlugLength = 60

// Slugify lowercases s, collapses non-alphanumeric runs to single hyphens,
// trims leading/trailing hyphens and caps the length.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	return slug
}

// FallbackTitle synthesizes an archive title from a timestamp, used when no
// summary is known for the session.
func FallbackTitle(now time.Time) string {
	return "session " + now.Format("2006-01-02 15:04")
}

// WriteArchive writes turns as a dated, title-derived markdown file under
// dir and returns the written path.
func WriteArchive(dir, title string, turns []Turn, now time.Time) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("no turns to archive")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	slug := Slugify(title)
	if slug == "" {
		slug = Slugify(FallbackTitle(now))
	}
	name := fmt.Sprintf("%s-%s.md", now.Format("2006-01-02"), slug)
	path := filepath.Join(dir, name)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\nArchived %s\n", title, now.Format(time.RFC3339))
	for _, turn := range turns {
		role := "User"
		if turn.Role == "assistant" {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", role, turn.Text)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	return path, nil
}
