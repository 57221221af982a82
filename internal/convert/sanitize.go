package convert

import "regexp"

var invalidFilenameRe = regexp.MustCompile(`['<>:"/\\|?*` + "\x00-\x1f" + `]`)

// SanitizeFilename replaces characters that are invalid or awkward in file
// names across platforms with "-". Applied to note titles before they become
// output file and attachment folder names.
func SanitizeFilename(name string) string {
	return invalidFilenameRe.ReplaceAllString(name, "-")
}
