// Package service holds small stateless domain services shared by the
// pipeline: remote folder naming and credential parsing.
package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// placeholderName substitutes an empty suspect name so a case never produces
// an ambiguous remote path.
const placeholderName = "unknown-suspect"

const maxNameLength = 80

// FolderNamer produces remote case folder names of the form
// {sanitized-suspect}_{YYYY-MM-DD}.
type FolderNamer struct {
	sanitizer *regexp.Regexp
}

func NewFolderNamer() *FolderNamer {
	return &FolderNamer{
		sanitizer: regexp.MustCompile(`[^a-zA-Z0-9_-]`),
	}
}

// Name builds the folder name for a case processed on the given date.
func (n *FolderNamer) Name(suspect string, date time.Time) string {
	sanitized := n.sanitize(suspect)
	if sanitized == "" {
		sanitized = placeholderName
	}
	return fmt.Sprintf("%s_%s", sanitized, date.Format("2006-01-02"))
}

func (n *FolderNamer) sanitize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = n.sanitizer.ReplaceAllString(name, "")
	name = strings.Trim(name, "_")
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return name
}
