// Package prref extracts cross-repository pull request references from
// "Test with:" directive lines in pull request descriptions
package prref

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	orgRepoPattern = `[a-zA-Z0-9_-]+/[a-zA-Z0-9_-]+`
	idPattern      = `[0-9]+`

	// Groups: 1,2 short form; 3,4 URL form
	referencePattern = `(?:(` + orgRepoPattern + `)#(` + idPattern + `)` +
		`|https://github\.com/(` + orgRepoPattern + `)/pull/(` + idPattern + `))`

	// A list element swallows any word characters glued to the reference, so
	// "#111android" ends the element and "#114org/repo#902" ends the list
	elementPattern = `(?:` + orgRepoPattern + `#` + idPattern +
		`|https://github\.com/` + orgRepoPattern + `/pull/` + idPattern + `)[a-zA-Z0-9_]*`

	separatorPattern = `(?:,|\s|and)+`
	listPattern      = elementPattern + `(?:` + separatorPattern + elementPattern + `)*`
)

var (
	referenceRe      = regexp.MustCompile(referencePattern)
	exactReferenceRe = regexp.MustCompile(`^` + referencePattern + `$`)

	// Anchored at line start, leading whitespace or prose disqualifies the line
	directiveRe = regexp.MustCompile(`^[Tt]est with:?\s+(` + listPattern + `)`)
	lineBreakRe = regexp.MustCompile(`\r\n|\r|\n`)
)

// Reference is a pull request in another repository, normalized to "org/repo#id"
type Reference struct {
	Repo string
	ID   string
}

// String returns the canonical short form
func (r Reference) String() string {
	return r.Repo + "#" + r.ID
}

// Owner returns the organization part of the repository
func (r Reference) Owner() string {
	owner, _, _ := strings.Cut(r.Repo, "/")
	return owner
}

// Name returns the repository name without the organization
func (r Reference) Name() string {
	_, name, _ := strings.Cut(r.Repo, "/")
	return name
}

// Number converts the ID for API lookups
func (r Reference) Number() (int, error) {
	n, err := strconv.Atoi(r.ID)
	if err != nil {
		return 0, fmt.Errorf("invalid PR number %q: %w", r.ID, err)
	}
	return n, nil
}

// ParseReference parses s as exactly one reference in short or URL form
func ParseReference(s string) (Reference, bool) {
	m := exactReferenceRe.FindStringSubmatch(s)
	if m == nil {
		return Reference{}, false
	}
	return fromSubmatch(m), true
}

// FindReferences returns every reference listed on a "Test with:" line of
// text, in order and without deduplication. Text without directive lines
// yields nil
func FindReferences(text string) []Reference {
	var refs []Reference
	for _, line := range lineBreakRe.Split(text, -1) {
		m := directiveRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, sm := range referenceRe.FindAllStringSubmatch(m[1], -1) {
			refs = append(refs, fromSubmatch(sm))
		}
	}
	return refs
}

// Join renders refs as a single space-separated line
func Join(refs []Reference) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

func fromSubmatch(m []string) Reference {
	if m[1] != "" {
		return Reference{Repo: m[1], ID: m[2]}
	}
	return Reference{Repo: m[3], ID: m[4]}
}
