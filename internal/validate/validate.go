package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	maxBranchLen = 255
	maxNameLen   = 100
	maxPRNumber  = 999999
)

var (
	// branchChars keeps branch names inert inside a query string
	branchChars = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)
	// nameChars is the owner and repository alphabet of a "Test with" reference
	nameChars = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// BranchName checks a head branch before it is matched against API results
func BranchName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("branch name cannot be empty")
	case len(name) > maxBranchLen:
		return fmt.Errorf("branch name too long")
	case !branchChars.MatchString(name):
		return fmt.Errorf("invalid branch name: contains unsafe characters")
	case strings.HasPrefix(name, "-"), strings.HasSuffix(name, "/"):
		return fmt.Errorf("invalid branch name format")
	}
	return nil
}

// RepoName checks one path segment of OWNER/REPO
func RepoName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("repository name cannot be empty")
	case len(name) > maxNameLen:
		return fmt.Errorf("repository name too long")
	case !nameChars.MatchString(name):
		return fmt.Errorf("invalid repository name %q: want letters, digits, '_' or '-'", name)
	}
	return nil
}

// Repository checks an "OWNER/REPO" full name
func Repository(fullName string) error {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || strings.Contains(name, "/") {
		return fmt.Errorf("invalid repository %q: expected OWNER/REPO", fullName)
	}
	if err := RepoName(owner); err != nil {
		return fmt.Errorf("invalid owner: %w", err)
	}
	return RepoName(name)
}

// PRNumber checks a pull request number is in the range GitHub hands out
func PRNumber(n int) error {
	if n < 1 || n > maxPRNumber {
		return fmt.Errorf("invalid PR number: %d", n)
	}
	return nil
}

// URL accepts only credential-free https://github.com URLs
func URL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	switch {
	case u.Scheme != "https":
		return fmt.Errorf("only HTTPS URLs are allowed")
	case u.User != nil:
		return fmt.Errorf("URL cannot contain credentials")
	case u.Host != "github.com":
		return fmt.Errorf("only github.com URLs are allowed")
	}
	return nil
}
