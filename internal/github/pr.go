package github

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knqyf263/gh-test-with/internal/prref"
	"github.com/knqyf263/gh-test-with/internal/validate"
)

// PullRequest represents a GitHub pull request
type PullRequest struct {
	Number  int     `json:"number"`
	Title   string  `json:"title"`
	State   string  `json:"state"`
	Body    *string `json:"body"`
	HTMLURL string  `json:"html_url"`
	Draft   bool    `json:"draft"`
	Merged  bool    `json:"merged"`
	Head    Branch  `json:"head"`
	Base    Branch  `json:"base"`
}

// Branch is the head or base side of a pull request
type Branch struct {
	Ref  string `json:"ref"`
	SHA  string `json:"sha"`
	Repo *Repo  `json:"repo"`
}

// Repo is the repository a branch lives in. It is null for deleted forks
type Repo struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// Status summarizes the pull request state for display
func (pr *PullRequest) Status() string {
	switch {
	case pr.Merged:
		return "merged"
	case pr.Draft && pr.State == "open":
		return "draft"
	}
	return pr.State
}

// References extracts the "Test with" references from the description
func (pr *PullRequest) References() []prref.Reference {
	if pr.Body == nil {
		return nil
	}
	return prref.FindReferences(*pr.Body)
}

// Selector identifies a single pull request
type Selector struct {
	Repo   string
	Number int
}

func (s Selector) String() string {
	return fmt.Sprintf("%s#%d", s.Repo, s.Number)
}

// ParseSelector parses a PR number, a pull request URL or an OWNER/REPO#NUMBER
// reference. Bare numbers refer to defaultRepo
func ParseSelector(selector, defaultRepo string) (Selector, error) {
	selector = strings.TrimSpace(selector)

	// Handle URL format: https://github.com/OWNER/REPO/pull/NUMBER
	if strings.Contains(selector, "://") {
		if err := validate.URL(selector); err != nil {
			return Selector{}, fmt.Errorf("invalid URL: %w", err)
		}
		ref, ok := prref.ParseReference(strings.TrimSuffix(selector, "/"))
		if !ok {
			return Selector{}, fmt.Errorf("invalid PR URL format")
		}
		return selectorFromReference(ref)
	}

	// Handle reference format: OWNER/REPO#NUMBER
	if strings.Contains(selector, "/") {
		ref, ok := prref.ParseReference(selector)
		if !ok {
			return Selector{}, fmt.Errorf("invalid PR reference %q: expected OWNER/REPO#NUMBER", selector)
		}
		return selectorFromReference(ref)
	}

	// Handle direct number, optionally written as #NUMBER
	prNumber, err := strconv.Atoi(strings.TrimPrefix(selector, "#"))
	if err != nil {
		return Selector{}, fmt.Errorf("invalid PR number format: %w", err)
	}
	if err := validate.PRNumber(prNumber); err != nil {
		return Selector{}, err
	}
	if defaultRepo == "" {
		return Selector{}, fmt.Errorf("no repository for PR #%d: use --repo or run inside a git checkout", prNumber)
	}
	if err := validate.Repository(defaultRepo); err != nil {
		return Selector{}, err
	}

	return Selector{Repo: defaultRepo, Number: prNumber}, nil
}

func selectorFromReference(ref prref.Reference) (Selector, error) {
	prNumber, err := ref.Number()
	if err != nil {
		return Selector{}, err
	}
	if err := validate.PRNumber(prNumber); err != nil {
		return Selector{}, err
	}
	if err := validate.Repository(ref.Repo); err != nil {
		return Selector{}, err
	}
	return Selector{Repo: ref.Repo, Number: prNumber}, nil
}

// FormatPRCandidate formats a PR for display in selection list
func FormatPRCandidate(pr *PullRequest) string {
	head := pr.Head.Ref
	if pr.Head.Repo != nil {
		head = pr.Head.Repo.Owner.Login + ":" + pr.Head.Ref
	}
	return fmt.Sprintf("#%d\t%s\t%s", pr.Number, pr.Title, head)
}
