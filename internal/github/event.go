package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/knqyf263/gh-test-with/internal/prref"
)

// ErrNotPullRequestEvent is returned when the workflow was not triggered by a pull request
var ErrNotPullRequestEvent = errors.New("not a pull request event")

// Event is the subset of the webhook payload at GITHUB_EVENT_PATH that
// pull_request and pull_request_target workflows receive
type Event struct {
	Action      string       `json:"action"`
	Number      int          `json:"number"`
	PullRequest *PullRequest `json:"pull_request"`
	Repository  struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// LoadEvent reads a webhook payload. Payloads without a pull request are
// rejected with ErrNotPullRequestEvent
func LoadEvent(path string) (*Event, error) {
	if path == "" {
		return nil, fmt.Errorf("no event payload: GITHUB_EVENT_PATH is not set")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}
	if event.PullRequest == nil {
		return nil, fmt.Errorf("%w: payload has no pull_request", ErrNotPullRequestEvent)
	}
	if event.Number == 0 {
		event.Number = event.PullRequest.Number
	}
	return &event, nil
}

// Selector identifies the pull request the event is about. fallbackRepo is
// used when the payload omits the repository
func (e *Event) Selector(fallbackRepo string) Selector {
	repo := e.Repository.FullName
	if repo == "" && e.PullRequest.Base.Repo != nil {
		repo = e.PullRequest.Base.Repo.FullName
	}
	if repo == "" {
		repo = fallbackRepo
	}
	return Selector{Repo: repo, Number: e.Number}
}

// References extracts references from the description as it was when the event fired
func (e *Event) References() []prref.Reference {
	return e.PullRequest.References()
}
