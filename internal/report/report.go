// Package report renders extracted references for humans and scripts
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cli/go-gh/v2/pkg/jsonpretty"
	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/knqyf263/gh-test-with/internal/config"
	"github.com/knqyf263/gh-test-with/internal/github"
	"github.com/knqyf263/gh-test-with/internal/prref"
)

// Printer writes reports in one output format
type Printer struct {
	Out    io.Writer
	Format string
	IsTTY  bool
	Width  int
}

// References prints refs. The text format is a single space-separated line,
// empty when there are no references
func (p *Printer) References(refs []prref.Reference) error {
	switch p.Format {
	case config.FormatText:
		_, err := fmt.Fprintln(p.Out, prref.Join(refs))
		return err
	case config.FormatLines:
		for _, ref := range refs {
			if _, err := fmt.Fprintln(p.Out, ref); err != nil {
				return err
			}
		}
		return nil
	case config.FormatJSON:
		out := make([]string, len(refs))
		for i, ref := range refs {
			out[i] = ref.String()
		}
		return p.json(out)
	}
	return config.ValidateFormat(p.Format)
}

type resolvedJSON struct {
	Reference string `json:"reference"`
	Repo      string `json:"repository"`
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	URL       string `json:"url"`
	HeadRef   string `json:"headRef"`
	HeadSHA   string `json:"headSha"`
}

// Resolved prints references together with the pull requests they point at
func (p *Printer) Resolved(resolved []github.Resolved) error {
	switch p.Format {
	case config.FormatText, config.FormatLines:
		t := tableprinter.New(p.Out, p.IsTTY, p.Width)
		if p.IsTTY {
			t.AddHeader([]string{"REFERENCE", "STATUS", "HEAD", "TITLE"})
		}
		for _, r := range resolved {
			t.AddField(r.Reference.String())
			t.AddField(r.PullRequest.Status())
			t.AddField(headLabel(r.PullRequest))
			t.AddField(r.PullRequest.Title)
			t.EndRow()
		}
		return t.Render()
	case config.FormatJSON:
		out := make([]resolvedJSON, len(resolved))
		for i, r := range resolved {
			out[i] = resolvedJSON{
				Reference: r.Reference.String(),
				Repo:      r.Reference.Repo,
				Number:    r.PullRequest.Number,
				Title:     r.PullRequest.Title,
				Status:    r.PullRequest.Status(),
				URL:       r.PullRequest.HTMLURL,
				HeadRef:   r.PullRequest.Head.Ref,
				HeadSHA:   r.PullRequest.Head.SHA,
			}
		}
		return p.json(out)
	}
	return config.ValidateFormat(p.Format)
}

func (p *Printer) json(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return jsonpretty.Format(p.Out, bytes.NewReader(data), "  ", p.IsTTY)
}

func headLabel(pr *github.PullRequest) string {
	sha := pr.Head.SHA
	if len(sha) > 7 {
		sha = sha[:7]
	}
	if sha == "" {
		return pr.Head.Ref
	}
	return pr.Head.Ref + "@" + sha
}
