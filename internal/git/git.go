package git

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrDetachedHead is returned when HEAD does not point at a branch
var ErrDetachedHead = errors.New("HEAD is detached")

// CurrentBranch returns the branch checked out in the repository at path
func CurrentBranch(path string) (string, error) {
	if err := exec.Command("git", "-C", path, "rev-parse", "--git-dir").Run(); err != nil {
		return "", fmt.Errorf("not a git repository: %s", path)
	}

	// symbolic-ref also works on an unborn branch, unlike rev-parse HEAD
	output, err := exec.Command("git", "-C", path, "symbolic-ref", "--quiet", "--short", "HEAD").Output()
	if err != nil {
		return "", ErrDetachedHead
	}
	return strings.TrimSpace(string(output)), nil
}

// Root returns the top-level directory of the working tree containing path
func Root(path string) (string, error) {
	output, err := exec.Command("git", "-C", path, "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get git root: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}
