// Package ghcontext describes where a run comes from: the GitHub Actions
// environment when present, the local git checkout otherwise.
package ghcontext

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	lqerrors "github.com/fakeyudi/luaqa/internal/errors"
	"github.com/fakeyudi/luaqa/internal/status"
)

const defaultServerURL = "https://github.com"

// Context is the subset of the GitHub Actions context used in reports.
type Context struct {
	ServerURL string `json:"serverUrl"`
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	SHA       string `json:"sha"`
	Ref       string `json:"ref"`
	Actor     string `json:"actor"`
	Workflow  string `json:"workflow"`
	Job       string `json:"job"`
	RunID     string `json:"runId"`
	EventName string `json:"eventName"`
	PRNumber  int    `json:"prNumber,omitempty"`
}

// LookupFunc returns the value of an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv reads the GITHUB_* variables. The pull request number comes from
// the event payload at GITHUB_EVENT_PATH.
func FromEnv(lookup LookupFunc) (Context, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(k string) string {
		v, _ := lookup(k)
		return strings.TrimSpace(v)
	}

	c := Context{
		ServerURL: get("GITHUB_SERVER_URL"),
		SHA:       get("GITHUB_SHA"),
		Ref:       get("GITHUB_REF"),
		Actor:     get("GITHUB_ACTOR"),
		Workflow:  get("GITHUB_WORKFLOW"),
		Job:       get("GITHUB_JOB"),
		RunID:     get("GITHUB_RUN_ID"),
		EventName: get("GITHUB_EVENT_NAME"),
	}
	if c.ServerURL == "" {
		c.ServerURL = defaultServerURL
	}
	if owner, repo, ok := strings.Cut(get("GITHUB_REPOSITORY"), "/"); ok {
		c.Owner, c.Repo = owner, repo
	}
	if path := get("GITHUB_EVENT_PATH"); path != "" {
		n, err := prNumber(path)
		if err != nil {
			return c, err
		}
		c.PRNumber = n
	}
	return c, nil
}

func prNumber(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, lqerrors.WithStackTrace(err)
	}
	var event struct {
		Number      int `json:"number"`
		PullRequest struct {
			Number int `json:"number"`
		} `json:"pull_request"`
		Issue struct {
			Number int `json:"number"`
		} `json:"issue"`
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return 0, lqerrors.WithStackTraceAndPrefix(err, "failed to parse event payload %s", path)
	}
	for _, n := range []int{event.Issue.Number, event.PullRequest.Number, event.Number} {
		if n > 0 {
			return n, nil
		}
	}
	return 0, nil
}

// GitRunner executes a git command and returns its output.
// This abstraction allows mocking in tests.
type GitRunner func(workDir string, args ...string) (string, error)

// defaultGitRunner runs git as a real subprocess.
func defaultGitRunner(workDir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = workDir
	out, err := cmd.Output()
	return string(out), err
}

// FillFromGit completes the fields the environment left empty from the git
// checkout in workDir. Outside a repository it returns a warning and leaves c
// unchanged.
func (c *Context) FillFromGit(workDir string, runner GitRunner) ([]string, error) {
	if runner == nil {
		runner = defaultGitRunner
	}

	head, err := runner(workDir, "rev-parse", "HEAD")
	if err != nil {
		if isExitCode128(err) {
			return []string{"not a git repository"}, nil
		}
		return nil, err
	}
	if c.SHA == "" {
		c.SHA = strings.TrimSpace(head)
	}

	if c.Ref == "" {
		branch, err := runner(workDir, "rev-parse", "--abbrev-ref", "HEAD")
		if err != nil {
			return nil, err
		}
		if b := strings.TrimSpace(branch); b != "" && b != "HEAD" {
			c.Ref = "refs/heads/" + b
		}
	}

	var warnings []string
	if c.Owner == "" || c.Repo == "" {
		remote, err := runner(workDir, "config", "--get", "remote.origin.url")
		if err != nil {
			warnings = append(warnings, "no origin remote")
		} else if owner, repo, ok := parseRemote(remote); ok {
			c.Owner, c.Repo = owner, repo
		}
	}

	if c.Actor == "" {
		if name, err := runner(workDir, "config", "user.name"); err == nil {
			c.Actor = strings.TrimSpace(name)
		}
	}
	if c.EventName == "" {
		c.EventName = "push"
	}
	return warnings, nil
}

// parseRemote extracts owner and repository from an scp-like or URL remote.
func parseRemote(remote string) (string, string, bool) {
	remote = strings.TrimSuffix(strings.TrimSpace(remote), ".git")
	if i := strings.Index(remote, "://"); i >= 0 {
		remote = remote[i+3:]
		_, remote, _ = strings.Cut(remote, "/")
	} else if _, path, ok := strings.Cut(remote, ":"); ok {
		remote = path
	}
	parts := strings.Split(strings.Trim(remote, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", false
	}
	return parts[len(parts)-2], parts[len(parts)-1], true
}

// isExitCode128 reports whether err is an *exec.ExitError with exit code 128.
func isExitCode128(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == 128
	}
	return false
}

// Load reads the environment and, when not running in GitHub Actions, fills
// the gaps from git.
func Load(workDir string, lookup LookupFunc, runner GitRunner) (Context, []string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	c, err := FromEnv(lookup)
	if err != nil {
		return c, nil, err
	}
	if v, _ := lookup("GITHUB_ACTIONS"); v == "true" {
		return c, nil, nil
	}
	warnings, err := c.FillFromGit(workDir, runner)
	return c, warnings, err
}

// BranchName is the branch of a refs/heads ref, empty otherwise.
func (c Context) BranchName() string {
	b, ok := strings.CutPrefix(c.Ref, "refs/heads/")
	if !ok {
		return ""
	}
	return b
}

// ShortSHA is the first seven characters of the commit.
func (c Context) ShortSHA() string {
	if len(c.SHA) > 7 {
		return c.SHA[:7]
	}
	return c.SHA
}

func (c Context) RepoURL() string   { return fmt.Sprintf("%s/%s/%s", c.ServerURL, c.Owner, c.Repo) }
func (c Context) CommitURL() string { return c.RepoURL() + "/commit/" + c.SHA }
func (c Context) ActorURL() string  { return c.ServerURL + "/" + c.Actor }
func (c Context) RunURL() string    { return c.RepoURL() + "/actions/runs/" + c.RunID }

// PRURL is the pull request URL for pull_request events, empty otherwise.
func (c Context) PRURL() string {
	if c.EventName != "pull_request" || c.PRNumber <= 0 {
		return ""
	}
	return c.RepoURL() + "/pull/" + strconv.Itoa(c.PRNumber)
}

func (c Context) repoText() string {
	text := fmt.Sprintf("<%s|%s/%s>", c.RepoURL(), c.Owner, c.Repo)
	switch c.EventName {
	case "pull_request":
		if u := c.PRURL(); u != "" {
			text += fmt.Sprintf("#<%s|%d>", u, c.PRNumber)
		}
	case "push":
		if b := c.BranchName(); b != "" {
			text += fmt.Sprintf("@<%s/tree/%s|%s>", c.RepoURL(), b, b)
		}
	}
	return text
}

// Text is the report headline linking the run, the repository and the actor.
func (c Context) Text() string {
	return fmt.Sprintf("GitHub Actions <%s|%s / %s> job in %s by <%s|%s>",
		c.RunURL(), c.Workflow, c.Job, c.repoText(), c.ActorURL(), c.Actor)
}

// RefField identifies the change: the pull request for pull_request events,
// otherwise the commit, with the branch for pushes.
func (c Context) RefField() status.Field {
	if u := c.PRURL(); u != "" {
		return status.Field{Title: "Pull Request", Value: fmt.Sprintf("<%s|#%d>", u, c.PRNumber)}
	}
	label := c.ShortSHA()
	if c.EventName == "push" {
		label = fmt.Sprintf("%s (%s)", label, c.BranchName())
	}
	return status.Field{Title: "Commit", Value: fmt.Sprintf("<%s|`%s`>", c.CommitURL(), label)}
}
