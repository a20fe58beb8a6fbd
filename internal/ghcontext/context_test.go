package ghcontext

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fakeyudi/luaqa/internal/status"
)

func envLookup(env map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func baseEnv() map[string]string {
	return map[string]string{
		"GITHUB_ACTIONS":    "true",
		"GITHUB_SERVER_URL": "https://github.com",
		"GITHUB_REPOSITORY": "victorpopkov/luaqa",
		"GITHUB_SHA":        "0123456789abcdef",
		"GITHUB_REF":        "refs/heads/main",
		"GITHUB_ACTOR":      "octocat",
		"GITHUB_WORKFLOW":   "CI",
		"GITHUB_JOB":        "lint",
		"GITHUB_RUN_ID":     "42",
		"GITHUB_EVENT_NAME": "push",
	}
}

func TestPushTextAndRef(t *testing.T) {
	c, err := FromEnv(envLookup(baseEnv()))
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}

	wantText := "GitHub Actions <https://github.com/victorpopkov/luaqa/actions/runs/42|CI / lint> job in " +
		"<https://github.com/victorpopkov/luaqa|victorpopkov/luaqa>@<https://github.com/victorpopkov/luaqa/tree/main|main> " +
		"by <https://github.com/octocat|octocat>"
	if got := c.Text(); got != wantText {
		t.Errorf("Text =\n%s\nwant\n%s", got, wantText)
	}

	want := status.Field{Title: "Commit", Value: "<https://github.com/victorpopkov/luaqa/commit/0123456789abcdef|`0123456 (main)`>"}
	if got := c.RefField(); got != want {
		t.Errorf("RefField = %+v, want %+v", got, want)
	}
}

func TestPullRequestFromEventPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "event.json")
	if err := os.WriteFile(path, []byte(`{"number": 7, "pull_request": {"number": 7}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	env := baseEnv()
	env["GITHUB_EVENT_NAME"] = "pull_request"
	env["GITHUB_REF"] = "refs/pull/7/merge"
	env["GITHUB_EVENT_PATH"] = path

	c, err := FromEnv(envLookup(env))
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if c.PRNumber != 7 {
		t.Fatalf("PRNumber = %d", c.PRNumber)
	}
	want := status.Field{Title: "Pull Request", Value: "<https://github.com/victorpopkov/luaqa/pull/7|#7>"}
	if got := c.RefField(); got != want {
		t.Errorf("RefField = %+v, want %+v", got, want)
	}
	if !strings.Contains(c.Text(), "#<https://github.com/victorpopkov/luaqa/pull/7|7>") {
		t.Errorf("Text missing PR link: %s", c.Text())
	}
}

func TestOtherEventUsesShortCommit(t *testing.T) {
	env := baseEnv()
	env["GITHUB_EVENT_NAME"] = "workflow_dispatch"
	c, _ := FromEnv(envLookup(env))

	want := status.Field{Title: "Commit", Value: "<https://github.com/victorpopkov/luaqa/commit/0123456789abcdef|`0123456`>"}
	if got := c.RefField(); got != want {
		t.Errorf("RefField = %+v, want %+v", got, want)
	}
	if strings.Contains(c.Text(), "@<") {
		t.Errorf("Text should not link a branch: %s", c.Text())
	}
}

func TestBadEventPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := baseEnv()
	env["GITHUB_EVENT_PATH"] = path
	if _, err := FromEnv(envLookup(env)); err == nil {
		t.Error("expected an error for a malformed payload")
	}
}

func TestLoadFillsFromGitOutsideActions(t *testing.T) {
	runner := func(_ string, args ...string) (string, error) {
		switch strings.Join(args, " ") {
		case "rev-parse HEAD":
			return "fedcba9876543210\n", nil
		case "rev-parse --abbrev-ref HEAD":
			return "feature/x\n", nil
		case "config --get remote.origin.url":
			return "git@github.com:someone/project.git\n", nil
		case "config user.name":
			return "Someone\n", nil
		}
		return "", errors.New("unexpected git call")
	}

	c, warnings, err := Load(t.TempDir(), envLookup(map[string]string{}), runner)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings %v", warnings)
	}
	if c.SHA != "fedcba9876543210" || c.BranchName() != "feature/x" || c.Owner != "someone" || c.Repo != "project" || c.Actor != "Someone" {
		t.Errorf("unexpected context %+v", c)
	}
}

func TestLoadInActionsSkipsGit(t *testing.T) {
	runner := func(string, ...string) (string, error) {
		t.Fatal("git should not be called")
		return "", nil
	}
	if _, _, err := Load("", envLookup(baseEnv()), runner); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
}

func TestFillFromGitNotARepository(t *testing.T) {
	exitErr := exec.Command("sh", "-c", "exit 128").Run()
	if exitErr == nil {
		t.Fatal("expected exit code 128 error, got nil")
	}
	runner := func(string, ...string) (string, error) { return "", exitErr }

	var c Context
	warnings, err := c.FillFromGit("/some/dir", runner)
	if err != nil {
		t.Fatalf("FillFromGit returned error: %v", err)
	}
	if len(warnings) != 1 || warnings[0] != "not a git repository" {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestParseRemote(t *testing.T) {
	tests := []struct {
		remote      string
		owner, repo string
		ok          bool
	}{
		{"git@github.com:owner/repo.git", "owner", "repo", true},
		{"https://github.com/owner/repo.git\n", "owner", "repo", true},
		{"ssh://git@github.com/owner/repo", "owner", "repo", true},
		{"https://github.com/", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		owner, repo, ok := parseRemote(tt.remote)
		if owner != tt.owner || repo != tt.repo || ok != tt.ok {
			t.Errorf("parseRemote(%q) = %q, %q, %v", tt.remote, owner, repo, ok)
		}
	}
}
