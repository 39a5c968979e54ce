package gitclient

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// newUpstream creates a local repository with one commit and the given
// tags, standing in for the product's GitHub remote.
func newUpstream(t *testing.T, tags ...string) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}

	hash := commitFile(t, repo, dir, "config.example.h", "#define EXAMPLE")
	for _, tag := range tags {
		if _, err := repo.CreateTag(tag, hash, nil); err != nil {
			t.Fatal(err)
		}
	}
	return dir, repo
}

func commitFile(t *testing.T, repo *git.Repository, dir, name, contents string) plumbing.Hash {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
	return hash
}

func TestIsRepoAndOpen(t *testing.T) {
	c := New()
	upstream, _ := newUpstream(t)

	if !c.IsRepo(upstream) {
		t.Error("Expected upstream to be a repository")
	}

	plain := t.TempDir()
	if c.IsRepo(plain) {
		t.Error("Plain directory should not be a repository")
	}
	if _, err := c.Open(plain); !errors.Is(err, ErrNotRepository) {
		t.Errorf("Expected ErrNotRepository, got %v", err)
	}
}

func TestCloneAndListVersions(t *testing.T) {
	c := New()
	upstream, _ := newUpstream(t, "v1.2.0-Prod", "v1.3.0-Devel", "v1.2.5-Prod", "not-a-release")

	target := filepath.Join(t.TempDir(), "clone")
	repo, err := c.Clone(upstream, target)
	if err != nil {
		t.Fatal(err)
	}

	versions, err := c.ListVersions(repo)
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 3 {
		t.Fatalf("Expected 3 release versions, got %d", len(versions))
	}
	if versions[0].Tag != "v1.3.0-Devel" {
		t.Errorf("Expected v1.3.0-Devel first, got %s", versions[0].Tag)
	}
}

func TestValidateRemote(t *testing.T) {
	c := New()
	upstream, _ := newUpstream(t)

	target := filepath.Join(t.TempDir(), "clone")
	repo, err := c.Clone(upstream, target)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.ValidateRemote(repo, upstream); err != nil {
		t.Errorf("Expected valid remote, got %v", err)
	}
	if err := c.ValidateRemote(repo, "https://example.com/other.git"); err == nil {
		t.Error("Expected error for mismatched remote URL")
	}
}

func TestLocalChanges(t *testing.T) {
	c := New()
	upstream, _ := newUpstream(t)

	target := filepath.Join(t.TempDir(), "clone")
	repo, err := c.Clone(upstream, target)
	if err != nil {
		t.Fatal(err)
	}

	changes, err := c.LocalChanges(repo)
	if err != nil {
		t.Fatal(err)
	}
	if changes != nil {
		t.Fatalf("Fresh clone should be clean, got %v", changes)
	}

	// Untracked files do not count as interfering changes
	if err := os.WriteFile(filepath.Join(target, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	changes, err = c.LocalChanges(repo)
	if err != nil {
		t.Fatal(err)
	}
	if changes != nil {
		t.Fatalf("Untracked file should not count, got %v", changes)
	}

	// A modified tracked file does
	if err := os.WriteFile(filepath.Join(target, "config.example.h"), []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	changes, err = c.LocalChanges(repo)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 {
		t.Fatalf("Expected 1 change, got %v", changes)
	}
	if changes[0] != "modified: config.example.h" {
		t.Errorf("Unexpected change entry: %s", changes[0])
	}
}

func TestCheckoutBranchDirtyWorktree(t *testing.T) {
	c := New()
	upstream, _ := newUpstream(t)

	target := filepath.Join(t.TempDir(), "clone")
	repo, err := c.Clone(upstream, target)
	if err != nil {
		t.Fatal(err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	branch := head.Name().Short()

	if err := os.WriteFile(filepath.Join(target, "config.example.h"), []byte("edited"), 0o644); err != nil {
		t.Fatal(err)
	}

	err = c.CheckoutBranch(repo, branch)
	if err == nil {
		t.Fatal("Expected checkout of a dirty worktree to fail")
	}
	if !errors.Is(err, git.ErrUnstagedChanges) {
		t.Errorf("Expected the unstaged-changes cause, got %v", err)
	}
	if strings.Contains(err.Error(), "already exists") {
		t.Errorf("Checkout error was reinterpreted: %v", err)
	}
}

func TestPullFastForward(t *testing.T) {
	c := New()
	upstream, upstreamRepo := newUpstream(t)

	target := filepath.Join(t.TempDir(), "clone")
	repo, err := c.Clone(upstream, target)
	if err != nil {
		t.Fatal(err)
	}

	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	branch := head.Name().Short()

	// Already up to date is success, and repeatable
	if err := c.Pull(repo, branch); err != nil {
		t.Fatalf("Up-to-date pull should succeed, got %v", err)
	}
	if err := c.Pull(repo, branch); err != nil {
		t.Fatalf("Repeated pull should succeed, got %v", err)
	}

	// New upstream commit fast-forwards
	commitFile(t, upstreamRepo, upstream, "newfile.h", "#define NEW")
	if err := c.Pull(repo, branch); err != nil {
		t.Fatalf("Fast-forward pull failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(target, "newfile.h")); err != nil {
		t.Error("Pulled file missing from working tree")
	}

	// Divergent local commit makes the pull a non-fast-forward
	commitFile(t, upstreamRepo, upstream, "upstream.h", "#define UP")
	commitFile(t, repo, target, "local.h", "#define LOCAL")
	if err := c.Pull(repo, branch); err == nil {
		t.Fatal("Expected non-fast-forward pull to fail")
	}
}

func TestCheckoutVersion(t *testing.T) {
	c := New()
	upstream, _ := newUpstream(t, "v1.0.0-Prod")

	target := filepath.Join(t.TempDir(), "clone")
	repo, err := c.Clone(upstream, target)
	if err != nil {
		t.Fatal(err)
	}

	versions, err := c.ListVersions(repo)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.CheckoutVersion(repo, versions[0]); err != nil {
		t.Fatalf("Checkout of %s failed: %v", versions[0].Tag, err)
	}

	if err := c.CheckoutVersion(repo, Version{Tag: "v9.9.9-Prod"}); err == nil {
		t.Error("Expected error for unknown version tag")
	}
}
