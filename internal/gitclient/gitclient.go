// Package gitclient wraps go-git with the repository operations the
// installer needs: validating and cloning product working copies,
// fast-forward updates, and enumerating release versions from tags.
package gitclient

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

// RemoteName is the only remote the installer works with.
const RemoteName = "origin"

// ErrNotRepository is returned when a directory exists but is not a git
// working copy.
var ErrNotRepository = errors.New("not a git repository")

// Client performs all source-repository operations. One instance is
// shared across screens; the repo worker class serializes its blocking
// calls.
type Client struct{}

// New returns a repository client.
func New() *Client {
	return &Client{}
}

// IsRepo reports whether dir is a git working copy.
func (c *Client) IsRepo(dir string) bool {
	_, err := git.PlainOpen(dir)
	return err == nil
}

// Open returns the repository at dir.
func (c *Client) Open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotRepository)
	}
	if err != nil {
		return nil, fmt.Errorf("could not open repository %s: %w", dir, err)
	}
	return repo, nil
}

// ValidateRemote checks the repository has exactly one remote, named
// origin, pointing at url.
func (c *Client) ValidateRemote(repo *git.Repository, url string) error {
	remotes, err := repo.Remotes()
	if err != nil {
		return fmt.Errorf("could not list remotes: %w", err)
	}
	if len(remotes) != 1 {
		return fmt.Errorf("expected a single remote, found %d", len(remotes))
	}
	cfg := remotes[0].Config()
	if cfg.Name != RemoteName {
		return fmt.Errorf("remote is named %q, expected %q", cfg.Name, RemoteName)
	}
	if len(cfg.URLs) == 0 || cfg.URLs[0] != url {
		return fmt.Errorf("remote URL %v does not match %s", cfg.URLs, url)
	}
	return nil
}

// LocalChanges returns a human-readable "state: path" entry for every
// locally modified file, or nil when the working tree is clean.
// Untracked files are ignored; they do not interfere with checkout or
// pull.
func (c *Client) LocalChanges(repo *git.Repository) ([]string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("could not access working tree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("could not read repository status: %w", err)
	}

	var changes []string
	for path, st := range status {
		if st.Worktree == git.Untracked && st.Staging == git.Untracked {
			continue
		}
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		changes = append(changes, fmt.Sprintf("%s: %s", statusWord(st), path))
	}
	sort.Strings(changes)
	return changes, nil
}

func statusWord(st *git.FileStatus) string {
	code := st.Worktree
	if code == git.Unmodified {
		code = st.Staging
	}
	switch code {
	case git.Modified:
		return "modified"
	case git.Added:
		return "added"
	case git.Deleted:
		return "deleted"
	case git.Renamed:
		return "renamed"
	case git.Copied:
		return "copied"
	case git.UpdatedButUnmerged:
		return "unmerged"
	default:
		return "changed"
	}
}

// Clone clones url into dir and returns the repository.
func (c *Client) Clone(url, dir string) (*git.Repository, error) {
	logging.Info("cloning repository", zap.String("url", url), zap.String("dir", dir))
	repo, err := git.PlainClone(dir, false, &git.CloneOptions{
		URL:        url,
		RemoteName: RemoteName,
	})
	if err != nil {
		return nil, fmt.Errorf("could not clone %s: %w", url, err)
	}
	return repo, nil
}

// RunClone performs Clone on a worker. The terminal success envelope
// carries the *git.Repository.
func (c *Client) RunClone(url, dir string) *tasks.Runner {
	return tasks.Run(tasks.ClassRepo, "Clone repository", func() (any, error) {
		return c.Clone(url, dir)
	})
}

// CheckoutBranch checks out the named branch, creating a local branch
// tracking origin when only the remote ref exists.
func (c *Client) CheckoutBranch(repo *git.Repository, branch string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("could not access working tree: %w", err)
	}

	local := plumbing.NewBranchReferenceName(branch)
	if _, err := repo.Reference(local, true); err == nil {
		if err := wt.Checkout(&git.CheckoutOptions{Branch: local}); err != nil {
			return fmt.Errorf("could not check out branch %s: %w", branch, err)
		}
		return nil
	}

	remote := plumbing.NewRemoteReferenceName(RemoteName, branch)
	ref, err := repo.Reference(remote, true)
	if err != nil {
		return fmt.Errorf("branch %s not found locally or on %s: %w", branch, RemoteName, err)
	}
	err = wt.Checkout(&git.CheckoutOptions{
		Hash:   ref.Hash(),
		Branch: local,
		Create: true,
	})
	if err != nil {
		return fmt.Errorf("could not check out branch %s: %w", branch, err)
	}
	return nil
}

// CheckoutVersion checks out the commit a version tag points at,
// leaving the working tree detached. No rollback is attempted on
// failure; the tree is left as go-git leaves it.
func (c *Client) CheckoutVersion(repo *git.Repository, v Version) error {
	hash, err := repo.ResolveRevision(plumbing.Revision(v.Tag))
	if err != nil {
		return fmt.Errorf("could not resolve version %s: %w", v.Tag, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("could not access working tree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash}); err != nil {
		return fmt.Errorf("could not check out %s: %w", v.Tag, err)
	}
	return nil
}

// Pull fetches origin and fast-forwards the named branch. A merge that
// would not be a fast-forward is reported as an error; the installer
// never creates merge commits on the user's behalf.
func (c *Client) Pull(repo *git.Repository, branch string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("could not access working tree: %w", err)
	}
	err = wt.Pull(&git.PullOptions{
		RemoteName:    RemoteName,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if errors.Is(err, git.ErrNonFastForwardUpdate) {
		return fmt.Errorf("branch %s has diverged from %s and requires a manual merge: %w",
			branch, RemoteName, err)
	}
	if err != nil {
		return fmt.Errorf("could not pull %s: %w", branch, err)
	}
	return nil
}

// RunPull performs Pull on a worker.
func (c *Client) RunPull(repo *git.Repository, branch string) *tasks.Runner {
	return tasks.Run(tasks.ClassRepo, "Get latest software updates", func() (any, error) {
		return nil, c.Pull(repo, branch)
	})
}
