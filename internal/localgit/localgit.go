// Package localgit covers the few operations that run against the
// local machine's git state rather than the GitHub API: cloning a
// repository to disk and reading the configured git identity.
package localgit

import (
	"context"
	"errors"
	"fmt"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// Clone clones owner/repo at branch into dir. The destination must not
// already contain a repository.
func Clone(ctx context.Context, dir, owner, repo, branch string) error {
	if _, err := os.Stat(dir); err == nil {
		if _, err := git.PlainOpen(dir); err == nil {
			return fmt.Errorf("%s already contains a repository", dir)
		}
	}

	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           fmt.Sprintf("https://github.com/%s/%s.git", owner, repo),
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryAlreadyExists) {
			return fmt.Errorf("%s already contains a repository", dir)
		}
		return fmt.Errorf("failed to clone %s/%s: %w", owner, repo, err)
	}
	return nil
}

// Username returns the user.name from the global git config. The empty
// string means no identity is configured.
func Username() (string, error) {
	cfg, err := config.LoadConfig(config.GlobalScope)
	if err != nil {
		return "", fmt.Errorf("failed to read git config: %w", err)
	}
	return cfg.User.Name, nil
}
