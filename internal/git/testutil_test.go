package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

var testAuthor = &object.Signature{Name: "Test Author", Email: "test@example.com"}

// createTestRepo creates an on-disk repository with one commit per entry of
// commits and returns its path and the commit hashes.
func createTestRepo(t *testing.T, commits ...map[string]string) (string, []plumbing.Hash) {
	t.Helper()

	repoDir := t.TempDir()
	repo, err := git.PlainInit(repoDir, false)
	require.NoError(t, err)

	workTree, err := repo.Worktree()
	require.NoError(t, err)

	var hashes []plumbing.Hash
	for i, files := range commits {
		for name, content := range files {
			path := filepath.Join(repoDir, name)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := workTree.Add(name)
			require.NoError(t, err)
		}

		hash, err := workTree.Commit("Commit "+string(rune('A'+i)), &git.CommitOptions{Author: testAuthor})
		require.NoError(t, err)
		hashes = append(hashes, hash)
	}

	return repoDir, hashes
}

// createBranch creates branch at HEAD of the repository at repoDir, commits
// files on it, and switches back to the original branch.
func createBranch(t *testing.T, repoDir, branch string, files map[string]string) {
	t.Helper()

	repo, err := git.PlainOpen(repoDir)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	workTree, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, workTree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: true,
	}))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(repoDir, name), []byte(content), 0644))
		_, err := workTree.Add(name)
		require.NoError(t, err)
	}
	_, err = workTree.Commit("Commit on "+branch, &git.CommitOptions{Author: testAuthor})
	require.NoError(t, err)

	require.NoError(t, workTree.Checkout(&git.CheckoutOptions{Branch: head.Name()}))
}
