package helpers

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/onsi/gomega"
)

// GitTestHelper manages Git repositories for testing
type GitTestHelper struct {
	ctx          context.Context
	tempDir      string
	repositories []*GitTestRepository
}

// GitTestRepository represents a test Git repository
type GitTestRepository struct {
	Name     string
	Path     string
	CloneURL string
	repo     *git.Repository
}

// NewGitTestHelper creates a new Git test helper
func NewGitTestHelper(ctx context.Context) *GitTestHelper {
	tempDir, err := os.MkdirTemp("", "git-test-repos-*")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	return &GitTestHelper{
		ctx:          ctx,
		tempDir:      tempDir,
		repositories: make([]*GitTestRepository, 0),
	}
}

// CreateRepository creates a new Git repository with an initial commit on main
func (g *GitTestHelper) CreateRepository(name string) *GitTestRepository {
	repoPath := filepath.Join(g.tempDir, name)

	repo, err := git.PlainInitWithOptions(repoPath, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	r := &GitTestRepository{
		Name:     name,
		Path:     repoPath,
		CloneURL: "file://" + repoPath,
		repo:     repo,
	}
	g.commitFile(r, "README.md", []byte("# Test Repository\n"), "Initial commit")

	g.repositories = append(g.repositories, r)
	return r
}

// CommitSourceList commits sources to filename in the repository
func (g *GitTestHelper) CommitSourceList(repo *GitTestRepository, filename string, sources []TestSource, message string) {
	g.commitFile(repo, filename, MarshalSources(sources), message)
}

// CreateBranch creates a new branch at HEAD and checks it out
func (*GitTestHelper) CreateBranch(repo *GitTestRepository, branchName string) {
	wt, err := repo.repo.Worktree()
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	err = wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branchName),
		Create: true,
	})
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
}

// CreateTag creates a lightweight tag at HEAD
func (*GitTestHelper) CreateTag(repo *GitTestRepository, tagName string) {
	head, err := repo.repo.Head()
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	_, err = repo.repo.CreateTag(tagName, head.Hash(), nil)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
}

// CleanupRepositories removes all test repositories
func (g *GitTestHelper) CleanupRepositories() error {
	return os.RemoveAll(g.tempDir)
}

func (*GitTestHelper) commitFile(repo *GitTestRepository, filename string, content []byte, message string) {
	filePath := filepath.Join(repo.Path, filename)
	err := os.MkdirAll(filepath.Dir(filePath), 0750)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	err = os.WriteFile(filePath, content, 0600)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	wt, err := repo.repo.Worktree()
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	_, err = wt.Add(filename)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
}
