package git

import (
	"context"
	"fmt"
	"path"
	"runtime"
	"strings"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"go.uber.org/zap"
)

// Limits applied to every clone, for the worktree and the object store separately.
const (
	MaxFiles      = 10 * 1000
	MaxTotalBytes = 100 * 1024 * 1024
)

// MaxListFileBytes bounds a single source list read from a repository.
const MaxListFileBytes = 32 * 1024 * 1024

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client clones the repositories that publish book source lists and reads
// list files out of them.
type Client interface {
	// Clone clones the repository at the configured branch, tag or commit
	Clone(ctx context.Context, config *CloneConfig) (*RepositoryInfo, error)

	// GetFileContent reads a file from the checked out commit
	GetFileContent(repoInfo *RepositoryInfo, path string) ([]byte, error)

	// Cleanup releases the in-memory repository
	Cleanup(ctx context.Context, repoInfo *RepositoryInfo) error
}

// defaultGitClient keeps every clone in memory; nothing touches the disk.
type defaultGitClient struct{}

// NewDefaultGitClient creates a go-git backed Client
func NewDefaultGitClient() Client {
	return &defaultGitClient{}
}

// cloneOptions pins the clone to the configured ref. Branch and tag clones
// are shallow; a commit clone needs the full history to find the commit.
func cloneOptions(config *CloneConfig) *git.CloneOptions {
	opts := &git.CloneOptions{URL: config.URL}
	if config.Commit != "" {
		return opts
	}

	opts.Depth = 1
	switch {
	case config.Branch != "":
		opts.ReferenceName = plumbing.NewBranchReferenceName(config.Branch)
		opts.SingleBranch = true
	case config.Tag != "":
		opts.ReferenceName = plumbing.NewTagReferenceName(config.Tag)
		opts.SingleBranch = true
	}
	return opts
}

// Clone clones a repository with the given configuration
func (c *defaultGitClient) Clone(ctx context.Context, config *CloneConfig) (*RepositoryInfo, error) {
	// go-git wants separate filesystems for the storer and the checked out files
	worktreeFs := &LimitedFs{Fs: memfs.New(), MaxFiles: MaxFiles, TotalFileSize: MaxTotalBytes}
	storerFs := &LimitedFs{Fs: memfs.New(), MaxFiles: MaxFiles, TotalFileSize: MaxTotalBytes}
	objectCache := cache.NewObjectLRUDefault()

	repo, err := git.CloneContext(ctx, filesystem.NewStorage(storerFs, objectCache), worktreeFs, cloneOptions(config))
	if err != nil {
		return nil, fmt.Errorf("failed to clone source list repository %s: %w", config.URL, err)
	}

	repoInfo := &RepositoryInfo{
		Repository:       repo,
		RemoteURL:        config.URL,
		storerFilesystem: storerFs,
		objectCache:      objectCache,
	}

	if config.Commit != "" {
		if err := checkoutCommit(repo, config.Commit); err != nil {
			return nil, err
		}
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	if head.Name().IsBranch() {
		repoInfo.Branch = head.Name().Short()
	}

	zap.S().Debugw("Cloned source list repository",
		"repository", config.URL,
		"branch", repoInfo.Branch,
		"tag", config.Tag,
		"commit_sha", head.Hash().String(),
	)
	return repoInfo, nil
}

func checkoutCommit(repo *git.Repository, commit string) error {
	workTree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := workTree.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(commit)}); err != nil {
		return fmt.Errorf("failed to checkout commit %s: %w", commit, err)
	}
	return nil
}

// listPath turns a configured list path such as "./lists/all.json" or
// "/all.json" into a path inside the repository tree.
func listPath(p string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(p)), "/")
}

// GetFileContent reads a file from the commit at HEAD. Files above
// MaxListFileBytes are rejected without being read.
func (*defaultGitClient) GetFileContent(repoInfo *RepositoryInfo, filePath string) ([]byte, error) {
	if repoInfo == nil || repoInfo.Repository == nil {
		return nil, fmt.Errorf("repository is nil")
	}

	name := listPath(filePath)
	if name == "" {
		return nil, fmt.Errorf("source list path %q names no file", filePath)
	}

	ref, err := repoInfo.Repository.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	commit, err := repoInfo.Repository.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	file, err := tree.File(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", name, err)
	}
	if file.Size > MaxListFileBytes {
		return nil, fmt.Errorf("source list %s is %d bytes, above the %d byte limit", name, file.Size, MaxListFileBytes)
	}

	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	return []byte(content), nil
}

// Cleanup drops the object cache and both in-memory filesystems. go-git
// keeps references to them, so they are emptied rather than left to the GC.
func (*defaultGitClient) Cleanup(_ context.Context, repoInfo *RepositoryInfo) error {
	if repoInfo == nil || repoInfo.Repository == nil {
		return fmt.Errorf("repository is nil")
	}

	if repoInfo.objectCache != nil {
		repoInfo.objectCache.Clear()
	}
	if worktree, err := repoInfo.Repository.Worktree(); err == nil && worktree.Filesystem != nil {
		_ = util.RemoveAll(worktree.Filesystem, "/")
	}
	if repoInfo.storerFilesystem != nil {
		_ = util.RemoveAll(repoInfo.storerFilesystem, "/")
	}

	repoInfo.objectCache = nil
	repoInfo.storerFilesystem = nil
	repoInfo.Repository = nil

	runtime.GC()
	return nil
}
