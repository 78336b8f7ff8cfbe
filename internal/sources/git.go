package sources

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/qianmo517/reader/internal/config"
	"github.com/qianmo517/reader/internal/git"
)

const (
	// DefaultListFile is the default file name for the source list in Git sources
	DefaultListFile = "bookSources.json"
)

// gitSourceHandler handles source lists stored in Git repositories
type gitSourceHandler struct {
	gitClient git.Client
}

// NewGitSourceHandler creates a new Git source handler
func NewGitSourceHandler(gitClient git.Client) SourceHandler {
	return &gitSourceHandler{gitClient: gitClient}
}

// Validate validates the Git source configuration
func (*gitSourceHandler) Validate(src *config.SourceConfig) error {
	if err := requireSource(src); err != nil {
		return err
	}
	if src.Git == nil {
		return fmt.Errorf("git configuration is required")
	}

	gitSource := src.Git
	if gitSource.Repository == "" {
		return fmt.Errorf("git repository URL cannot be empty")
	}

	specified := 0
	for _, ref := range []string{gitSource.Branch, gitSource.Tag, gitSource.Commit} {
		if ref != "" {
			specified++
		}
	}
	if specified > 1 {
		return fmt.Errorf("only one of branch, tag, or commit may be specified")
	}

	return nil
}

// FetchList retrieves the list from the Git repository
func (h *gitSourceHandler) FetchList(ctx context.Context, src *config.SourceConfig) (*FetchResult, error) {
	data, err := h.fetchListData(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source list: %w", err)
	}
	return parseFetched(src, data)
}

func (h *gitSourceHandler) fetchListData(ctx context.Context, src *config.SourceConfig) ([]byte, error) {
	if err := h.Validate(src); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	gitSource := src.Git
	cloneConfig := &git.CloneConfig{
		URL:    gitSource.Repository,
		Branch: gitSource.Branch,
		Tag:    gitSource.Tag,
		Commit: gitSource.Commit,
	}

	startTime := time.Now()
	zap.S().Infow("Starting git clone",
		"list", src.Name,
		"repository", cloneConfig.URL,
		"branch", cloneConfig.Branch,
		"tag", cloneConfig.Tag,
		"commit", cloneConfig.Commit)

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	repoInfo, err := h.gitClient.Clone(ctx, cloneConfig)
	cloneDuration := time.Since(startTime)
	if err != nil {
		zap.S().Errorw("Git clone failed",
			"error", err,
			"repository", cloneConfig.URL,
			"duration", cloneDuration.String())
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	zap.S().Infow("Git clone completed",
		"repository", cloneConfig.URL,
		"duration", cloneDuration.String(),
		"branch", repoInfo.Branch,
		"commit_sha", repoInfo.CommitHash())

	defer func() {
		if cleanupErr := h.gitClient.Cleanup(ctx, repoInfo); cleanupErr != nil {
			zap.S().Errorw("Failed to cleanup repository", "error", cleanupErr)
		}
		logMemoryStatsAfterOperation(&memBefore)
	}()

	filePath := gitSource.Path
	if filePath == "" {
		filePath = DefaultListFile
	}

	data, err := h.gitClient.GetFileContent(repoInfo, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s from repository: %w", filePath, err)
	}
	return data, nil
}

// logMemoryStatsAfterOperation logs heap usage after a clone has been released
func logMemoryStatsAfterOperation(memBefore *runtime.MemStats) {
	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	const mb = 1024 * 1024
	// #nosec G115 -- heap sizes in MB fit in int64
	deltaMB := int64(memAfter.Alloc/mb) - int64(memBefore.Alloc/mb)

	zap.S().Debugw("Memory stats after git operation",
		"alloc_mb", memAfter.Alloc/mb,
		"delta_mb", deltaMB,
		"sys_mb", memAfter.Sys/mb,
		"heap_alloc_mb", memAfter.HeapAlloc/mb,
		"heap_idle_mb", memAfter.HeapIdle/mb,
		"heap_released_mb", memAfter.HeapReleased/mb)
}
