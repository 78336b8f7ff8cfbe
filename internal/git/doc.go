// Package git fetches book source lists from Git repositories.
//
// It wraps go-git to clone a repository into memory, read a single file from
// the checked out tree, and release the clone again. Nothing touches disk.
//
//	client := git.NewDefaultGitClient()
//	repoInfo, err := client.Clone(ctx, &git.CloneConfig{
//	    URL:    "https://github.com/example/book-sources.git",
//	    Branch: "main",
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Cleanup(ctx, repoInfo)
//
//	content, err := client.GetFileContent(repoInfo, "sources.json")
//
// Clones are shallow unless a specific commit is requested, and both the
// worktree and the object store are wrapped in a LimitedFs that caps the file
// count and total bytes written.
package git
