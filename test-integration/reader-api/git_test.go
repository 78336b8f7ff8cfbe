package integration

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qianmo517/reader/internal/config"
	"github.com/qianmo517/reader/test-integration/reader-api/helpers"
)

var _ = Describe("Git Source Integration", Label("git"), func() {
	var (
		tempDir      string
		gitHelper    *helpers.GitTestHelper
		testRepo     *helpers.GitTestRepository
		engine       *helpers.FakeEngine
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("git-test-")
		engine = helpers.NewFakeEngine()
		gitHelper = helpers.NewGitTestHelper(ctx)
		testRepo = gitHelper.CreateRepository("book-sources")
		gitHelper.CommitSourceList(testRepo, "lists/bookSources.json",
			helpers.CreateOriginalTestSources(), "Add initial sources")
	})

	AfterEach(func() {
		if serverHelper != nil {
			_ = serverHelper.StopServer()
		}
		engine.Close()
		if gitHelper != nil {
			_ = gitHelper.CleanupRepositories()
		}
		cleanupTempDir(tempDir)
	})

	launch := func(interval string, list config.SourceConfig) {
		configFile := helpers.WriteConfigYAML(tempDir, engine.URL(), interval, list)

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerLive(10 * time.Second)
	}

	start := func(interval string, list config.SourceConfig) {
		launch(interval, list)
		serverHelper.WaitForServerReady(30 * time.Second)
	}

	Context("Basic Git Repository Sync", func() {
		It("should clone and load the list from the configured branch", func() {
			start("", helpers.GitList("community", testRepo.CloneURL, "main", "lists/bookSources.json"))

			sources := serverHelper.WaitForSources(3, 10*time.Second)
			Expect(sources[0].Name).To(Equal("Alpha"))
		})

		It("should pick up new commits on the next sync", func() {
			start("1s", helpers.GitList("community", testRepo.CloneURL, "main", "lists/bookSources.json"))
			serverHelper.WaitForSources(3, 10*time.Second)

			gitHelper.CommitSourceList(testRepo, "lists/bookSources.json",
				helpers.CreateUpdatedTestSources(), "Add delta")

			serverHelper.WaitForSources(4, 15*time.Second)
		})
	})

	Context("Git References", func() {
		It("should load the list at a tag", func() {
			gitHelper.CreateTag(testRepo, "v1.0.0")
			gitHelper.CommitSourceList(testRepo, "lists/bookSources.json",
				helpers.CreateUpdatedTestSources(), "Add delta after the tag")

			list := helpers.GitList("pinned", testRepo.CloneURL, "", "lists/bookSources.json")
			list.Git.Tag = "v1.0.0"
			start("", list)

			serverHelper.WaitForSources(3, 10*time.Second)
		})

		It("should fail the sync for a missing file", func() {
			launch("", helpers.GitList("community", testRepo.CloneURL, "main", "missing.json"))

			Eventually(func() any {
				return serverHelper.GetStatus()["phase"]
			}, 10*time.Second, 100*time.Millisecond).Should(Equal("Failed"))
		})
	})
})
