package integration

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qianmo517/reader/internal/config"
	"github.com/qianmo517/reader/test-integration/reader-api/helpers"
)

var _ = Describe("Source List Filtering", Label("filtering"), func() {
	var (
		tempDir      string
		listFile     string
		engine       *helpers.FakeEngine
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("filter-test-")
		engine = helpers.NewFakeEngine()
		listFile = helpers.WriteSourceList(tempDir, "bookSources.json", helpers.CreateUpdatedTestSources())
	})

	AfterEach(func() {
		if serverHelper != nil {
			_ = serverHelper.StopServer()
		}
		engine.Close()
		cleanupTempDir(tempDir)
	})

	loadWith := func(filter *config.FilterConfig) []helpers.TestSource {
		list := helpers.FileList("local", listFile)
		list.Filter = filter
		configFile := helpers.WriteConfigYAML(tempDir, engine.URL(), "", list)

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
		return serverHelper.GetSources().Sources
	}

	names := func(sources []helpers.TestSource) []string {
		out := make([]string, 0, len(sources))
		for _, s := range sources {
			out = append(out, s.Name)
		}
		return out
	}

	It("should keep only codes matching the include patterns", func() {
		sources := loadWith(&config.FilterConfig{
			Codes: &config.NameFilterConfig{Include: []string{"https://*.example.com"}},
		})
		Expect(names(sources)).To(Equal([]string{"Alpha", "Beta", "Delta"}))
	})

	It("should drop sources in an excluded group", func() {
		sources := loadWith(&config.FilterConfig{
			Groups: &config.TagFilterConfig{Include: []string{"novels"}, Exclude: []string{"18+"}},
		})
		Expect(names(sources)).To(Equal([]string{"Alpha", "Delta"}))
	})
})
