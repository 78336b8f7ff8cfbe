package integration

import (
	"net/url"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qianmo517/reader/test-integration/reader-api/helpers"
)

var _ = Describe("File Source Integration", Label("file"), func() {
	var (
		tempDir      string
		listFile     string
		engine       *helpers.FakeEngine
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("file-test-")
		engine = helpers.NewFakeEngine()
		listFile = helpers.WriteSourceList(tempDir, "bookSources.json", helpers.CreateOriginalTestSources())
	})

	AfterEach(func() {
		if serverHelper != nil {
			_ = serverHelper.StopServer()
		}
		engine.Close()
		cleanupTempDir(tempDir)
	})

	start := func(interval string) {
		configFile := helpers.WriteConfigYAML(tempDir, engine.URL(), interval, helpers.FileList("local", listFile))

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	}

	Context("Loading from Local File", func() {
		It("should load every source in document order", func() {
			start("")

			sources := serverHelper.WaitForSources(3, 5*time.Second)
			Expect(sources[0].Code).To(Equal("https://alpha.example.com"))
			Expect(sources[1].Code).To(Equal("https://beta.example.com"))
			Expect(sources[2].Code).To(Equal("https://gamma.test"))
		})

		It("should report a completed sync on /status", func() {
			start("")
			serverHelper.WaitForSources(3, 5*time.Second)

			status := serverHelper.GetStatus()
			Expect(status).To(HaveKeyWithValue("phase", "Complete"))
			Expect(status).To(HaveKeyWithValue("sourceCount", BeNumerically("==", 3)))
		})

		It("should serve a single source by code", func() {
			start("")

			env := serverHelper.Get("/source/list/" + url.PathEscape("https://beta.example.com"))
			Expect(env.IsSuccess).To(BeTrue(), env.Msg)
			Expect(string(env.Data)).To(ContainSubstring(`"bookSourceName":"Beta"`))
		})
	})

	Context("Updating the File", func() {
		It("should pick up changes on the next sync and change the fingerprint", func() {
			start("1s")
			before := serverHelper.GetSources().Fingerprint

			helpers.WriteSourceList(tempDir, filepath.Base(listFile), helpers.CreateUpdatedTestSources())

			serverHelper.WaitForSources(4, 10*time.Second)
			Expect(serverHelper.GetSources().Fingerprint).NotTo(Equal(before))
		})

		It("should keep serving the last good content when the file breaks", func() {
			start("1s")
			serverHelper.WaitForSources(3, 5*time.Second)

			helpers.WriteRaw(listFile, []byte("{not json"))

			Eventually(func() any {
				return serverHelper.GetStatus()["lists"]
			}, 10*time.Second, 100*time.Millisecond).Should(ContainElement(HaveKeyWithValue("stale", true)))
			Expect(serverHelper.GetSources().Sources).To(HaveLen(3))
		})
	})
})
