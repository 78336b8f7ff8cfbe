package integration

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qianmo517/reader/test-integration/reader-api/helpers"
)

var _ = Describe("URL Source Integration", Label("url"), func() {
	var (
		tempDir      string
		engine       *helpers.FakeEngine
		listServer   *httptest.Server
		document     atomic.Value
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("url-test-")
		engine = helpers.NewFakeEngine()
		document.Store(helpers.MarshalSources(helpers.CreateOriginalTestSources()))

		listServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(document.Load().([]byte))
		}))

		configFile := helpers.WriteConfigYAML(tempDir, engine.URL(), "1s",
			helpers.URLList("mirror", listServer.URL+"/bookSources.json"))

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		_ = serverHelper.StopServer()
		listServer.Close()
		engine.Close()
		cleanupTempDir(tempDir)
	})

	It("should download and load the list", func() {
		sources := serverHelper.WaitForSources(3, 5*time.Second)
		Expect(sources[1].Name).To(Equal("Beta"))
	})

	It("should follow updates to the published document", func() {
		serverHelper.WaitForSources(3, 5*time.Second)

		document.Store(helpers.MarshalSources(helpers.CreateUpdatedTestSources()))

		serverHelper.WaitForSources(4, 10*time.Second)
	})
})
