package integration

import (
	"time"

	json "github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qianmo517/reader/test-integration/reader-api/helpers"
)

type book struct {
	BookURL string `json:"bookUrl"`
	TocURL  string `json:"tocUrl"`
	Name    string `json:"name"`
	Author  string `json:"author"`
}

type chapter struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

var _ = Describe("Operation API Integration", Label("api"), func() {
	var (
		tempDir      string
		engine       *helpers.FakeEngine
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("api-test-")
		engine = helpers.NewFakeEngine()

		sources := append(helpers.CreateOriginalTestSources(),
			helpers.TestSource{Code: "https://broken.example.com", Name: helpers.FailingSourceName})
		listFile := helpers.WriteSourceList(tempDir, "bookSources.json", sources)
		configFile := helpers.WriteConfigYAML(tempDir, engine.URL(), "", helpers.FileList("local", listFile))

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		_ = serverHelper.StopServer()
		engine.Close()
		cleanupTempDir(tempDir)
	})

	decode := func(env helpers.Envelope, out any) {
		Expect(env.IsSuccess).To(BeTrue(), env.Msg)
		Expect(json.Unmarshal(env.Data, out)).To(Succeed())
	}

	Context("Reading a book end to end", func() {
		It("should search, load details, list chapters and read content", func() {
			var hits []book
			decode(serverHelper.Post("/source/search", map[string]any{
				"key":            "dune",
				"bookSourceCode": "https://alpha.example.com",
			}), &hits)
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].Name).To(Equal("dune from Alpha"))

			var info book
			decode(serverHelper.Post("/source/getBookInfo", map[string]any{
				"bookSourceCode": "https://alpha.example.com",
				"searchBook":     hits[0],
			}), &info)
			Expect(info.TocURL).To(Equal(hits[0].BookURL + "/toc"))

			var chapters []chapter
			decode(serverHelper.Post("/source/getChapterList", map[string]any{
				"bookSourceCode": "https://alpha.example.com",
				"book":           info,
			}), &chapters)
			Expect(chapters).To(HaveLen(2))

			var content struct {
				Text string `json:"text"`
			}
			decode(serverHelper.Post("/source/getContent", map[string]any{
				"bookSourceCode": "https://alpha.example.com",
				"book":           info,
				"bookChapter":    chapters[1],
			}), &content)
			Expect(content.Text).To(Equal("content of Chapter 2"))

			Expect(engine.Calls()).To(Equal([]string{"searchBook", "getBookInfo", "getChapterList", "getContent"}))
		})

		It("should answer the legacy routes the same way", func() {
			var hits []book
			decode(serverHelper.Post("/yuedu/searchBook", map[string]any{
				"key":            "dune",
				"bookSourceCode": "https://beta.example.com",
			}), &hits)
			Expect(hits[0].Name).To(Equal("dune from Beta"))

			env := serverHelper.Get("/yuedu/md5")
			Expect(env.IsSuccess).To(BeTrue())
			Expect(string(env.Data)).To(Equal(`"` + serverHelper.GetSources().Fingerprint + `"`))
		})

		It("should prefer an inline source over the registry", func() {
			var hits []book
			decode(serverHelper.Post("/source/explore", map[string]any{
				"ruleFindUrl":    "/rank",
				"bookSourceCode": "https://alpha.example.com",
				"bookSource": map[string]any{
					"bookSourceUrl":  "https://inline.example.com",
					"bookSourceName": "Inline",
				},
			}), &hits)
			Expect(hits[0].Name).To(Equal("/rank from Inline"))
		})
	})

	Context("Failures", func() {
		It("should envelope an engine failure", func() {
			env := serverHelper.Post("/source/search", map[string]any{
				"key":            "dune",
				"bookSourceCode": "https://broken.example.com",
			})
			Expect(env.IsSuccess).To(BeFalse())
			Expect(env.ErrCode).To(Equal("EngineFailure"))
			Expect(env.Msg).NotTo(BeEmpty())
		})

		It("should envelope an unknown source code without calling the engine", func() {
			env := serverHelper.Post("/source/search", map[string]any{
				"key":            "dune",
				"bookSourceCode": "https://nowhere.example.com",
			})
			Expect(env.IsSuccess).To(BeFalse())
			Expect(env.ErrCode).To(Equal("UnknownSourceCode"))
			Expect(engine.Calls()).To(BeEmpty())
		})

		It("should envelope a request without any source", func() {
			env := serverHelper.Post("/source/search", map[string]any{"key": "dune"})
			Expect(env.IsSuccess).To(BeFalse())
			Expect(env.ErrCode).To(Equal("MissingSource"))
		})

		It("should envelope a malformed body", func() {
			env := serverHelper.Post("/source/search", "[1,2,3]")
			Expect(env.IsSuccess).To(BeFalse())
			Expect(env.ErrCode).To(Equal("BadRequest"))
		})
	})
})
