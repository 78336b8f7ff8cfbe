package engine

// SearchBook is a single hit returned by search or explore.
type SearchBook struct {
	BookURL            string `json:"bookUrl"`
	Origin             string `json:"origin,omitempty"`
	OriginName         string `json:"originName,omitempty"`
	Type               int    `json:"type,omitempty"`
	Name               string `json:"name"`
	Author             string `json:"author"`
	Kind               string `json:"kind,omitempty"`
	CoverURL           string `json:"coverUrl,omitempty"`
	Intro              string `json:"intro,omitempty"`
	WordCount          string `json:"wordCount,omitempty"`
	LatestChapterTitle string `json:"latestChapterTitle,omitempty"`
	TocURL             string `json:"tocUrl,omitempty"`
	Time               int64  `json:"time,omitempty"`
	Variable           string `json:"variable,omitempty"`
	OriginOrder        int    `json:"originOrder,omitempty"`
}

// Book is a book record enriched by getBookInfo and consumed by getChapterList
// and getContent.
type Book struct {
	BookURL            string `json:"bookUrl"`
	TocURL             string `json:"tocUrl,omitempty"`
	Origin             string `json:"origin,omitempty"`
	OriginName         string `json:"originName,omitempty"`
	Name               string `json:"name"`
	Author             string `json:"author"`
	Kind               string `json:"kind,omitempty"`
	CustomTag          string `json:"customTag,omitempty"`
	CoverURL           string `json:"coverUrl,omitempty"`
	CustomCoverURL     string `json:"customCoverUrl,omitempty"`
	Intro              string `json:"intro,omitempty"`
	CustomIntro        string `json:"customIntro,omitempty"`
	Charset            string `json:"charset,omitempty"`
	Type               int    `json:"type,omitempty"`
	Group              int64  `json:"group,omitempty"`
	LatestChapterTitle string `json:"latestChapterTitle,omitempty"`
	LatestChapterTime  int64  `json:"latestChapterTime,omitempty"`
	LastCheckTime      int64  `json:"lastCheckTime,omitempty"`
	LastCheckCount     int    `json:"lastCheckCount,omitempty"`
	TotalChapterNum    int    `json:"totalChapterNum,omitempty"`
	DurChapterTitle    string `json:"durChapterTitle,omitempty"`
	DurChapterIndex    int    `json:"durChapterIndex,omitempty"`
	DurChapterPos      int    `json:"durChapterPos,omitempty"`
	DurChapterTime     int64  `json:"durChapterTime,omitempty"`
	WordCount          string `json:"wordCount,omitempty"`
	CanUpdate          *bool  `json:"canUpdate,omitempty"`
	Order              int    `json:"order,omitempty"`
	OriginOrder        int    `json:"originOrder,omitempty"`
	UseReplaceRule     *bool  `json:"useReplaceRule,omitempty"`
	Variable           string `json:"variable,omitempty"`
}

// BookChapter is one entry of a table of contents.
type BookChapter struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	BaseURL     string `json:"baseUrl,omitempty"`
	BookURL     string `json:"bookUrl,omitempty"`
	Index       int    `json:"index"`
	IsVolume    bool   `json:"isVolume,omitempty"`
	ResourceURL string `json:"resourceUrl,omitempty"`
	Tag         string `json:"tag,omitempty"`
	Start       *int64 `json:"start,omitempty"`
	End         *int64 `json:"end,omitempty"`
	Variable    string `json:"variable,omitempty"`
}

// Content is the payload of getContent.
type Content struct {
	Text string `json:"text"`
}

// ToBook maps a search hit onto a book record. An empty table of contents URL
// falls back to the book URL.
func (s SearchBook) ToBook() Book {
	tocURL := s.TocURL
	if tocURL == "" {
		tocURL = s.BookURL
	}
	return Book{
		BookURL:            s.BookURL,
		TocURL:             tocURL,
		Origin:             s.Origin,
		OriginName:         s.OriginName,
		Name:               s.Name,
		Author:             s.Author,
		Kind:               s.Kind,
		CoverURL:           s.CoverURL,
		Intro:              s.Intro,
		Type:               s.Type,
		LatestChapterTitle: s.LatestChapterTitle,
		WordCount:          s.WordCount,
		OriginOrder:        s.OriginOrder,
		Variable:           s.Variable,
	}
}
