package enrich

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/jdholdren/tagcast/internal/fetch"
	"github.com/jdholdren/tagcast/internal/podcast"
)

type pageScan struct {
	name string
	// hosts limits the scan to links on these domains, nil means any.
	hosts []string
	find  func(doc *goquery.Document) []string
}

// Page scans in priority order, the first one with results wins.
var pageScans = []pageScan{
	{name: "meta-keywords", find: metaKeywords},
	{name: "category-links", hosts: []string{"podbean.com"}, find: categoryLinks},
	{name: "rel-tag", find: relTagLinks},
}

func metaKeywords(doc *goquery.Document) []string {
	var ret []string
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(s.AttrOr("name", ""), "keywords") {
			return true
		}
		ret = strings.Split(s.AttrOr("content", ""), ",")
		return false
	})

	return ret
}

func anchorTexts(sel *goquery.Selection) []string {
	return sel.Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	})
}

func categoryLinks(doc *goquery.Document) []string {
	return anchorTexts(doc.Find(`a[href*="/category/"]`))
}

func relTagLinks(doc *goquery.Document) []string {
	return anchorTexts(doc.Find(`a[rel~="tag"]`))
}

// articleHashtags reads hashtags from the page's main text, leaving out
// navigation and sidebars that tend to carry site-wide hashtags.
func articleHashtags(body []byte, u *url.URL) []string {
	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(body), u)
	if err != nil {
		return nil
	}

	return findHashtags(hashtag, article.TextContent)
}

type page struct {
	doc  *goquery.Document
	body []byte
	ok   bool
}

// Website fetches the episode's link and reads tags from the page markup.
// Fetch failures count as "nothing found".
type Website struct {
	pages fetch.Fetcher
	memo  *lru.Cache[string, page]

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

type WebsiteOption func(*Website)

// WithHostRate limits page fetches per host.
func WithHostRate(limit rate.Limit, burst int) WebsiteOption {
	return func(w *Website) {
		w.limit = limit
		w.burst = burst
	}
}

// WithMemoSize sets how many fetched pages are remembered.
func WithMemoSize(size int) WebsiteOption {
	return func(w *Website) {
		if c, err := lru.New[string, page](size); err == nil {
			w.memo = c
		}
	}
}

func NewWebsite(pages fetch.Fetcher, opts ...WebsiteOption) *Website {
	memo, _ := lru.New[string, page](256)
	w := &Website{
		pages:    pages,
		memo:     memo,
		limiters: map[string]*rate.Limiter{},
		limit:    rate.Limit(2),
		burst:    2,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

func (*Website) Name() string { return "website" }

func (w *Website) TryExtract(ctx context.Context, e podcast.Episode) ([]string, string, bool) {
	if w.pages == nil || e.Link == "" {
		return nil, "", false
	}
	u, err := url.Parse(e.Link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", false
	}

	p := w.page(ctx, u)
	if !p.ok {
		return nil, "", false
	}

	for _, scan := range pageScans {
		if scan.hosts != nil && !hostMatches(u.Hostname(), scan.hosts) {
			continue
		}
		if tags := Clean(scan.find(p.doc)); len(tags) > 0 {
			return tags, scan.name, true
		}
	}
	if tags := Clean(articleHashtags(p.body, u)); len(tags) > 0 {
		return tags, "article-hashtags", true
	}

	return nil, "", false
}

func (w *Website) page(ctx context.Context, u *url.URL) page {
	link := u.String()
	if p, ok := w.memo.Get(link); ok {
		return p
	}

	if err := w.limiter(u.Hostname()).Wait(ctx); err != nil {
		return page{}
	}

	p := page{}
	body, err := w.pages.Fetch(ctx, link)
	if err != nil {
		slog.DebugContext(ctx, "could not fetch episode page", "link", link, "error", err)
	} else if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		p = page{doc: doc, body: body, ok: true}
	}
	// Failures are remembered too so a dead site is only asked once.
	w.memo.Add(link, p)

	return p
}

func (w *Website) limiter(host string) *rate.Limiter {
	w.mu.Lock()
	defer w.mu.Unlock()

	l, ok := w.limiters[host]
	if !ok {
		l = rate.NewLimiter(w.limit, w.burst)
		w.limiters[host] = l
	}

	return l
}

// hostMatches reports whether host is one of domains or a subdomain of one.
func hostMatches(host string, domains []string) bool {
	host = strings.ToLower(host)
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}

	return false
}
