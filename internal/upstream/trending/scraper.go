package trending

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"resty.dev/v3"

	"github.com/rshade/ghtrend/internal/upstream"
)

// DefaultTrendingURL is the public trending page.
const DefaultTrendingURL = "https://github.com/trending"

var (
	starsTodayRe = regexp.MustCompile(`(?i)([\d,]+)\s+stars?\s+(today|this week|this month)`)
	countRe      = regexp.MustCompile(`\d[\d,.]*[kKmM]?`)
)

// Scraper parses the public trending page.
type Scraper struct {
	client *resty.Client
	base   string
	now    func() time.Time
}

// NewScraper creates a scraper. An empty base uses DefaultTrendingURL.
func NewScraper(client *resty.Client, base string) *Scraper {
	if base == "" {
		base = DefaultTrendingURL
	}
	return &Scraper{client: client, base: strings.TrimRight(base, "/"), now: time.Now}
}

// Name identifies the source in logs and on the Listing.
func (s *Scraper) Name() string { return SourceScraper }

// Fetch downloads {base}/{language}?since={since} and parses it. A page with
// no repositories is reported as malformed.
func (s *Scraper) Fetch(ctx context.Context, since, language string) (*Listing, error) {
	u := s.base
	if language != "" && language != LanguageAll {
		u += "/" + url.PathEscape(strings.ToLower(language))
	}
	u += "?since=" + url.QueryEscape(since)

	body, err := upstream.GetText(ctx, s.client, u, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, err
	}

	repos, err := ParseTrendingHTML(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("%w: no repositories found on trending page", upstream.ErrMalformed)
	}

	if language == "" {
		language = LanguageAll
	}
	return &Listing{
		Since:    since,
		Language: language,
		PubDate:  s.now().UTC().Format(http.TimeFormat),
		Source:   SourceScraper,
		Repos:    repos,
	}, nil
}

// ParseTrendingHTML extracts repositories from the trending page markup. Each
// repository is an <article class="Box-row"> holding an h2 link to
// /owner/name, an optional description paragraph, the language, the
// stargazers link and a "N stars today" note.
func ParseTrendingHTML(r io.Reader) ([]Repo, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing trending page: %w", upstream.ErrMalformed, err)
	}

	var repos []Repo
	for _, article := range findAll(doc, func(n *html.Node) bool {
		return n.Data == "article" && hasClass(n, "Box-row")
	}) {
		if repo, ok := parseArticle(article); ok {
			repos = append(repos, repo)
		}
	}
	return repos, nil
}

func parseArticle(article *html.Node) (Repo, bool) {
	var repo Repo

	h2 := findFirst(article, func(n *html.Node) bool { return n.Data == "h2" })
	if h2 == nil {
		return repo, false
	}
	link := findFirst(h2, func(n *html.Node) bool { return n.Data == "a" && attr(n, "href") != "" })
	if link == nil {
		return repo, false
	}
	owner, name, err := SplitFullName(attr(link, "href"))
	if err != nil {
		return repo, false
	}
	repo.Owner, repo.Name = owner, name
	repo.URL = "https://github.com/" + owner + "/" + name

	if p := findFirst(article, func(n *html.Node) bool { return n.Data == "p" && hasClass(n, "col-9") }); p != nil {
		repo.Description = collapseSpace(textOf(p))
	}

	if lang := findFirst(article, func(n *html.Node) bool {
		return n.Data == "span" && attr(n, "itemprop") == "programmingLanguage"
	}); lang != nil {
		repo.Language = collapseSpace(textOf(lang))
	}

	if stars := findFirst(article, func(n *html.Node) bool {
		return n.Data == "a" && strings.HasSuffix(attr(n, "href"), "/stargazers")
	}); stars != nil {
		repo.Stars = ParseCount(countRe.FindString(textOf(stars)))
	}

	if m := starsTodayRe.FindStringSubmatch(textOf(article)); m != nil {
		repo.StarsToday = ParseCount(m[1])
	}

	return repo, true
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
