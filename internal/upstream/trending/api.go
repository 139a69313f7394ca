package trending

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"resty.dev/v3"

	"github.com/rshade/ghtrend/internal/upstream"
)

// DefaultAPIBase is the root of the published trending snapshots.
const DefaultAPIBase = "https://raw.githubusercontent.com/isboyjc/github-trending-api/main/data"

// apiResponse is the snapshot document: {"pubDate": ..., "items": [...]}.
type apiResponse struct {
	PubDate string    `json:"pubDate"`
	Items   []apiItem `json:"items"`
}

type apiItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       count  `json:"stars"`
	AddStars    *count `json:"addStars"`
	TodayStars  *count `json:"todayStars"`
}

// APIClient reads {base}/{since}/{language}.json.
type APIClient struct {
	client *resty.Client
	base   string
}

// NewAPIClient creates a client. An empty base uses DefaultAPIBase.
func NewAPIClient(client *resty.Client, base string) *APIClient {
	if base == "" {
		base = DefaultAPIBase
	}
	return &APIClient{client: client, base: strings.TrimRight(base, "/")}
}

// Name identifies the source in logs and on the Listing.
func (a *APIClient) Name() string { return SourceAPI }

// Fetch downloads and normalizes one snapshot. An empty snapshot is reported
// as malformed so the caller moves on to the next source.
func (a *APIClient) Fetch(ctx context.Context, since, language string) (*Listing, error) {
	if language == "" {
		language = LanguageAll
	}
	u := fmt.Sprintf("%s/%s/%s.json", a.base, url.PathEscape(since), url.PathEscape(strings.ToLower(language)))

	body, err := upstream.GetText(ctx, a.client, u, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	return ParseAPIResponse([]byte(body), since, language)
}

// ParseAPIResponse normalizes a snapshot document.
func ParseAPIResponse(body []byte, since, language string) (*Listing, error) {
	var doc apiResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding trending snapshot: %w", upstream.ErrMalformed, err)
	}

	listing := &Listing{
		Since:    since,
		Language: language,
		PubDate:  doc.PubDate,
		Source:   SourceAPI,
		Repos:    make([]Repo, 0, len(doc.Items)),
	}

	for _, item := range doc.Items {
		owner, name, err := SplitFullName(item.Title)
		if err != nil {
			continue
		}

		link := item.URL
		if link == "" {
			link = item.Link
		}
		if link == "" {
			link = "https://github.com/" + owner + "/" + name
		}

		var today int
		switch {
		case item.TodayStars != nil:
			today = int(*item.TodayStars)
		case item.AddStars != nil:
			today = int(*item.AddStars)
		}

		listing.Repos = append(listing.Repos, Repo{
			Owner:       owner,
			Name:        name,
			Description: strings.TrimSpace(item.Description),
			Language:    strings.TrimSpace(item.Language),
			Stars:       int(item.Stars),
			StarsToday:  today,
			URL:         link,
		})
	}

	if len(listing.Repos) == 0 {
		return nil, fmt.Errorf("%w: trending snapshot has no repositories", upstream.ErrMalformed)
	}
	return listing, nil
}
