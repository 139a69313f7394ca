package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/rshade/ghtrend/internal/export"
	"github.com/rshade/ghtrend/internal/fetch"
	"github.com/rshade/ghtrend/internal/listing"
	"github.com/rshade/ghtrend/internal/logging"
	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// listFlags are the root command's listing flags.
type listFlags struct {
	top        int
	minStars   int
	maxStars   int
	search     string
	sort       string
	reverse    bool
	verbose    bool
	csvPath    string
	jsonPath   string
	outputJSON bool
}

func (lf listFlags) options() listing.Options {
	return listing.Options{
		MinStars: lf.minStars,
		MaxStars: lf.maxStars,
		Search:   lf.search,
		Sort:     lf.sort,
		Reverse:  lf.reverse,
		Top:      lf.top,
	}
}

func (lf listFlags) outputCount() int {
	n := 0
	for _, set := range []bool{lf.csvPath != "", lf.jsonPath != "", lf.outputJSON} {
		if set {
			n++
		}
	}
	return n
}

// trendingListing fetches the listing selected by --since and --language.
func (s *session) trendingListing(ctx context.Context) (fetch.Result[trending.Listing], error) {
	f, err := s.Fetcher(ctx)
	if err != nil {
		return fetch.Result[trending.Listing]{}, err
	}
	return f.Trending(ctx, fetch.TrendingRequest{Since: s.flags.since, Language: s.flags.language})
}

// runList prints, exports or encodes the filtered trending listing.
func (s *session) runList(cmd *cobra.Command, lf listFlags) error {
	ctx := cmd.Context()
	opts := lf.options()
	if err := opts.Validate(); err != nil {
		return asUsage(err)
	}
	if lf.outputCount() > 1 {
		return usageError("--csv, --json and --output-json are mutually exclusive")
	}

	res, err := s.trendingListing(ctx)
	if err != nil {
		return err
	}
	repos := listing.Apply(res.Value.Repos, opts)
	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("operation", "list").
		Str("source", res.Value.Source).
		Bool("from_cache", res.FromCache).
		Int("total", len(res.Value.Repos)).
		Int("shown", len(repos)).
		Msg("listing ready")

	staleNotice(s, cmd, "trending listing", res)
	out := cmd.OutOrStdout()
	p := s.printer(out)

	switch {
	case lf.outputJSON:
		return export.WriteDocument(out, export.NewDocument(res.Value, repos, res.Stale))
	case lf.csvPath != "":
		if err := export.ToFile(lf.csvPath, repos, export.WriteCSV); err != nil {
			return err
		}
		return p.Success("Exported %d repositories to %s", len(repos), lf.csvPath)
	case lf.jsonPath != "":
		if err := export.ToFile(lf.jsonPath, repos, export.WriteJSON); err != nil {
			return err
		}
		return p.Success("Exported %d repositories to %s", len(repos), lf.jsonPath)
	}

	if err := p.Header(res.Value.Since, res.Value.Language); err != nil {
		return err
	}
	if err := p.Repos(repos, lf.verbose); err != nil {
		return err
	}
	return p.Footer(res.Value.PubDate, len(repos))
}

// staleNotice warns on stderr when res was served from an expired record.
func staleNotice[T any](s *session, cmd *cobra.Command, what string, res fetch.Result[T]) {
	if res.Stale {
		_ = s.printer(cmd.ErrOrStderr()).StaleNotice(what, res.StoredAt, res.Cause)
	}
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
