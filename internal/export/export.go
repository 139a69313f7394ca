// Package export writes trending listings to CSV and JSON files, and renders
// the machine-readable listing document printed by --output-json.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// ErrNothingToExport is returned when the filtered listing is empty.
var ErrNothingToExport = errors.New("no repositories to export")

// csvHeader is the column order of CSV exports.
//
//nolint:gochecknoglobals // Fixed column layout.
var csvHeader = []string{"rank", "title", "stars", "today_stars", "language", "description", "url"}

// Row is one exported repository. Rank is its 1-based position in the
// displayed list.
type Row struct {
	Rank        int    `json:"rank"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	CloneURL    string `json:"clone_url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stars"`
	StarsToday  int    `json:"stars_today"`
}

// Document is the --output-json payload.
type Document struct {
	Updated      string `json:"updated"`
	Since        string `json:"since"`
	Language     string `json:"language"`
	Source       string `json:"source,omitempty"`
	Stale        bool   `json:"stale,omitempty"`
	Count        int    `json:"count"`
	Repositories []Row  `json:"repositories"`
}

// Rows converts repos to ranked export rows.
func Rows(repos []trending.Repo) []Row {
	rows := make([]Row, 0, len(repos))
	for i, r := range repos {
		url := r.URL
		if url == "" {
			url = "https://github.com/" + r.FullName()
		}
		rows = append(rows, Row{
			Rank:        i + 1,
			Title:       r.FullName(),
			Author:      r.Owner,
			Name:        r.Name,
			URL:         url,
			CloneURL:    r.CloneURL(),
			Description: r.Description,
			Language:    r.Language,
			Stars:       r.Stars,
			StarsToday:  r.StarsToday,
		})
	}
	return rows
}

// NewDocument builds the --output-json payload for the displayed repos.
func NewDocument(l trending.Listing, repos []trending.Repo, stale bool) Document {
	rows := Rows(repos)
	return Document{
		Updated:      l.PubDate,
		Since:        l.Since,
		Language:     l.Language,
		Source:       l.Source,
		Stale:        stale,
		Count:        len(rows),
		Repositories: rows,
	}
}

// WriteCSV writes repos as CSV with a header row.
func WriteCSV(w io.Writer, repos []trending.Repo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range Rows(repos) {
		today := ""
		if r.StarsToday > 0 {
			today = strconv.Itoa(r.StarsToday)
		}
		record := []string{
			strconv.Itoa(r.Rank),
			r.Title,
			strconv.Itoa(r.Stars),
			today,
			r.Language,
			r.Description,
			r.URL,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes repos as an indented JSON array of rows.
func WriteJSON(w io.Writer, repos []trending.Repo) error {
	return encode(w, Rows(repos))
}

// WriteDocument writes doc as indented JSON.
func WriteDocument(w io.Writer, doc Document) error {
	return encode(w, doc)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// ToFile writes repos to path with write, creating parent directories. An
// empty repos slice is ErrNothingToExport and leaves no file behind.
func ToFile(path string, repos []trending.Repo, write func(io.Writer, []trending.Repo) error) (err error) {
	if len(repos) == 0 {
		return ErrNothingToExport
	}
	if dir := filepath.Dir(path); dir != "." {
		if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
			return fmt.Errorf("creating export directory: %w", mkErr)
		}
	}
	f, err := os.Create(path) //nolint:gosec // Path is chosen by the user.
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, closeErr)
		}
	}()
	if err = write(f, repos); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
