package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"paperscribe/internal/domain"
)

// Format enumerates the supported export encodings.
type Format string

const (
	BibTeX   Format = "bibtex"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// ParseFormat maps a raw string onto a known format.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(s)) {
	case BibTeX, Markdown, CSV, JSON:
		return Format(strings.ToLower(s)), true
	}
	return "", false
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case BibTeX:
		return "application/x-bibtex"
	case Markdown:
		return "text/markdown"
	case CSV:
		return "text/csv"
	default:
		return "application/json"
	}
}

// Write encodes the papers in the given format.
func Write(w io.Writer, papers []domain.Paper, format Format) error {
	switch format {
	case BibTeX:
		return writeBibTeX(w, papers)
	case Markdown:
		return writeMarkdown(w, papers)
	case CSV:
		return writeCSV(w, papers)
	case JSON:
		return writeJSON(w, papers)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// bibKey builds a citation key from the id, stripping the version suffix.
func bibKey(id string) string {
	if i := strings.LastIndex(id, "v"); i > 0 {
		id = id[:i]
	}
	return "arxiv" + strings.ReplaceAll(id, ".", "")
}

func bibYear(published string) string {
	if len(published) >= 4 {
		return published[:4]
	}
	return ""
}

func writeBibTeX(w io.Writer, papers []domain.Paper) error {
	for _, p := range papers {
		var b strings.Builder
		fmt.Fprintf(&b, "@article{%s,\n", bibKey(p.ID))
		fmt.Fprintf(&b, "  title = {%s},\n", p.Title)
		if len(p.Authors) > 0 {
			fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(p.Authors, " and "))
		}
		if year := bibYear(p.Published); year != "" {
			fmt.Fprintf(&b, "  year = {%s},\n", year)
		}
		fmt.Fprintf(&b, "  eprint = {%s},\n", p.ID)
		fmt.Fprintf(&b, "  archivePrefix = {arXiv}")
		if p.PrimaryCategory != "" {
			fmt.Fprintf(&b, ",\n  primaryClass = {%s}", p.PrimaryCategory)
		}
		b.WriteString("\n}\n\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeMarkdown(w io.Writer, papers []domain.Paper) error {
	for _, p := range papers {
		var b strings.Builder
		if p.URL != "" {
			fmt.Fprintf(&b, "## [%s](%s)\n\n", p.Title, p.URL)
		} else {
			fmt.Fprintf(&b, "## %s\n\n", p.Title)
		}
		if len(p.Authors) > 0 {
			fmt.Fprintf(&b, "*%s*\n\n", strings.Join(p.Authors, ", "))
		}
		if len(p.Categories) > 0 {
			fmt.Fprintf(&b, "`%s`\n\n", strings.Join(p.Categories, "` `"))
		}
		if p.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", p.Summary)
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(w io.Writer, papers []domain.Paper) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "title", "authors", "categories", "published", "score", "url"}); err != nil {
		return err
	}
	for _, p := range papers {
		record := []string{
			p.ID,
			p.Title,
			strings.Join(p.Authors, "; "),
			strings.Join(p.Categories, "; "),
			p.Published,
			fmt.Sprintf("%d", p.Score),
			p.URL,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonPaper struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Abstract   string   `json:"abstract,omitempty"`
	Authors    []string `json:"authors,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Published  string   `json:"published,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Score      int      `json:"score"`
	URL        string   `json:"url,omitempty"`
	PDFURL     string   `json:"pdf_url,omitempty"`
}

func writeJSON(w io.Writer, papers []domain.Paper) error {
	out := make([]jsonPaper, 0, len(papers))
	for _, p := range papers {
		out = append(out, jsonPaper{
			ID:         p.ID,
			Title:      p.Title,
			Abstract:   p.Abstract,
			Authors:    p.Authors,
			Categories: p.Categories,
			Published:  p.Published,
			Summary:    p.Summary,
			Score:      p.Score,
			URL:        p.URL,
			PDFURL:     p.PDFURL,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
