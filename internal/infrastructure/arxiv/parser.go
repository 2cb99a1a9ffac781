package arxiv

import (
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"

	"paperscribe/internal/domain"
)

// Parser converts arXiv API Atom responses into domain papers.
type Parser struct {
	fp     *gofeed.Parser
	logger *slog.Logger
}

// NewParser builds a parser; logger may be nil.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{fp: gofeed.NewParser(), logger: logger}
}

// Parse converts one Atom response document into papers, preserving entry
// order. A document that fails to parse yields an empty list (logged); an
// entry without a usable identifier is skipped without affecting the rest.
func (p *Parser) Parse(raw string) []domain.Paper {
	feed, err := p.fp.ParseString(raw)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("parse response", "error", err)
		}
		return nil
	}

	papers := make([]domain.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		paper, ok := parseEntry(item)
		if !ok {
			if p.logger != nil {
				p.logger.Warn("skipping entry without arXiv id", "title", item.Title)
			}
			continue
		}
		papers = append(papers, paper)
	}
	return papers
}

func parseEntry(item *gofeed.Item) (domain.Paper, bool) {
	id := idFromURL(item.GUID)
	if id == "" {
		return domain.Paper{}, false
	}

	authors := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	return domain.Paper{
		ID:              id,
		Title:           collapseWhitespace(item.Title),
		Abstract:        strings.TrimSpace(item.Description),
		Authors:         authors,
		Published:       item.Published,
		Updated:         item.Updated,
		Categories:      item.Categories,
		PrimaryCategory: primaryCategory(item),
		URL:             item.GUID,
		PDFURL:          pdfLink(item),
	}, true
}

// idFromURL extracts the stable id from the canonical abstract URL,
// e.g. "http://arxiv.org/abs/2301.00001v1" -> "2301.00001v1".
func idFromURL(url string) string {
	if idx := strings.LastIndex(url, "/abs/"); idx >= 0 {
		return url[idx+len("/abs/"):]
	}
	return ""
}

func pdfLink(item *gofeed.Item) string {
	for _, link := range item.Links {
		if strings.Contains(link, "/pdf/") {
			return link
		}
	}
	return ""
}

// primaryCategory reads the arxiv:primary_category extension, falling back
// to the first category tag.
func primaryCategory(item *gofeed.Item) string {
	if ns, ok := item.Extensions["arxiv"]; ok {
		if exts, ok := ns["primary_category"]; ok && len(exts) > 0 {
			if term, ok := exts[0].Attrs["term"]; ok {
				return term
			}
		}
	}
	if len(item.Categories) > 0 {
		return item.Categories[0]
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
