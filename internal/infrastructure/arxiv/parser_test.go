package arxiv

import (
	"testing"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>ArXiv Query Results</title>
  <entry>
    <id>http://arxiv.org/abs/2301.00001v1</id>
    <published>2023-01-01T18:00:00Z</published>
    <updated>2023-01-02T18:00:00Z</updated>
    <title>Test Paper Title</title>
    <summary>  An abstract about attention mechanisms.  </summary>
    <author><name>Alice Smith</name></author>
    <author><name>Bob Jones</name></author>
    <link href="http://arxiv.org/abs/2301.00001v1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2301.00001v1" rel="related" type="application/pdf"/>
    <arxiv:primary_category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="stat.ML" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

func TestParseEntryFields(t *testing.T) {
	t.Parallel()

	papers := NewParser(nil).Parse(sampleFeed)
	if len(papers) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(papers))
	}

	p := papers[0]
	if p.ID != "2301.00001v1" {
		t.Fatalf("unexpected id: %s", p.ID)
	}
	if p.Title != "Test Paper Title" {
		t.Fatalf("unexpected title: %s", p.Title)
	}
	if p.Abstract != "An abstract about attention mechanisms." {
		t.Fatalf("unexpected abstract: %q", p.Abstract)
	}
	if len(p.Authors) != 2 {
		t.Fatalf("expected 2 authors, got %v", p.Authors)
	}
	if p.Authors[0] != "Alice Smith" {
		t.Fatalf("unexpected first author: %s", p.Authors[0])
	}

	var hasLG bool
	for _, c := range p.Categories {
		if c == "cs.LG" {
			hasLG = true
		}
	}
	if !hasLG {
		t.Fatalf("expected cs.LG in categories, got %v", p.Categories)
	}
	if p.PrimaryCategory != "cs.LG" {
		t.Fatalf("unexpected primary category: %s", p.PrimaryCategory)
	}
	if p.URL != "http://arxiv.org/abs/2301.00001v1" {
		t.Fatalf("unexpected url: %s", p.URL)
	}
	if p.PDFURL != "http://arxiv.org/pdf/2301.00001v1" {
		t.Fatalf("unexpected pdf url: %s", p.PDFURL)
	}
	if p.Published != "2023-01-01T18:00:00Z" {
		t.Fatalf("published should stay a raw string: %q", p.Published)
	}
}

func TestParseMalformedDocument(t *testing.T) {
	t.Parallel()

	if papers := NewParser(nil).Parse("not xml at all"); len(papers) != 0 {
		t.Fatalf("malformed document should yield no papers, got %v", papers)
	}
}

func TestParseSkipsEntryWithoutID(t *testing.T) {
	t.Parallel()

	raw := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://example.org/not-arxiv</id>
    <title>No arXiv id</title>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2301.00002v1</id>
    <title>Valid Entry</title>
  </entry>
</feed>`

	papers := NewParser(nil).Parse(raw)
	if len(papers) != 1 {
		t.Fatalf("expected the malformed entry to be skipped, got %d papers", len(papers))
	}
	if papers[0].ID != "2301.00002v1" {
		t.Fatalf("unexpected surviving entry: %s", papers[0].ID)
	}
}

func TestParseDefaultsMissingFields(t *testing.T) {
	t.Parallel()

	raw := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.00003v1</id>
    <title>Bare Entry</title>
  </entry>
</feed>`

	papers := NewParser(nil).Parse(raw)
	if len(papers) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(papers))
	}

	p := papers[0]
	if p.Abstract != "" || p.PDFURL != "" || p.PrimaryCategory != "" {
		t.Fatalf("missing optional fields must default to empty, got %+v", p)
	}
	if len(p.Authors) != 0 {
		t.Fatalf("expected no authors, got %v", p.Authors)
	}
}
