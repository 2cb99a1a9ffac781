package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"paperscribe/internal/domain"
)

func samplePapers() []domain.Paper {
	return []domain.Paper{
		{
			ID:              "2401.00001v2",
			Title:           "Scaling Transformers",
			Authors:         []string{"A. Author", "B. Author"},
			Categories:      []string{"cs.LG", "cs.CL"},
			PrimaryCategory: "cs.LG",
			Published:       "2024-01-01T00:00:00Z",
			Summary:         "A short summary.",
			Score:           3,
			URL:             "http://arxiv.org/abs/2401.00001v2",
		},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	if f, ok := ParseFormat("BibTeX"); !ok || f != BibTeX {
		t.Fatalf("ParseFormat(BibTeX) = %v, %v", f, ok)
	}
	if _, ok := ParseFormat("xml"); ok {
		t.Fatal("unknown format accepted")
	}
}

func TestWriteBibTeX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, samplePapers(), BibTeX); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "@article{arxiv240100001,") {
		t.Fatalf("citation key wrong: %q", out)
	}
	if !strings.Contains(out, "author = {A. Author and B. Author}") {
		t.Fatalf("authors wrong: %q", out)
	}
	if !strings.Contains(out, "year = {2024}") {
		t.Fatalf("year missing: %q", out)
	}
	if !strings.Contains(out, "primaryClass = {cs.LG}") {
		t.Fatalf("primary class missing: %q", out)
	}
}

func TestWriteMarkdown(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, samplePapers(), Markdown); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "## [Scaling Transformers](http://arxiv.org/abs/2401.00001v2)") {
		t.Fatalf("heading link missing: %q", out)
	}
	if !strings.Contains(out, "*A. Author, B. Author*") {
		t.Fatalf("authors missing: %q", out)
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, samplePapers(), CSV); err != nil {
		t.Fatalf("write: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want header plus one row", len(records))
	}
	row := records[1]
	if row[0] != "2401.00001v2" || row[2] != "A. Author; B. Author" || row[5] != "3" {
		t.Fatalf("row = %v", row)
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, samplePapers(), JSON); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 1 || out[0]["id"] != "2401.00001v2" {
		t.Fatalf("json = %v", out)
	}
}

func TestWriteEmptyList(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, nil, JSON); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("empty export = %q, want []", buf.String())
	}
}
