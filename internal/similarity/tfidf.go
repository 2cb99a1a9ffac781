package similarity

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"paperscribe/internal/domain"
)

const scoreThreshold = 0.01

// stop words: common English plus research-paper boilerplate that would
// otherwise dominate every abstract.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the a an and or but in on at to for
		of with by from is are was were be been being have has had do does
		did will would could should may might can this that these those it
		its we our their they which what who whom how when where than then
		also as not no nor so if each every all both such into over after
		before between under above up down out about through during paper
		propose proposed show shown using used results approach method
		methods based model models new novel`) {
		stopwords[w] = struct{}{}
	}
}

var tokenExpr = regexp.MustCompile(`[a-z][a-z0-9]+`)

// Tokenize lowercases the text and keeps alphabetic-led tokens longer than
// two characters with stop words removed.
func Tokenize(text string) []string {
	raw := tokenExpr.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) <= 2 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// BuildTFIDF builds sparse TF-IDF vectors for the documents.
// tf = count/doc-length, idf = ln(N / (1 + df)).
func BuildTFIDF(documents [][]string) []map[string]float64 {
	n := len(documents)
	if n == 0 {
		return nil
	}

	df := map[string]int{}
	for _, doc := range documents {
		seen := map[string]struct{}{}
		for _, term := range doc {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	idf := make(map[string]float64, len(df))
	for term, freq := range df {
		idf[term] = math.Log(float64(n) / float64(1+freq))
	}

	vectors := make([]map[string]float64, 0, n)
	for _, doc := range documents {
		tf := map[string]int{}
		for _, term := range doc {
			tf[term]++
		}
		total := len(doc)
		if total == 0 {
			total = 1
		}
		vec := make(map[string]float64, len(tf))
		for term, count := range tf {
			vec[term] = float64(count) / float64(total) * idf[term]
		}
		vectors = append(vectors, vec)
	}

	return vectors
}

// CosineSim computes cosine similarity between two sparse vectors.
func CosineSim(a, b map[string]float64) float64 {
	var dot float64
	for term, av := range a {
		if bv, ok := b[term]; ok {
			dot += av * bv
		}
	}
	if dot == 0 {
		return 0
	}

	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Ranked is one corpus paper with its similarity score to the target.
type Ranked struct {
	Paper domain.Paper
	Score float64
}

func paperText(p domain.Paper) string {
	return p.Title + " " + p.Abstract
}

// Rank orders corpus papers by TF-IDF cosine similarity to the target,
// descending, truncated to topK. The target participates in the corpus so
// IDF reflects the full set being compared, but is excluded from the result;
// pairs at or below the score threshold are dropped.
func Rank(target domain.Paper, corpus []domain.Paper, topK int) []Ranked {
	if len(corpus) == 0 || topK <= 0 {
		return nil
	}

	documents := make([][]string, 0, len(corpus)+1)
	documents = append(documents, Tokenize(paperText(target)))
	for _, p := range corpus {
		documents = append(documents, Tokenize(paperText(p)))
	}

	vectors := BuildTFIDF(documents)
	targetVec := vectors[0]

	var ranked []Ranked
	for i, p := range corpus {
		if p.ID == target.ID {
			continue
		}
		score := CosineSim(targetVec, vectors[i+1])
		if score > scoreThreshold {
			ranked = append(ranked, Ranked{Paper: p, Score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
