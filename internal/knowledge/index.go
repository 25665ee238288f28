// Package knowledge indexes the FAQ documents the assistant can search.
//
// Documents are split into paragraph chunks and embedded with feature
// hashing, so search needs no external model.
package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"log/slog"
	"math"
	"path"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	embeddingDim     = 512
	defaultChunkSize = 800
)

// Excerpt is a chunk of a document paired with its embedding.
type Excerpt struct {
	Filename  string
	Text      string
	Embedding []float32
}

// Result is an excerpt returned by Search along with its similarity score.
type Result struct {
	Filename string  `json:"filename"`
	Content  string  `json:"content"`
	Score    float32 `json:"score"`
}

type Index struct {
	excerpts []Excerpt
	logger   *slog.Logger
}

func NewIndex(logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{logger: logger}
}

// Load indexes every .txt, .md and .pdf file directly under dir in fsys.
// A missing directory leaves the index empty.
func (x *Index) Load(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			x.logger.Warn("knowledge.load.empty", slog.String("dir", dir))
			return nil
		}
		return fmt.Errorf("knowledge: read dir %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		text, ok, err := readDocument(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("knowledge: read %q: %w", name, err)
		}
		if !ok {
			continue
		}

		for _, c := range splitChunks(text, defaultChunkSize) {
			x.excerpts = append(x.excerpts, Excerpt{
				Filename:  name,
				Text:      c,
				Embedding: embed(c),
			})
		}
	}

	x.logger.Info("knowledge.load", slog.String("dir", dir), slog.Int("chunks", len(x.excerpts)))
	return nil
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int {
	return len(x.excerpts)
}

// Search returns up to topK chunks ordered by similarity to query. Chunks
// sharing no word with the query are left out.
func (x *Index) Search(query string, topK int) []Result {
	if len(x.excerpts) == 0 || topK <= 0 {
		return nil
	}

	q := embed(query)

	results := make([]Result, 0, len(x.excerpts))
	for _, e := range x.excerpts {
		score := cosineSimilarity(q, e.Embedding)
		if score <= 0 {
			continue
		}
		results = append(results, Result{Filename: e.Filename, Content: e.Text, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if topK < len(results) {
		results = results[:topK]
	}
	return results
}

func readDocument(fsys fs.FS, name string) (string, bool, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".txt", ".md":
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	case ".pdf":
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return "", false, err
		}
		text, err := readPDF(data)
		if err != nil {
			return "", false, err
		}
		return text, true, nil
	default:
		return "", false, nil
	}
}

func readPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// embed converts text into a unit vector using feature hashing.
func embed(text string) []float32 {
	vec := make([]float32, embeddingDim)
	for _, word := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%embeddingDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm = math.Sqrt(norm); norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"by": true, "can": true, "do": true, "does": true, "for": true, "from": true,
	"how": true, "i": true, "in": true, "is": true, "it": true, "its": true, "my": true,
	"of": true, "on": true, "or": true, "our": true, "so": true, "that": true, "the": true,
	"their": true, "them": true, "this": true, "to": true, "we": true, "what": true,
	"when": true, "where": true, "which": true, "who": true, "why": true, "will": true,
	"with": true, "you": true, "your": true,
}

func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-')
	})

	kept := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			kept = append(kept, w)
		}
	}
	return kept
}

func splitChunks(text string, maxLen int) []string {
	paragraphs := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")

	var chunks []string
	var current strings.Builder

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(p)+2 > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return float32(dot / denom)
}
