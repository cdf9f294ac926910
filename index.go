// ═══════════════════════════════════════════════════════════════════════════════
// WHAT DOES AN INDEX DO WITH TOKENS?
// ═══════════════════════════════════════════════════════════════════════════════
// An inverted index is like the index at the back of a book. Every token an
// analyzer produces becomes one posting under its term.
//
// Example: a text analyzer (locale "en", lower case, stopwords ["the"]) over:
//
//	Doc 1: "the quick brown fox"
//	Doc 2: "the lazy dog"
//	Doc 3: "quick brown dogs"
//
// yields:
//
//	"quick" → [Doc1:Pos0 [4,9),   Doc3:Pos0 [0,5)]
//	"brown" → [Doc1:Pos1 [10,15), Doc3:Pos1 [6,11)]
//	"fox"   → [Doc1:Pos2 [16,19)]
//	"lazi"  → [Doc2:Pos0 [4,8)]
//	"dog"   → [Doc2:Pos1 [9,12),  Doc3:Pos2 [12,16)]
//
// Positions come from summing position increments; offsets come straight from
// the token and always point into the original text.
//
// The real index writer lives elsewhere; InvertedIndex is the in-memory
// reference consumer of the TokenStream contract.
// ═══════════════════════════════════════════════════════════════════════════════

package textanalysis

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

var (
	ErrResetFailed  = errors.New("analyzer rejected document")
	ErrNoPostings   = errors.New("no postings exist for term")
	ErrCorruptIndex = errors.New("corrupt index data")
)

// TokenSink consumes the tokens of one field of one document.
type TokenSink interface {
	Add(docID uint32, field string, ts TokenStream, data []byte) error
}

// Posting is one occurrence of a term.
type Posting struct {
	DocID    uint32
	Field    string
	Position uint32 // Sum of position increments, starting at increment-1
	Start    uint32 // Byte offsets into the field text
	End      uint32
}

// DocumentStats stores statistics about a single document
type DocumentStats struct {
	DocID     uint32
	Length    int            // Number of tokens over all fields
	TermFreqs map[string]int // How many times each term appears
}

// ═══════════════════════════════════════════════════════════════════════════════
// CORE DATA STRUCTURE
// ═══════════════════════════════════════════════════════════════════════════════
//
//	InvertedIndex
//	├── DocBitmaps: map[string]*roaring.Bitmap   (DOCUMENT-LEVEL)
//	│   ├── "quick" → {1, 3}
//	│   └── "fox"   → {1}
//	├── PostingsList: map[string][]Posting       (POSITION-LEVEL)
//	│   ├── "quick" → [1:body:0:[4,9), 3:body:0:[0,5)]
//	│   └── "fox"   → [1:body:2:[16,19)]
//	└── mu: mutex for thread safety
//
// Roaring bitmaps answer "which documents contain this term" compactly; the
// postings keep what the analyzer reported for every occurrence.
// ═══════════════════════════════════════════════════════════════════════════════
type InvertedIndex struct {
	mu sync.Mutex

	DocBitmaps   map[string]*roaring.Bitmap // Term → Bitmap of document IDs
	PostingsList map[string][]Posting       // Term → occurrences, in insertion order

	DocStats   map[uint32]DocumentStats // DocID → statistics
	TotalDocs  int                      // Number of distinct documents
	TotalTerms int64                    // Number of tokens across all docs

	logger *slog.Logger
}

var _ TokenSink = (*InvertedIndex)(nil)

// NewInvertedIndex creates a new empty inverted index
func NewInvertedIndex(logger *slog.Logger) *InvertedIndex {
	return &InvertedIndex{
		DocBitmaps:   make(map[string]*roaring.Bitmap),
		PostingsList: make(map[string][]Posting),
		DocStats:     make(map[uint32]DocumentStats),
		logger:       loggerOrDefault(logger),
	}
}

// Add runs ts over data and records every token as a posting of docID.
//
// STEP-BY-STEP EXAMPLE:
// ----------------------
// Input: docID=1, field="body", data="the quick fox"
//
// Step 1: Reset(data)              (a rejected input fails with ErrResetFailed)
// Step 2: Next/Token until false   → "quick" inc 1, "fox" inc 1
// Step 3: position += increment    → "quick" at 0, "fox" at 1
// Step 4: record bitmap bit + posting per token
//
// Tokens are collected before the index is touched, so a document either
// lands completely or not at all.
func (idx *InvertedIndex) Add(docID uint32, field string, ts TokenStream, data []byte) error {
	if !ts.Reset(data) {
		return fmt.Errorf("%w: doc %d field %q (%s)", ErrResetFailed, docID, field, ts.Kind())
	}

	type occurrence struct {
		term    string
		posting Posting
	}
	var occurrences []occurrence
	position := int64(-1)
	for ts.Next() {
		tok := ts.Token()
		position += int64(tok.Increment)
		if position < 0 {
			position = 0
		}
		occurrences = append(occurrences, occurrence{
			term: string(tok.Term),
			posting: Posting{
				DocID:    docID,
				Field:    field,
				Position: uint32(position),
				Start:    tok.Start,
				End:      tok.End,
			},
		})
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.logger.Debug("indexing document",
		slog.Int("docID", int(docID)),
		slog.String("field", field),
		slog.Int("tokens", len(occurrences)))

	stats, seen := idx.DocStats[docID]
	if !seen {
		stats = DocumentStats{DocID: docID, TermFreqs: make(map[string]int)}
		idx.TotalDocs++
	}
	for _, o := range occurrences {
		idx.indexToken(o.term, o.posting)
		stats.TermFreqs[o.term]++
	}
	stats.Length += len(occurrences)
	idx.DocStats[docID] = stats
	idx.TotalTerms += int64(len(occurrences))
	return nil
}

// indexToken adds a single occurrence to both storage levels.
func (idx *InvertedIndex) indexToken(term string, p Posting) {
	bm := idx.DocBitmaps[term]
	if bm == nil {
		bm = roaring.NewBitmap()
		idx.DocBitmaps[term] = bm
	}
	bm.Add(p.DocID)
	idx.PostingsList[term] = append(idx.PostingsList[term], p)
}

// Docs returns a copy of the set of documents containing term.
func (idx *InvertedIndex) Docs(term string) (*roaring.Bitmap, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	bm, ok := idx.DocBitmaps[term]
	if !ok {
		return roaring.NewBitmap(), fmt.Errorf("%w: %q", ErrNoPostings, term)
	}
	return bm.Clone(), nil
}

// Postings returns a copy of the occurrences of term.
func (idx *InvertedIndex) Postings(term string) ([]Posting, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	postings, ok := idx.PostingsList[term]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoPostings, term)
	}
	return append([]Posting(nil), postings...), nil
}

// DocFreq returns the number of documents containing term.
func (idx *InvertedIndex) DocFreq(term string) uint64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if bm, ok := idx.DocBitmaps[term]; ok {
		return bm.GetCardinality()
	}
	return 0
}

// Terms returns every indexed term, sorted.
func (idx *InvertedIndex) Terms() []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.sortedTerms()
}

func (idx *InvertedIndex) sortedTerms() []string {
	terms := make([]string, 0, len(idx.PostingsList))
	for term := range idx.PostingsList {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
