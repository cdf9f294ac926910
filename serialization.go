package textanalysis

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SERIALIZATION: Saving and Loading the Index
// ═══════════════════════════════════════════════════════════════════════════════
// BINARY FORMAT:
// --------------
// Little endian, every string and blob prefixed by its uint32 length:
//
//	[Header]
//	  magic "TXIX" | version: uint32 | TotalDocs: uint32 | TotalTerms: uint64
//	  NumDocStats: uint32
//
//	[Document Statistics] (for each document, by DocID)
//	  DocID: uint32 | Length: uint32 | NumTerms: uint32
//	  for each term: Term: string | Frequency: uint32
//
//	[Terms] NumTerms: uint32, then for each term (sorted):
//	  Term: string
//	  Bitmap: blob                  (roaring portable format)
//	  NumPostings: uint32
//	  for each posting: DocID | Field: string | Position | Start | End
//
// Terms and documents are written in sorted order, so equal indexes encode to
// equal bytes.
// ═══════════════════════════════════════════════════════════════════════════════

const (
	indexMagic   = "TXIX"
	indexVersion = 1
)

// Encode serializes the index to its binary format.
func (idx *InvertedIndex) Encode() ([]byte, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	w := &indexWriter{buf: new(bytes.Buffer)}
	w.buf.WriteString(indexMagic)
	w.u32(indexVersion)
	w.u32(uint32(idx.TotalDocs))
	w.u64(uint64(idx.TotalTerms))

	docIDs := make([]uint32, 0, len(idx.DocStats))
	for id := range idx.DocStats {
		docIDs = append(docIDs, id)
	}
	sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

	w.u32(uint32(len(docIDs)))
	for _, id := range docIDs {
		stats := idx.DocStats[id]
		w.u32(stats.DocID)
		w.u32(uint32(stats.Length))

		terms := make([]string, 0, len(stats.TermFreqs))
		for term := range stats.TermFreqs {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		w.u32(uint32(len(terms)))
		for _, term := range terms {
			w.str(term)
			w.u32(uint32(stats.TermFreqs[term]))
		}
	}

	terms := idx.sortedTerms()
	w.u32(uint32(len(terms)))
	for _, term := range terms {
		w.str(term)

		bm := idx.DocBitmaps[term]
		if bm == nil {
			bm = roaring.NewBitmap()
		}
		data, err := bm.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("encode bitmap for %q: %w", term, err)
		}
		w.blob(data)

		postings := idx.PostingsList[term]
		w.u32(uint32(len(postings)))
		for _, p := range postings {
			w.u32(p.DocID)
			w.str(p.Field)
			w.u32(p.Position)
			w.u32(p.Start)
			w.u32(p.End)
		}
	}
	return w.buf.Bytes(), nil
}

// Decode replaces the contents of the index with data produced by Encode.
// On error the index is left unchanged.
func (idx *InvertedIndex) Decode(data []byte) error {
	r := &indexReader{data: data}
	if string(r.next(len(indexMagic))) != indexMagic {
		return fmt.Errorf("%w: bad magic", ErrCorruptIndex)
	}
	if v := r.u32(); r.err == nil && v != indexVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, v)
	}

	totalDocs := int(r.u32())
	totalTerms := int64(r.u64())

	docStats := make(map[uint32]DocumentStats)
	for n := r.count(); n > 0 && r.err == nil; n-- {
		stats := DocumentStats{
			DocID:     r.u32(),
			Length:    int(r.u32()),
			TermFreqs: make(map[string]int),
		}
		for m := r.count(); m > 0 && r.err == nil; m-- {
			term := r.str()
			stats.TermFreqs[term] = int(r.u32())
		}
		docStats[stats.DocID] = stats
	}

	bitmaps := make(map[string]*roaring.Bitmap)
	postingsList := make(map[string][]Posting)
	for n := r.count(); n > 0 && r.err == nil; n-- {
		term := r.str()

		bm := roaring.NewBitmap()
		if blob := r.blob(); r.err == nil {
			if err := bm.UnmarshalBinary(blob); err != nil {
				return fmt.Errorf("%w: bitmap for %q: %v", ErrCorruptIndex, term, err)
			}
		}

		var postings []Posting
		for m := r.count(); m > 0 && r.err == nil; m-- {
			postings = append(postings, Posting{
				DocID:    r.u32(),
				Field:    r.str(),
				Position: r.u32(),
				Start:    r.u32(),
				End:      r.u32(),
			})
		}
		bitmaps[term] = bm
		postingsList[term] = postings
	}

	if r.err != nil {
		return r.err
	}
	if r.off != len(r.data) {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorruptIndex, len(r.data)-r.off)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.DocBitmaps = bitmaps
	idx.PostingsList = postingsList
	idx.DocStats = docStats
	idx.TotalDocs = totalDocs
	idx.TotalTerms = totalTerms
	return nil
}

type indexWriter struct {
	buf     *bytes.Buffer
	scratch [8]byte
}

func (w *indexWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.scratch[:4], v)
	w.buf.Write(w.scratch[:4])
}

func (w *indexWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.scratch[:8], v)
	w.buf.Write(w.scratch[:8])
}

func (w *indexWriter) blob(b []byte) {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *indexWriter) str(s string) {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
}

// indexReader reads the binary format. The first error sticks; later reads
// return zero values.
type indexReader struct {
	data []byte
	off  int
	err  error
}

func (r *indexReader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.off < n {
		r.err = fmt.Errorf("%w: unexpected end of data at offset %d", ErrCorruptIndex, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *indexReader) u32() uint32 {
	if b := r.next(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *indexReader) u64() uint64 {
	if b := r.next(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

// count reads an element count, rejecting counts the remaining data cannot
// possibly hold.
func (r *indexReader) count() int {
	n := int(r.u32())
	if r.err == nil && n > len(r.data)-r.off {
		r.err = fmt.Errorf("%w: count %d exceeds remaining data", ErrCorruptIndex, n)
		return 0
	}
	return n
}

func (r *indexReader) blob() []byte {
	return r.next(int(r.u32()))
}

func (r *indexReader) str() string {
	return string(r.blob())
}
