package models

import "time"

// PageKind identifies what a document page holds.
type PageKind string

const (
	// PageKindText is a page of wrapped report text
	PageKindText PageKind = "text"
	// PageKindAsset is a page showing a single enrichment asset
	PageKindAsset PageKind = "asset"
)

// Page is one page of a synthesized document.
// Text pages carry Lines; asset pages carry Asset and Header.
type Page struct {
	Number int      `json:"number"` // 1-based
	Kind   PageKind `json:"kind"`
	Font   string   `json:"font,omitempty"`   // Body font family active on the page
	Lines  []string `json:"lines,omitempty"`  // Wrapped lines drawn on a text page
	Header string   `json:"header,omitempty"` // Section header on an asset page
	Asset  *Asset   `json:"asset,omitempty"`
}

// Document is the finalized digest document.
// Content holds the complete PDF bytes; Path is set once the document is saved.
type Document struct {
	Title     string    `json:"title"`
	Pages     []Page    `json:"pages"`
	Content   []byte    `json:"-"`
	Path      string    `json:"path,omitempty"`
	Font      string    `json:"font"`
	Fallback  bool      `json:"fallback"` // Built-in font used because the preferred font failed to load
	CreatedAt time.Time `json:"created_at"`
}

// PageCount returns the total number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// TextPageCount returns the number of text pages.
func (d *Document) TextPageCount() int {
	return d.countKind(PageKindText)
}

// AssetPageCount returns the number of asset pages.
func (d *Document) AssetPageCount() int {
	return d.countKind(PageKindAsset)
}

func (d *Document) countKind(kind PageKind) int {
	n := 0
	for _, p := range d.Pages {
		if p.Kind == kind {
			n++
		}
	}
	return n
}
