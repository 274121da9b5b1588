package document

import "time"

// Document is a hosted HTML document. Slug is derived from Title and acts as
// the primary key; Created is set once and never changes.
type Document struct {
	Title   string    `json:"title" bson:"title"`
	Slug    string    `json:"slug" bson:"slug"`
	Content string    `json:"content" bson:"content"`
	Created time.Time `json:"created" bson:"created"`
}

// Summary is the listing projection of a Document.
type Summary struct {
	Slug    string    `json:"slug"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
}

// Summary returns the listing projection of d.
func (d *Document) Summary() Summary {
	return Summary{Slug: d.Slug, Title: d.Title, Created: d.Created}
}
