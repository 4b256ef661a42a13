package entity

// Chapter is one unit of extracted e-book content.
type Chapter struct {
	Title   string
	Content string
}
