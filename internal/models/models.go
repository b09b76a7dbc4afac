package models

// Topic is the unit of storage in the vector index: one embedded chunk
// of a source document plus its provenance metadata. A topic is never
// mutated after upsert.
type Topic struct {
	Key       string
	Title     string
	Content   string
	Source    string
	FileName  string
	Embedding []float32
}
