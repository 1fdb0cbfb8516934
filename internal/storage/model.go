package storage

// Record is the atomic unit of ingest and retrieval: a server-assigned
// identifier and epoch, an ordered sample vector, and the full tag set it
// was pushed with. Records are owned value types — the codec returns fully
// decoded records whose storage is released by ordinary garbage collection
// when the request worker drops them.
type Record struct {
	// UID is the 12-character base-62 identifier assigned at ingest.
	UID string

	// EpochMS is the server-assigned wall-clock timestamp in milliseconds.
	EpochMS int64

	// Samples is the ordered sequence of values, length >= 1. Samples carry
	// no per-element timestamp; they are positionally ordered within the
	// record.
	Samples []float64

	// Tags is the tag set the record was pushed with, length >= 1, in the
	// order written. Every shard copy of a record carries the full set, so a
	// reader that reached the record through one tag's shard can still
	// evaluate conjunctive predicates.
	Tags []string
}

// HasTag reports whether the record carries the given tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAllTags reports whether the record carries every one of the given tags.
func (r *Record) HasAllTags(tags []string) bool {
	for _, t := range tags {
		if !r.HasTag(t) {
			return false
		}
	}
	return true
}

// HasAnyTag reports whether the record carries at least one of the given
// tags.
func (r *Record) HasAnyTag(tags []string) bool {
	for _, t := range tags {
		if r.HasTag(t) {
			return true
		}
	}
	return false
}
