package query

import (
	"github.com/dc5v/tictacdb/internal/storage"
	"github.com/dc5v/tictacdb/pkg/errors"
)

// Condition is the tag-set predicate of a search or evaluate request,
// applied to the request's tag list versus a record's inline tag set.
type Condition int

const (
	// ConditionOr matches any record reached through a selected shard; shard
	// selection already guarantees one query tag is present.
	ConditionOr Condition = iota
	// ConditionAnd matches records carrying every query tag.
	ConditionAnd
	// ConditionNand matches records missing at least one query tag.
	ConditionNand
	// ConditionNor matches records carrying none of the query tags.
	ConditionNor
)

// ParseCondition resolves the request's condition string. An absent value
// defaults to "or"; anything outside {and, or, nand, nor} is a wire-code-30
// request error.
//
// Single-tag queries collapse and into or and nand into nor — the
// set-theoretic identity on singletons — so the shard router and the
// per-record predicate only ever see the canonical form.
func ParseCondition(value string, tagCount int) (Condition, error) {
	var cond Condition

	switch value {
	case "", "or":
		cond = ConditionOr
	case "and":
		cond = ConditionAnd
	case "nand":
		cond = ConditionNand
	case "nor":
		cond = ConditionNor
	default:
		return 0, errors.NewRequestError(
			nil, errors.WireCodeBadCondition, "Invalid request. Not supported condition.",
		).WithField("condition").WithProvided(value)
	}

	if tagCount == 1 {
		switch cond {
		case ConditionAnd:
			cond = ConditionOr
		case ConditionNand:
			cond = ConditionNor
		}
	}

	return cond, nil
}

// Negative reports whether the predicate selects shards whose tag matches
// no query tag (nand, nor) rather than any of them (or, and).
func (c Condition) Negative() bool {
	return c == ConditionNand || c == ConditionNor
}

// Matches evaluates the predicate against a record's inline tag set.
func (c Condition) Matches(tags []string, record *storage.Record) bool {
	switch c {
	case ConditionAnd:
		return record.HasAllTags(tags)
	case ConditionNand:
		return !record.HasAllTags(tags)
	case ConditionNor:
		return !record.HasAnyTag(tags)
	default:
		return true
	}
}

// String returns the wire spelling of the condition.
func (c Condition) String() string {
	switch c {
	case ConditionAnd:
		return "and"
	case ConditionNand:
		return "nand"
	case ConditionNor:
		return "nor"
	default:
		return "or"
	}
}
