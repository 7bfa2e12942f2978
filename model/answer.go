package model

import (
	"encoding/json"
	"fmt"
)

// AnswerKind tags the variant of an Answer
type AnswerKind string

const (
	AnswerKindText   AnswerKind = "text"
	AnswerKindRecord AnswerKind = "record"
	AnswerKindObject AnswerKind = "object"
)

// AnswerRecord is a structured answer carrying a list of result strings
type AnswerRecord struct {
	SearchResult []string `json:"search_result"`
}

// String returns the record as JSON, used when the record has no usable result list
func (r *AnswerRecord) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%v", r.SearchResult)
	}
	return string(b)
}

// Answer is a single retrieval result in one of three shapes: plain text, a
// structured record with a search_result list, or an opaque object exposing a
// text accessor. Callers collapse any shape to a string with Normalize.
type Answer struct {
	Kind   AnswerKind    `json:"kind"`
	Text   string        `json:"text,omitempty"`
	Record *AnswerRecord `json:"record,omitempty"`
	Object fmt.Stringer  `json:"-"`
}

// TextAnswer creates a plain text answer
func TextAnswer(text string) Answer {
	return Answer{Kind: AnswerKindText, Text: text}
}

// RecordAnswer creates a structured answer with a search_result list
func RecordAnswer(searchResult []string) Answer {
	return Answer{Kind: AnswerKindRecord, Record: &AnswerRecord{SearchResult: searchResult}}
}

// ObjectAnswer creates an answer wrapping an opaque object with a text accessor
func ObjectAnswer(object fmt.Stringer) Answer {
	return Answer{Kind: AnswerKindObject, Object: object}
}

// Normalize collapses the answer to a single string:
// plain text as-is; the first element of a record's search_result list if present,
// else the record stringified; an object via its text accessor.
func (a Answer) Normalize() string {
	switch a.Kind {
	case AnswerKindText:
		return a.Text
	case AnswerKindRecord:
		if a.Record == nil {
			return ""
		}
		if len(a.Record.SearchResult) > 0 {
			return a.Record.SearchResult[0]
		}
		return a.Record.String()
	case AnswerKindObject:
		if a.Object == nil {
			return ""
		}
		return a.Object.String()
	default:
		return ""
	}
}
