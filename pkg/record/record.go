package record

import (
	"fmt"
	"strings"
)

// DataFlowRecord is one row of extraction output: a single observed data
// flow inside one policy text segment. Party names are raw mentions and
// still need entity resolution.
type DataFlowRecord struct {
	SegmentIndex int    `json:"segment_index"`
	SegmentText  string `json:"segment_text,omitempty"`
	DataType     string `json:"data_type"`
	DataCategory string `json:"data_category"`
	SourceParty  string `json:"source_party"`
	TargetParty  string `json:"target_party"`
	Purpose      string `json:"purpose"`
	Method       string `json:"method"`

	// Canonical entity names of the two parties, attached by the pipeline
	// once resolution has run. Empty straight after ingestion.
	ResolvedSource string `json:"resolved_source,omitempty"`
	ResolvedTarget string `json:"resolved_target,omitempty"`
}

// Validate checks the record invariants: a data type must be present and at
// least one of the two parties must be named.
func (r DataFlowRecord) Validate() error {
	if strings.TrimSpace(r.DataType) == "" {
		return &MalformedError{SegmentIndex: r.SegmentIndex, Reason: "missing data type"}
	}
	if strings.TrimSpace(r.SourceParty) == "" && strings.TrimSpace(r.TargetParty) == "" {
		return &MalformedError{SegmentIndex: r.SegmentIndex, Reason: "both parties empty"}
	}
	return nil
}

// MalformedError describes a row that failed to decode or violated the
// record invariants. It is always recovered locally: the row is dropped,
// counted and logged, never fatal for the batch.
type MalformedError struct {
	Line         int
	SegmentIndex int
	Reason       string
	Raw          string
}

func (e *MalformedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed record at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed record (segment %d): %s", e.SegmentIndex, e.Reason)
}

// Diagnostics counts row-level outcomes of one ingestion pass.
type Diagnostics struct {
	RowsRead  int
	Accepted  int
	Malformed int
}
