package record

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"privaflow/pkg/logger"
)

// Extraction CSV column layout. The categorization columns carry
// JSON-encoded substructures produced by the upstream extraction run.
const (
	colSegmentIndex = 0
	colDataType     = 1
	colDataCategory = 2
	colDataFlow     = 3
	colPurpose      = 4
	colMethod       = 5

	minColumns = 4
)

// categorizedField is the shape of the categorization columns:
// a list of category assignments with the text they were matched on.
type categorizedField struct {
	Output []struct {
		DataCategory string `json:"DataCategory"`
		InputText    string `json:"InputText"`
	} `json:"Output"`
}

// flowField is the shape of the data_flow column: sender/receiver pairs.
type flowField struct {
	Data []struct {
		Sender   string `json:"data_sender"`
		Receiver string `json:"data_receiver"`
	} `json:"data"`
}

// Ingestor decodes raw extraction rows into typed DataFlowRecords.
// Malformed rows are dropped with a logged reason; they never abort the batch.
type Ingestor struct {
	segments map[int]string
}

func NewIngestor() *Ingestor {
	return &Ingestor{
		segments: make(map[int]string),
	}
}

// LoadSegments reads the segment table (index,text) used to attach the
// original policy text to each record for verification output.
func (ing *Ingestor) LoadSegments(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(row) < 2 {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			// header row or junk line
			continue
		}
		ing.segments[idx] = row[1]
	}

	return nil
}

// ReadRecords parses an extraction CSV into records. Rows that fail to
// decode or violate the record invariants are counted and logged, and the
// remaining rows are returned.
func (ing *Ingestor) ReadRecords(r io.Reader) ([]DataFlowRecord, Diagnostics, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []DataFlowRecord
	var diag Diagnostics

	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			diag.RowsRead++
			diag.Malformed++
			logger.Warn("[Ingest] Unreadable CSV row", "line", line, "err", err)
			continue
		}

		if line == 1 && looksLikeHeader(row) {
			continue
		}
		diag.RowsRead++

		rec, err := ing.decodeRow(row)
		if err != nil {
			diag.Malformed++
			logger.Warn("[Ingest] Dropping malformed row", "line", line, "reason", err, "raw", strings.Join(row, ","))
			continue
		}

		if err := rec.Validate(); err != nil {
			diag.Malformed++
			logger.Warn("[Ingest] Dropping invalid row", "line", line, "reason", err)
			continue
		}

		diag.Accepted++
		records = append(records, rec)
	}

	logger.Info("[Ingest] Records ingested", "read", diag.RowsRead, "accepted", diag.Accepted, "malformed", diag.Malformed)
	return records, diag, nil
}

func (ing *Ingestor) decodeRow(row []string) (DataFlowRecord, error) {
	if len(row) < minColumns {
		return DataFlowRecord{}, &MalformedError{Reason: "too few columns", Raw: strings.Join(row, ",")}
	}

	segIdx, err := strconv.Atoi(strings.TrimSpace(row[colSegmentIndex]))
	if err != nil || segIdx < 0 {
		return DataFlowRecord{}, &MalformedError{Reason: "bad segment index", Raw: row[colSegmentIndex]}
	}

	dataType := strings.TrimSpace(row[colDataType])

	category, err := decodeCategorized(row[colDataCategory], dataType)
	if err != nil {
		return DataFlowRecord{}, &MalformedError{SegmentIndex: segIdx, Reason: "bad data_category payload", Raw: row[colDataCategory]}
	}

	sender, receiver, err := decodeFlow(row[colDataFlow])
	if err != nil {
		return DataFlowRecord{}, &MalformedError{SegmentIndex: segIdx, Reason: "bad data_flow payload", Raw: row[colDataFlow]}
	}

	purpose := ""
	if len(row) > colPurpose {
		purpose, err = decodePurposes(row[colPurpose])
		if err != nil {
			return DataFlowRecord{}, &MalformedError{SegmentIndex: segIdx, Reason: "bad purpose payload", Raw: row[colPurpose]}
		}
	}

	method := ""
	if len(row) > colMethod {
		method, err = decodeCategorized(row[colMethod], dataType)
		if err != nil {
			return DataFlowRecord{}, &MalformedError{SegmentIndex: segIdx, Reason: "bad method payload", Raw: row[colMethod]}
		}
	}

	return DataFlowRecord{
		SegmentIndex: segIdx,
		SegmentText:  ing.segments[segIdx],
		DataType:     dataType,
		DataCategory: category,
		SourceParty:  sender,
		TargetParty:  receiver,
		Purpose:      purpose,
		Method:       method,
	}, nil
}

// decodeCategorized extracts a single category label from a categorization
// column. Plain-text cells pass through untouched. When several assignments
// are present, the one whose InputText mentions the data type wins,
// otherwise the last.
func decodeCategorized(raw, dataType string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if !looksLikeJSON(raw) {
		return raw, nil
	}

	var field categorizedField
	if err := UnmarshalFlexible(raw, &field); err != nil {
		return "", err
	}
	if len(field.Output) == 0 {
		return "Unspecified", nil
	}

	for _, item := range field.Output {
		if dataType != "" && strings.Contains(item.InputText, dataType) {
			return item.DataCategory, nil
		}
	}
	return field.Output[len(field.Output)-1].DataCategory, nil
}

// decodePurposes joins all purpose assignments with "; ", preserving the
// multi-purpose cells the extraction emits.
func decodePurposes(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if !looksLikeJSON(raw) {
		return raw, nil
	}

	var field categorizedField
	if err := UnmarshalFlexible(raw, &field); err != nil {
		return "", err
	}

	parts := make([]string, 0, len(field.Output))
	for _, item := range field.Output {
		if item.DataCategory != "" {
			parts = append(parts, item.DataCategory)
		}
	}
	return strings.Join(parts, "; "), nil
}

// decodeFlow extracts the sender/receiver pair from the data_flow column.
// The last pair wins when the extraction emitted several.
func decodeFlow(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", nil
	}

	var field flowField
	if err := UnmarshalFlexible(raw, &field); err != nil {
		return "", "", err
	}

	sender, receiver := "", ""
	for _, item := range field.Data {
		sender = item.Sender
		receiver = item.Receiver
	}
	return sender, receiver, nil
}

func looksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") ||
		strings.HasPrefix(s, "'") || strings.HasPrefix(s, "\"")
}

func looksLikeHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSpace(row[0]))
	return err != nil
}
