package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
)

func recordsCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("building test csv: %v", err)
	}
	return buf.String()
}

func flowCell(from, to string) string {
	return `{"data": [{"data_sender": "` + from + `", "data_receiver": "` + to + `"}]}`
}

func TestRun_ChainScenario(t *testing.T) {
	input := recordsCSV(t, [][]string{
		{"segment_index", "data_type", "data_category", "data_flow", "purpose", "method"},
		{"0", "email address", "Contact Data", flowCell("Alpha", "Beta"), "marketing", "form"},
		{"1", "location", "Location Data", flowCell("Beta", "Gamma"), "analytics", "gps"},
	})

	res, err := Run(context.Background(), strings.NewReader(input), nil, Config{
		MainParty: "Alpha",
		TopN:      10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.EmptyGraph {
		t.Fatal("expected non-empty graph")
	}
	if res.Basics.Nodes != 3 || res.Basics.Edges != 2 {
		t.Fatalf("expected 3 nodes and 2 edges, got %d and %d", res.Basics.Nodes, res.Basics.Edges)
	}
	if res.Analysis.LongestPath.Length != 2 {
		t.Fatalf("expected longest path 2, got %d", res.Analysis.LongestPath.Length)
	}
	if res.Analysis.Tree == nil || res.Analysis.Tree.Root.CanonicalName != "Alpha" {
		t.Fatalf("expected spanning tree rooted at the main party, got %+v", res.Analysis.Tree)
	}
	if res.Basics.Transparency.Score != 0 || res.Basics.Transparency.CompleteFlows != 2 {
		t.Fatalf("unexpected transparency: %+v", res.Basics.Transparency)
	}
	if res.Basics.DataTypes != 2 {
		t.Fatalf("expected 2 data types, got %d", res.Basics.DataTypes)
	}
	if got := res.Basics.CategoryTypes["Contact Data"]; len(got) != 1 || got[0] != "email address" {
		t.Fatalf("unexpected category types: %v", got)
	}
	if res.Basics.CategoryPurposes["Location Data"]["analytics"] != 1 {
		t.Fatalf("unexpected category purposes: %v", res.Basics.CategoryPurposes)
	}

	// default 40% sample over 2 records rounds up to 1
	if len(res.Sample.Records) != 1 {
		t.Fatalf("expected 1 sampled record, got %d", len(res.Sample.Records))
	}
}

func TestRun_PartyClassification(t *testing.T) {
	input := recordsCSV(t, [][]string{
		{"0", "email address", "Contact Data", flowCell("users", "we"), "service provision", ""},
		{"1", "email address", "Contact Data", flowCell("we", "Google"), "advertising", ""},
	})

	res, err := Run(context.Background(), strings.NewReader(input), nil, Config{MainParty: "Acme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Basics.FirstParties) != 1 || res.Basics.FirstParties[0] != "Acme" {
		t.Fatalf("unexpected first parties: %v", res.Basics.FirstParties)
	}
	if len(res.Basics.UserParties) != 1 || res.Basics.UserParties[0] != "users" {
		t.Fatalf("unexpected user parties: %v", res.Basics.UserParties)
	}
	if len(res.Basics.ThirdParties) != 1 || res.Basics.ThirdParties[0] != "Google" {
		t.Fatalf("unexpected third parties: %v", res.Basics.ThirdParties)
	}
	if !almostEqual(res.Basics.ThirdPartyShare, 1.0/3.0) {
		t.Fatalf("unexpected third-party share: %v", res.Basics.ThirdPartyShare)
	}
	if len(res.Basics.ClassFlows) != 2 {
		t.Fatalf("expected 2 class flow pairs, got %d", len(res.Basics.ClassFlows))
	}
}

func TestRun_SegmentsAttached(t *testing.T) {
	input := recordsCSV(t, [][]string{
		{"5", "email address", "Contact Data", flowCell("we", "Google"), "", ""},
	})
	segments := "segment_index,text\n5,We share your email address with Google.\n"

	res, err := Run(context.Background(), strings.NewReader(input), strings.NewReader(segments), Config{
		MainParty:  "Acme",
		SampleSize: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Sample.Records) != 1 {
		t.Fatalf("expected 1 sampled record, got %d", len(res.Sample.Records))
	}
	if res.Sample.Records[0].SegmentText != "We share your email address with Google." {
		t.Fatalf("expected segment text attached, got %q", res.Sample.Records[0].SegmentText)
	}
	// sampled records carry the canonical party names next to the raw mentions
	rec := res.Sample.Records[0]
	if rec.ResolvedSource != "Acme" || rec.ResolvedTarget != "Google" {
		t.Fatalf("expected resolved parties Acme/Google, got %q/%q", rec.ResolvedSource, rec.ResolvedTarget)
	}
}

func TestRun_SampleSizeWinsOverRate(t *testing.T) {
	rows := [][]string{}
	for i := 0; i < 10; i++ {
		rows = append(rows, []string{
			"0", "email address", "Contact Data", flowCell("we", "Google"), "", "",
		})
	}
	input := recordsCSV(t, rows)

	res, err := Run(context.Background(), strings.NewReader(input), nil, Config{
		MainParty:  "Acme",
		SampleSize: 3,
		SampleRate: 0.9,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Sample.Records) != 3 {
		t.Fatalf("expected sample size to win, got %d records", len(res.Sample.Records))
	}
}

func TestRun_EmptyInput(t *testing.T) {
	res, err := Run(context.Background(), strings.NewReader(""), nil, Config{MainParty: "Acme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.EmptyGraph {
		t.Fatal("expected EmptyGraph flag")
	}
	if res.Basics.Nodes != 0 || res.Basics.Edges != 0 {
		t.Fatalf("expected zero counts, got %+v", res.Basics)
	}
	if len(res.Sample.Records) != 0 {
		t.Fatalf("expected empty sample, got %d", len(res.Sample.Records))
	}
}

func TestRun_MalformedRowsSurvive(t *testing.T) {
	input := recordsCSV(t, [][]string{
		{"0", "email address", "Contact Data", flowCell("we", "Google"), "", ""},
		{"not-a-number", "email address", "Contact Data", flowCell("we", "Google"), "", ""},
	})

	res, err := Run(context.Background(), strings.NewReader(input), nil, Config{MainParty: "Acme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Diagnostics.Accepted != 1 || res.Diagnostics.Malformed != 1 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
	if res.Basics.Edges != 1 {
		t.Fatalf("expected surviving row to build 1 edge, got %d", res.Basics.Edges)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
