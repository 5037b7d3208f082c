// Package export serializes run results into the tabular formats consumed
// by the visualization and reporting side.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"privaflow/pkg/flowgraph"
	"privaflow/pkg/pipeline"
	"privaflow/pkg/record"
	"privaflow/pkg/sample"
)

// ratingScale is the instruction row placed above verification samples so
// reviewers rate each extraction on the same 7-point scale.
const ratingScale = "Please rate below using the scale (1:Strongly disagree, 2:Disagree, 3:Somewhat disagree, 4:Neither agree nor disagree, 5:Somewhat agree, 6:Agree, 7:Strongly agree)."

var verificationHeader = []string{
	"Text Segment",
	"Data Type", "Data Type Evaluation (1-7)",
	"Data Category", "Data Category Evaluation (1-7)",
	"Sender", "Receiver",
	"Resolved Sender", "Resolved Receiver", "Data Flow Evaluation (1-7)",
	"Purpose", "Purpose Evaluation (1-7)",
	"Collection Method", "Collection Method Evaluation (1-7)",
}

// WriteNodesCSV writes the node list: canonical name, class, role, aliases.
func WriteNodesCSV(w io.Writer, g *flowgraph.Graph) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"entity", "class", "role", "aliases"}); err != nil {
		return err
	}
	for _, n := range g.Nodes() {
		row := []string{
			n.CanonicalName,
			string(n.Class),
			string(n.Role),
			strings.Join(n.Aliases, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEdgesCSV writes the edge list with aggregated attributes and weight.
func WriteEdgesCSV(w io.Writer, g *flowgraph.Graph) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"from", "to", "weight", "categories", "purposes", "methods"}); err != nil {
		return err
	}
	for _, e := range g.Edges() {
		var categories, purposes, methods []string
		for _, a := range e.Attributes {
			categories = appendUnique(categories, a.Category)
			purposes = appendUnique(purposes, a.Purpose)
			methods = appendUnique(methods, a.Method)
		}
		row := []string{
			e.From.CanonicalName,
			e.To.CanonicalName,
			strconv.Itoa(e.Weight),
			strings.Join(categories, "; "),
			strings.Join(purposes, "; "),
			strings.Join(methods, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDegreeCSV writes the degree table with the directional split:
// total degree plus the in- and out-degree each entity contributes.
func WriteDegreeCSV(w io.Writer, m flowgraph.MetricResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"entity", m.Name, "in_degree", "out_degree"}); err != nil {
		return err
	}
	for _, s := range m.Scores {
		row := []string{
			s.Entity.CanonicalName,
			formatScore(s.Value),
			strconv.Itoa(s.InDegree),
			strconv.Itoa(s.OutDegree),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMetricCSV writes one metric table as (entity, score) rows, already
// ordered descending by score.
func WriteMetricCSV(w io.Writer, m flowgraph.MetricResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"entity", m.Name}); err != nil {
		return err
	}
	for _, s := range m.Scores {
		if err := cw.Write([]string{s.Entity.CanonicalName, formatScore(s.Value)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLongestPathCSV writes the longest path, one segment per row.
// Collapsed segments list all cycle members in one cell.
func WriteLongestPathCSV(w io.Writer, p flowgraph.PathResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"segment", "collapsed", "internal_edges"}); err != nil {
		return err
	}
	for _, seg := range p.Segments {
		names := make([]string, 0, len(seg.Entities))
		for _, e := range seg.Entities {
			names = append(names, e.CanonicalName)
		}
		row := []string{
			strings.Join(names, " | "),
			strconv.FormatBool(seg.Collapsed),
			strconv.Itoa(seg.InternalEdges),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"length", strconv.Itoa(p.Length), ""}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteTreeCSV writes the spanning tree edges followed by the disconnected
// node list.
func WriteTreeCSV(w io.Writer, t *flowgraph.SpanningTree) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"root", t.Root.CanonicalName}); err != nil {
		return err
	}
	for _, e := range t.Edges {
		if err := cw.Write([]string{e.From.CanonicalName, e.To.CanonicalName}); err != nil {
			return err
		}
	}
	for _, n := range t.Disconnected {
		if err := cw.Write([]string{"disconnected", n.CanonicalName}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBasicsCSV writes the run summary in the key-value-list layout the
// reporting side expects.
func WriteBasicsCSV(w io.Writer, b pipeline.Basics) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"Number of nodes", strconv.Itoa(b.Nodes)},
		{"Number of edges", strconv.Itoa(b.Edges)},
		{"Number of components", strconv.Itoa(b.Components)},
		{"Number of disconnected nodes", strconv.Itoa(b.Disconnected)},
		append([]string{"Number of first party entities", strconv.Itoa(len(b.FirstParties))}, b.FirstParties...),
		append([]string{"Number of user party entities", strconv.Itoa(len(b.UserParties))}, b.UserParties...),
		append([]string{"Number of third party entities", strconv.Itoa(len(b.ThirdParties))}, b.ThirdParties...),
		{"Number of data types", strconv.Itoa(b.DataTypes)},
		{"Number of data flows", strconv.Itoa(b.DataFlows)},
		{"Third party share", formatScore(b.ThirdPartyShare)},
		{"Complete flows", strconv.Itoa(b.Transparency.CompleteFlows)},
		{"Incomplete flows", strconv.Itoa(b.Transparency.IncompleteFlows)},
		{"Transparency score", formatScore(b.Transparency.Score)},
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	for _, cf := range b.ClassFlows {
		row := []string{
			fmt.Sprintf("Flows %s to %s", cf.FromClass, cf.ToClass),
			strconv.Itoa(cf.Edges),
			strconv.Itoa(cf.Weight),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	for _, p := range b.Bidirectional {
		if err := cw.Write([]string{"Bidirectional pair", p.A.CanonicalName, p.B.CanonicalName}); err != nil {
			return err
		}
	}

	for _, category := range sortedKeys(b.CategoryTypes) {
		types := b.CategoryTypes[category]
		row := append([]string{category, strconv.Itoa(len(types))}, types...)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	for _, category := range sortedKeys(b.CategoryPurposes) {
		if err := cw.Write([]string{category}); err != nil {
			return err
		}
		purposes := b.CategoryPurposes[category]
		for _, purpose := range sortedKeys(purposes) {
			if err := cw.Write([]string{purpose, strconv.Itoa(purposes[purpose])}); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteVerificationCSV writes the human-review sheet: the rating scale
// instruction, the column header, then one row per sampled record with blank
// evaluation cells for the reviewer to fill in.
func WriteVerificationCSV(w io.Writer, smp sample.Result) error {
	cw := csv.NewWriter(w)

	scale := make([]string, len(verificationHeader))
	scale[0] = ratingScale
	if err := cw.Write(scale); err != nil {
		return err
	}
	if err := cw.Write(verificationHeader); err != nil {
		return err
	}
	for _, rec := range smp.Records {
		if err := cw.Write(verificationRow(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func verificationRow(rec record.DataFlowRecord) []string {
	return []string{
		rec.SegmentText,
		rec.DataType, "",
		rec.DataCategory, "",
		rec.SourceParty, rec.TargetParty,
		rec.ResolvedSource, rec.ResolvedTarget, "",
		rec.Purpose, "",
		rec.Method, "",
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
