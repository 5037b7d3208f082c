package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"privaflow/internal/util"
	"privaflow/pkg/flowgraph"
	"privaflow/pkg/logger"
	"privaflow/pkg/pipeline"
	"privaflow/pkg/store"
)

// AnalyzeMsg is the payload published to the analyze queue. The CSV payloads
// live on the run row, so the message only names the run.
type AnalyzeMsg struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

// ProcessAnalyzeMessage loads the run named by the message, executes the full
// pipeline over its stored payloads and persists the results. Returning an
// error routes the message through the retry queue.
func ProcessAnalyzeMessage(ctx context.Context, storage store.RunStorage, msgBody string) error {
	var msg AnalyzeMsg
	if err := json.Unmarshal([]byte(msgBody), &msg); err != nil {
		return fmt.Errorf("unmarshaling analyze message: %w", err)
	}
	if msg.RunID == "" {
		return fmt.Errorf("analyze message without run id")
	}

	logger.Info("[Analyze] Processing run", "run", msg.RunID)

	run, err := storage.GetRun(ctx, msg.RunID)
	if err != nil {
		return fmt.Errorf("loading run %s: %w", msg.RunID, err)
	}

	if err := storage.SetRunStatus(ctx, run.ID, store.StatusProcessing, ""); err != nil {
		return fmt.Errorf("marking run processing: %w", err)
	}

	var segments io.Reader
	if run.SegmentsCSV != "" {
		segments = strings.NewReader(run.SegmentsCSV)
	}

	cfg := pipeline.Config{
		MainParty:  run.MainParty,
		TopN:       run.TopN,
		SampleSize: run.SampleSize,
		SampleRate: run.SampleRate,
		Seed:       run.Seed,
	}

	result, err := pipeline.Run(ctx, strings.NewReader(run.RecordsCSV), segments, cfg)
	if err != nil {
		if statusErr := storage.SetRunStatus(ctx, run.ID, store.StatusFailed, err.Error()); statusErr != nil {
			logger.Error("[Analyze] Failed to mark run failed", "run", run.ID, "err", statusErr)
		}
		return fmt.Errorf("running pipeline for %s: %w", run.ID, err)
	}

	basics, err := json.Marshal(result.Basics)
	if err != nil {
		return fmt.Errorf("marshaling basics: %w", err)
	}

	entities, edges := graphRows(result.Graph)
	metrics := metricRows(result.Analysis)
	samples := sampleRows(result)

	err = util.RetryErrWithContext(ctx, 3, func(ctx context.Context) error {
		return storage.SaveResult(ctx, run.ID, basics, entities, edges, metrics, samples)
	})
	if err != nil {
		return fmt.Errorf("persisting result for %s: %w", run.ID, err)
	}

	logger.Info("[Analyze] Run complete", "run", run.ID, "empty_graph", result.EmptyGraph)
	return nil
}

func graphRows(g *flowgraph.Graph) ([]store.RunEntity, []store.RunEdge) {
	entities := make([]store.RunEntity, 0, g.Order())
	for _, n := range g.Nodes() {
		entities = append(entities, store.RunEntity{
			Name:    n.CanonicalName,
			Class:   string(n.Class),
			Role:    string(n.Role),
			Aliases: n.Aliases,
		})
	}

	edges := make([]store.RunEdge, 0, g.Size())
	for _, e := range g.Edges() {
		row := store.RunEdge{
			From:   e.From.CanonicalName,
			To:     e.To.CanonicalName,
			Weight: e.Weight,
		}
		for _, a := range e.Attributes {
			row.Categories = appendUnique(row.Categories, a.Category)
			row.Purposes = appendUnique(row.Purposes, a.Purpose)
			row.Methods = appendUnique(row.Methods, a.Method)
		}
		edges = append(edges, row)
	}
	return entities, edges
}

func metricRows(a *flowgraph.Result) []store.MetricRow {
	var rows []store.MetricRow
	for _, m := range []flowgraph.MetricResult{
		a.Degree, a.Betweenness, a.Closeness, a.TopInward, a.TopOutward,
	} {
		for rank, s := range m.Scores {
			rows = append(rows, store.MetricRow{
				Metric: m.Name,
				Rank:   rank + 1,
				Entity: s.Entity.CanonicalName,
				Value:  s.Value,
			})
		}
	}
	return rows
}

func sampleRows(result *pipeline.Result) []store.SampleRow {
	rows := make([]store.SampleRow, 0, len(result.Sample.Records))
	for _, rec := range result.Sample.Records {
		rows = append(rows, store.SampleRow{
			SegmentIndex:   rec.SegmentIndex,
			SegmentText:    rec.SegmentText,
			DataType:       rec.DataType,
			DataCategory:   rec.DataCategory,
			SourceParty:    rec.SourceParty,
			TargetParty:    rec.TargetParty,
			ResolvedSource: rec.ResolvedSource,
			ResolvedTarget: rec.ResolvedTarget,
			Purpose:        rec.Purpose,
			Method:         rec.Method,
		})
	}
	return rows
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
