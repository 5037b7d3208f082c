// Package pipeline wires the processing stages of one analysis run:
// ingest, resolve, build, metrics and verification sampling. Every stage
// owns its own state, so independent runs can execute in parallel.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"

	"privaflow/pkg/flowgraph"
	"privaflow/pkg/logger"
	"privaflow/pkg/record"
	"privaflow/pkg/resolve"
	"privaflow/pkg/sample"
)

// Config is the per-run configuration. Zero values fall back to defaults:
// all nodes in the top tables, a 40% verification sample, seed 1.
type Config struct {
	// MainParty anchors pronoun resolution and the spanning-tree root.
	MainParty string `json:"main_party"`
	// AliasOverrides maps normalized raw names straight to a canonical name.
	AliasOverrides map[string]string `json:"alias_overrides,omitempty"`

	TopN   int              `json:"top_n"`
	RankBy flowgraph.RankBy `json:"rank_by"`

	// SampleSize wins over SampleRate when both are set.
	SampleSize int     `json:"sample_size"`
	SampleRate float64 `json:"sample_rate"`
	Seed       int64   `json:"seed"`
}

const (
	defaultSampleRate = 0.4
	defaultSeed       = 1
)

// Basics is the run summary handed to reporting.
type Basics struct {
	Nodes        int `json:"nodes"`
	Edges        int `json:"edges"`
	Components   int `json:"components"`
	Disconnected int `json:"disconnected"`
	DataFlows    int `json:"data_flows"`
	DataTypes    int `json:"data_types"`

	FirstParties []string `json:"first_parties"`
	UserParties  []string `json:"user_parties"`
	ThirdParties []string `json:"third_parties"`

	// CategoryTypes groups observed data types under their category,
	// CategoryPurposes counts purpose mentions per category.
	CategoryTypes    map[string][]string       `json:"category_types"`
	CategoryPurposes map[string]map[string]int `json:"category_purposes"`

	ClassFlows      []flowgraph.ClassFlow         `json:"class_flows"`
	Bidirectional   []flowgraph.BidirectionalPair `json:"bidirectional"`
	Transparency    flowgraph.Transparency        `json:"transparency"`
	ThirdPartyShare float64                       `json:"third_party_share"`
}

// Result is the complete output of one run.
type Result struct {
	Records     []record.DataFlowRecord `json:"records"`
	Diagnostics record.Diagnostics      `json:"diagnostics"`

	Graph    *flowgraph.Graph  `json:"-"`
	Analysis *flowgraph.Result `json:"analysis"`
	Sample   sample.Result     `json:"sample"`
	Basics   Basics            `json:"basics"`

	// EmptyGraph marks a run whose input produced zero usable entities.
	// All result tables are present but empty.
	EmptyGraph bool `json:"empty_graph"`
}

// Run executes the full pipeline over one record stream. The segments
// reader is optional; when present it supplies the source text attached to
// each record for the verification sample.
func Run(ctx context.Context, records, segments io.Reader, cfg Config) (*Result, error) {
	ing := record.NewIngestor()
	if segments != nil {
		if err := ing.LoadSegments(segments); err != nil {
			return nil, fmt.Errorf("loading segments: %w", err)
		}
	}

	recs, diag, err := ing.ReadRecords(records)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	logger.Info("[Pipeline] Records ingested",
		"accepted", diag.Accepted,
		"malformed", diag.Malformed,
	)

	resolver := resolve.New(resolve.Config{
		MainParty:      cfg.MainParty,
		AliasOverrides: cfg.AliasOverrides,
	})

	builder := flowgraph.NewBuilder(resolver)
	for _, rec := range recs {
		builder.AddRecord(rec)
	}
	g := builder.Finalize()

	// Attach canonical names now that every mention has been resolved;
	// resolution is idempotent, so this is a pure lookup pass.
	for i := range recs {
		recs[i].ResolvedSource = resolver.Resolve(recs[i].SourceParty).CanonicalName
		recs[i].ResolvedTarget = resolver.Resolve(recs[i].TargetParty).CanonicalName
	}

	analysis, err := flowgraph.Analyze(ctx, g, flowgraph.AnalyzeConfig{
		TopN:   cfg.TopN,
		RankBy: cfg.RankBy,
		Root:   resolver.MainParty(),
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing graph: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = defaultSeed
	}
	var smp sample.Result
	switch {
	case cfg.SampleSize > 0:
		smp = sample.Draw(recs, cfg.SampleSize, seed)
	case cfg.SampleRate > 0:
		smp = sample.DrawRate(recs, cfg.SampleRate, seed)
	default:
		smp = sample.DrawRate(recs, defaultSampleRate, seed)
	}

	res := &Result{
		Records:     recs,
		Diagnostics: diag,
		Graph:       g,
		Analysis:    analysis,
		Sample:      smp,
		EmptyGraph:  analysis.EmptyGraph,
	}
	res.Basics = buildBasics(recs, resolver, g, analysis)

	logger.Info("[Pipeline] Run complete",
		"nodes", res.Basics.Nodes,
		"edges", res.Basics.Edges,
		"sampled", len(smp.Records),
		"empty_graph", res.EmptyGraph,
	)
	return res, nil
}

func buildBasics(recs []record.DataFlowRecord, r *resolve.Resolver, g *flowgraph.Graph, a *flowgraph.Result) Basics {
	b := Basics{
		Nodes:            g.Order(),
		Edges:            g.Size(),
		Components:       a.Components,
		DataFlows:        len(recs),
		CategoryTypes:    make(map[string][]string),
		CategoryPurposes: make(map[string]map[string]int),
		ClassFlows:       a.ClassFlows,
		Bidirectional:    a.Bidirectional,
		Transparency:     a.Transparency,
	}
	if a.Tree != nil {
		b.Disconnected = len(a.Tree.Disconnected)
	}

	for _, e := range r.Entities() {
		switch e.Class {
		case resolve.PartyFirst:
			b.FirstParties = append(b.FirstParties, e.CanonicalName)
		case resolve.PartyUser:
			b.UserParties = append(b.UserParties, e.CanonicalName)
		case resolve.PartyThird:
			b.ThirdParties = append(b.ThirdParties, e.CanonicalName)
		}
	}
	parties := len(b.FirstParties) + len(b.UserParties) + len(b.ThirdParties)
	if parties > 0 {
		b.ThirdPartyShare = float64(len(b.ThirdParties)) / float64(parties)
	}

	types := make(map[string]struct{})
	typeSeen := make(map[string]map[string]struct{})
	for _, rec := range recs {
		types[rec.DataType] = struct{}{}

		if typeSeen[rec.DataCategory] == nil {
			typeSeen[rec.DataCategory] = make(map[string]struct{})
		}
		if _, ok := typeSeen[rec.DataCategory][rec.DataType]; !ok {
			typeSeen[rec.DataCategory][rec.DataType] = struct{}{}
			b.CategoryTypes[rec.DataCategory] = append(b.CategoryTypes[rec.DataCategory], rec.DataType)
		}

		if rec.Purpose != "" {
			if b.CategoryPurposes[rec.DataCategory] == nil {
				b.CategoryPurposes[rec.DataCategory] = make(map[string]int)
			}
			b.CategoryPurposes[rec.DataCategory][rec.Purpose]++
		}
	}
	b.DataTypes = len(types)
	for _, list := range b.CategoryTypes {
		sort.Strings(list)
	}
	return b
}
