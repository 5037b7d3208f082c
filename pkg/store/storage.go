package store

import (
	"context"
	"time"
)

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// AnalysisRun is one queued or finished analysis. The raw CSV payloads are
// kept on the run row so the worker can replay an analysis without the
// original upload.
type AnalysisRun struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	MainParty string    `json:"main_party"`

	TopN       int     `json:"top_n"`
	SampleSize int     `json:"sample_size"`
	SampleRate float64 `json:"sample_rate"`
	Seed       int64   `json:"seed"`

	RecordsCSV  string `json:"-"`
	SegmentsCSV string `json:"-"`

	// Basics holds the JSON-encoded run summary once the run completes.
	Basics []byte `json:"basics,omitempty"`
	Error  string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunEntity is one persisted graph node.
type RunEntity struct {
	Name    string   `json:"name"`
	Class   string   `json:"class"`
	Role    string   `json:"role"`
	Aliases []string `json:"aliases"`
}

// RunEdge is one persisted graph edge with its aggregated attribute sets.
type RunEdge struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Weight     int      `json:"weight"`
	Categories []string `json:"categories"`
	Purposes   []string `json:"purposes"`
	Methods    []string `json:"methods"`
}

// MetricRow is one (entity, score) row of a metric table. Rank preserves the
// table ordering so reads do not have to re-sort.
type MetricRow struct {
	Metric string  `json:"metric"`
	Rank   int     `json:"rank"`
	Entity string  `json:"entity"`
	Value  float64 `json:"value"`
}

// SampleRow is one persisted verification sample record. The resolved party
// names are the canonical entity names the raw mentions mapped to.
type SampleRow struct {
	SegmentIndex   int    `json:"segment_index"`
	SegmentText    string `json:"segment_text"`
	DataType       string `json:"data_type"`
	DataCategory   string `json:"data_category"`
	SourceParty    string `json:"source_party"`
	TargetParty    string `json:"target_party"`
	ResolvedSource string `json:"resolved_source"`
	ResolvedTarget string `json:"resolved_target"`
	Purpose        string `json:"purpose"`
	Method         string `json:"method"`
}

// RunStorage is the persistence boundary for analysis runs. A run's result
// rows become visible atomically with its completed status, never partially.
type RunStorage interface {
	CreateRun(ctx context.Context, run *AnalysisRun) error
	GetRun(ctx context.Context, id string) (*AnalysisRun, error)
	SetRunStatus(ctx context.Context, id string, status RunStatus, runErr string) error

	SaveResult(
		ctx context.Context,
		id string,
		basics []byte,
		entities []RunEntity,
		edges []RunEdge,
		metrics []MetricRow,
		samples []SampleRow,
	) error

	GetGraph(ctx context.Context, id string) ([]RunEntity, []RunEdge, error)
	GetMetric(ctx context.Context, id, name string) ([]MetricRow, error)
	GetSample(ctx context.Context, id string) ([]SampleRow, error)
}
