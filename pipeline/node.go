package pipeline

import (
	"context"

	"github.com/drinosaret/vn-club-resources-sub000/core"
)

// Kind tags a node's stage, for observability and orchestration.
type Kind string

const (
	KindRecall      Kind = "recall"      // generate the candidate pool
	KindFilter      Kind = "filter"      // drop candidates violating constraints
	KindRank        Kind = "rank"        // score and sort candidates
	KindReRank      Kind = "rerank"      // diversity / business reordering
	KindPostProcess Kind = "postprocess" // final result decoration
)

// Node is the smallest composable unit of the pipeline. Every stage takes
// items in and gives items out, so recall (generate), filter (truncate) and
// rerank (reorder) all share one shape.
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
