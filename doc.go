// Package vnrec is the personalized visual-novel recommendation core.
//
// Design notes:
//   - Pipeline-first: one request runs Recall → Filter → Rank → ReRank,
//     each stage a composable Node.
//   - Labels-first: items carry provenance labels end to end, so every
//     recommendation can say where it came from.
//   - Lazy explanations: the expensive per-item match breakdown is
//     computed only for the final returned page, never for the pool.
//
// The engine package is the entry point; store provides the memory, redis
// and postgres catalog backends.
package vnrec

import "github.com/drinosaret/vn-club-resources-sub000/pipeline"

// Lightweight facade for users importing the module root.
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
