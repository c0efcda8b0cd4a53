package fusion

import (
	"sort"

	"github.com/kailas-cloud/courserec/internal/domain/search/result"
)

// Weights configures weighted reciprocal rank fusion.
type Weights struct {
	K       float64
	Vector  float64
	Keyword float64
}

// contribution is the reciprocal-rank score of a 0-indexed position.
func (w Weights) contribution(weight float64, rank int) float64 {
	return weight / (w.K + float64(rank) + 1)
}

// fuseRRF merges KNN and BM25 results via weighted Reciprocal Rank Fusion.
// score(d) = wVec/(K+rankKNN(d)+1) + wKw/(K+rankBM25(d)+1).
// A BM25 hit contributes only when the same document is in the KNN set;
// keyword-only documents never enter the fused list.
// Equal scores keep KNN order.
func fuseRRF(knn, bm25 []result.Result, w Weights) []result.Result {
	pos := make(map[string]int, len(knn))
	fused := make([]result.Result, 0, len(knn))

	for rank := range knn {
		id := knn[rank].ID()
		if _, dup := pos[id]; dup {
			continue
		}
		pos[id] = len(fused)
		fused = append(fused, knn[rank].WithScore(w.contribution(w.Vector, rank)))
	}

	counted := make(map[string]struct{}, len(bm25))
	for rank := range bm25 {
		id := bm25[rank].ID()
		i, ok := pos[id]
		if !ok {
			continue
		}
		if _, dup := counted[id]; dup {
			continue
		}
		counted[id] = struct{}{}
		fused[i] = fused[i].WithScore(fused[i].Score() + w.contribution(w.Keyword, rank))
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score() > fused[j].Score()
	})
	return fused
}
