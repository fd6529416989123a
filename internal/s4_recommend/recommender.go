package s4_recommend

import (
	"context"
	"sort"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/internal/strategyconfig"
	"github.com/wonny/prism/pkg/logger"
)

// Recommender implements contracts.Recommender: per-community pick
// lists of the steepest rising trends.
type Recommender struct {
	cfg    strategyconfig.Recommend
	logger *logger.Logger
}

// NewRecommender creates a new recommender
func NewRecommender(cfg strategyconfig.Recommend, log *logger.Logger) *Recommender {
	if cfg.TopN < 1 {
		cfg.TopN = 3
	}
	if cfg.Order == "" {
		cfg.Order = strategyconfig.OrderCommunityID
	}
	return &Recommender{
		cfg:    cfg,
		logger: log.Component("recommend"),
	}
}

// Recommend groups tickers by community and keeps the top_n best slopes
// per group, slope descending with symbol breaking ties. Tickers whose
// trend fell back to 0.0 still rank; a singleton community always picks
// its lone member.
func (r *Recommender) Recommend(ctx context.Context, partition *contracts.Partition, trends []contracts.TrendScore) ([]contracts.CommunityReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slopes := make(map[string]float64, len(trends))
	for _, tr := range trends {
		slopes[tr.Symbol] = tr.Slope
	}

	groups := partition.Communities()
	reports := make([]contracts.CommunityReport, 0, len(groups))
	picked := 0

	for _, id := range partition.CommunityIDs() {
		members := groups[id]

		ranked := make([]string, len(members))
		copy(ranked, members)
		sort.Slice(ranked, func(i, j int) bool {
			si, sj := slopes[ranked[i]], slopes[ranked[j]]
			if si != sj {
				return si > sj
			}
			return ranked[i] < ranked[j]
		})

		n := r.cfg.TopN
		if n > len(ranked) {
			n = len(ranked)
		}
		picks := make([]contracts.Pick, 0, n)
		for i := 0; i < n; i++ {
			picks = append(picks, contracts.Pick{
				Rank:   i + 1,
				Symbol: ranked[i],
				Slope:  slopes[ranked[i]],
			})
		}
		picked += n

		reports = append(reports, contracts.CommunityReport{
			CommunityID: id,
			Size:        len(members),
			Members:     members,
			Picks:       picks,
		})
	}

	if r.cfg.Order == strategyconfig.OrderSize {
		sort.SliceStable(reports, func(i, j int) bool {
			if reports[i].Size != reports[j].Size {
				return reports[i].Size > reports[j].Size
			}
			return reports[i].CommunityID < reports[j].CommunityID
		})
	}

	r.logger.WithFields(map[string]interface{}{
		"communities": len(reports),
		"picks":       picked,
		"top_n":       r.cfg.TopN,
	}).Info("Recommendations assembled")

	return reports, nil
}
