package usecase

import (
	"context"
	"log/slog"

	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

// Discovery enumerates an operator's campaign zones and produces the
// deduplicated media list for a redemption run. Partial results are the
// common case: a zone that fails to answer is logged and skipped.
type Discovery struct {
	logger *slog.Logger
}

// NewDiscovery builds the discovery component.
func NewDiscovery(logger *slog.Logger) *Discovery {
	return &Discovery{logger: logger}
}

// DiscoveryResult is the ordered media list plus per-zone counts for
// reporting. NewToken carries the last rotation observed while querying.
type DiscoveryResult struct {
	Items     []domain.CampaignMedia
	PerSource map[string]int
	NewToken  string
}

// Discover queries every zone of the carrier, flattens the nested media
// lists and deduplicates by media id. The first occurrence across zones
// wins; later duplicates are silently dropped.
func (d *Discovery) Discover(ctx context.Context, carrier port.Carrier, token, identity string) DiscoveryResult {
	out := DiscoveryResult{PerSource: make(map[string]int)}
	seen := make(map[string]struct{})

	for _, zone := range carrier.Sources() {
		res := carrier.Campaigns(ctx, token, identity, zone)
		if res.NewToken != "" {
			token = res.NewToken
			out.NewToken = res.NewToken
		}
		if !res.Fault.OK() {
			d.logger.Warn("campaign zone query failed",
				slog.String("operator", string(carrier.Operator())),
				slog.String("zone", zone),
				slog.String("message", res.Message))
			out.PerSource[zone] = 0
			continue
		}
		count := 0
		for _, item := range res.Items {
			if item.Media.ID == "" {
				continue
			}
			if _, dup := seen[item.Media.ID]; dup {
				continue
			}
			seen[item.Media.ID] = struct{}{}
			out.Items = append(out.Items, item)
			count++
		}
		out.PerSource[zone] = count
	}
	return out
}
