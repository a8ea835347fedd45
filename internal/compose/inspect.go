package compose

import (
	"github.com/xraph/multi/internal/provider"
)

// TokenSummary lists the contributions to one token.
type TokenSummary struct {
	Token         string                `json:"token" yaml:"token"`
	Contributions []ContributionSummary `json:"contributions" yaml:"contributions"`
}

// ContributionSummary describes one contribution.
type ContributionSummary struct {
	Seq        int    `json:"seq" yaml:"seq"`
	Key        string `json:"key" yaml:"key"`
	Owner      string `json:"owner" yaml:"owner"`
	Kind       string `json:"kind" yaml:"kind"`
	Standalone bool   `json:"standalone" yaml:"standalone"`
}

// Inspect summarizes the registry, tokens in first registration order.
func (c *Composition) Inspect() []TokenSummary {
	tokens := c.registry.Tokens()
	out := make([]TokenSummary, 0, len(tokens))

	for _, tok := range tokens {
		records := c.registry.List(tok)
		summary := TokenSummary{
			Token:         provider.DescribeToken(tok),
			Contributions: make([]ContributionSummary, len(records)),
		}
		for i, rec := range records {
			summary.Contributions[i] = ContributionSummary{
				Seq:        rec.Seq,
				Key:        rec.Key.String(),
				Owner:      moduleName(rec.Owner.Module()),
				Kind:       rec.Provider.Kind().String(),
				Standalone: rec.Standalone,
			}
		}
		out = append(out, summary)
	}
	return out
}
