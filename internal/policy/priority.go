package policy

import (
	"drowse/internal/api"
	"drowse/internal/config"
)

// GetPriority returns the wake tier of name. Unlisted services are low priority.
func GetPriority(name string, tiers config.WakePriorities) api.Priority {
	for _, tier := range []struct {
		names    []string
		priority api.Priority
	}{
		{tiers.High, api.PriorityHigh},
		{tiers.Normal, api.PriorityNormal},
		{tiers.Low, api.PriorityLow},
	} {
		for _, n := range tier.names {
			if n == name {
				return tier.priority
			}
		}
	}
	return api.PriorityLow
}
