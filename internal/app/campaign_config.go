package app

import "github.com/rsvphq/guestlist/internal/campaign"

// CampaignDefaults converts the configured presentation fallbacks to the
// campaign package representation.
func (c DefaultsConfig) CampaignDefaults() campaign.Defaults {
	return campaign.Defaults{
		Theme: campaign.Theme{
			PrimaryColor:    c.Theme.PrimaryColor,
			SecondaryColor:  c.Theme.SecondaryColor,
			AccentColor:     c.Theme.AccentColor,
			BackgroundColor: c.Theme.BackgroundColor,
		},
		HostEmail:          c.HostEmail,
		BackgroundImageURL: c.BackgroundImageURL,
	}
}

// RunnerConfig converts the pacing settings into the batch runner representation.
func (c CampaignConfig) RunnerConfig() campaign.RunnerConfig {
	return campaign.RunnerConfig{
		SendDelay:   c.SendDelay,
		BatchBudget: c.BatchBudget,
	}
}
