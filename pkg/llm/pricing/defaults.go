package pricing

import "time"

// builtInPricing returns the default pricing configuration.
// This includes current pricing for the supported providers as of the
// effective date; override via the user pricing file when rates change.
func builtInPricing() *Config {
	effectiveDate := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	return &Config{
		Version:   "1.0",
		UpdatedAt: effectiveDate,
		Models: []ModelPricing{
			// OpenAI GPT-4o family
			{
				Provider:              "openai",
				Model:                 "gpt-4o",
				InputPricePerMillion:  2.50,
				OutputPricePerMillion: 10.00,
				EffectiveDate:         effectiveDate,
			},
			{
				Provider:              "openai",
				Model:                 "gpt-4o-mini",
				InputPricePerMillion:  0.15,
				OutputPricePerMillion: 0.60,
				EffectiveDate:         effectiveDate,
			},

			// OpenAI GPT-4.1 family
			{
				Provider:              "openai",
				Model:                 "gpt-4.1",
				InputPricePerMillion:  2.00,
				OutputPricePerMillion: 8.00,
				EffectiveDate:         effectiveDate,
			},
			{
				Provider:              "openai",
				Model:                 "gpt-4.1-mini",
				InputPricePerMillion:  0.40,
				OutputPricePerMillion: 1.60,
				EffectiveDate:         effectiveDate,
			},

			// Google Gemini Flash family
			{
				Provider:              "gemini",
				Model:                 "gemini-2.0-flash",
				InputPricePerMillion:  0.15,
				OutputPricePerMillion: 0.60,
				EffectiveDate:         effectiveDate,
			},
			{
				Provider:              "gemini",
				Model:                 "gemini-2.0-flash-lite",
				InputPricePerMillion:  0.075,
				OutputPricePerMillion: 0.30,
				EffectiveDate:         effectiveDate,
			},

			// Offline stub provider used in tests and no-network mode
			{
				Provider:      "stub",
				Model:         "stub",
				Free:          true,
				EffectiveDate: effectiveDate,
			},
		},
	}
}
