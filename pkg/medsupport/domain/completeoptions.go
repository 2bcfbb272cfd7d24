package domain

// Sampling parameters the service has always used with MedGemma.
const (
	DefaultMaxTokens         = 512
	DefaultTemperature       = 0.1
	DefaultRepetitionPenalty = 1.1
)

var DefaultCompleteOptions = CompleteOptions{
	MaxTokens:         DefaultMaxTokens,
	Temperature:       DefaultTemperature,
	RepetitionPenalty: DefaultRepetitionPenalty,
}

type CompleteOptions struct {
	// MaxTokens the maximum number of tokens to generate
	MaxTokens int
	// Temperature how creative the output is; medical answers want it low
	Temperature float64
	// RepetitionPenalty a coefficient against repetitions of same tokens (1.0 means no penalty)
	RepetitionPenalty float64
}

func (c CompleteOptions) WithMaxTokens(value int) CompleteOptions {
	c.MaxTokens = value
	return c
}

func (c CompleteOptions) WithTemperature(value float64) CompleteOptions {
	c.Temperature = value
	return c
}

func (c CompleteOptions) WithRepetitionPenalty(value float64) CompleteOptions {
	c.RepetitionPenalty = value
	return c
}

func (c CompleteOptions) MaxTokensOrDefault(defaultValue int) int {
	if c.MaxTokens <= 0 {
		return defaultValue
	}
	return c.MaxTokens
}

func (c CompleteOptions) TemperatureOrDefault(defaultValue float64) float64 {
	if c.Temperature == 0.0 {
		return defaultValue
	}
	return c.Temperature
}

func (c CompleteOptions) RepetitionPenaltyOrDefault(defaultValue float64) float64 {
	if c.RepetitionPenalty == 0.0 {
		return defaultValue
	}
	return c.RepetitionPenalty
}
