package pipeline

import (
	"fmt"
	"strings"
)

// LeadSummarizer creates a summarizer that takes the first maxSentences
// sentences of the text. Lead sentences carry most of the signal in the
// prose documents the pipeline is built for.
func LeadSummarizer(maxSentences int) SummarizeFunc {
	return func(text string) (string, error) {
		if maxSentences <= 0 {
			return "", fmt.Errorf("max sentences must be positive")
		}

		sentences := splitSentences(text)
		if len(sentences) == 0 {
			return "", fmt.Errorf("no sentences found in text")
		}

		if len(sentences) > maxSentences {
			sentences = sentences[:maxSentences]
		}

		return strings.Join(sentences, " "), nil
	}
}

// DefaultSummarizer creates a summarizer with a three sentence lead
func DefaultSummarizer() SummarizeFunc {
	return LeadSummarizer(3)
}
