package news

import (
	"strings"
	"unicode"
)

// lexiconScore summarizes a bag-of-words sentiment pass over headline text.
type lexiconScore struct {
	TotalWords       int
	PositiveWords    int
	NegativeWords    int
	UncertaintyWords int
	NetRatio         float64
	Uncertainty      float64
	Overall          float64
}

// scoreText runs the word lists over the given texts and produces an overall
// score in [-1, 1]. Hedging language halves the weight of the net signal.
func scoreText(texts []string) lexiconScore {
	var score lexiconScore

	for _, text := range texts {
		for _, word := range tokenize(strings.ToLower(text)) {
			score.TotalWords++
			if positiveWords[word] {
				score.PositiveWords++
			}
			if negativeWords[word] {
				score.NegativeWords++
			}
			if uncertaintyWords[word] {
				score.UncertaintyWords++
			}
		}
	}

	if score.TotalWords == 0 {
		return score
	}

	score.NetRatio = float64(score.PositiveWords-score.NegativeWords) / float64(score.TotalWords)

	// Typical hedging density is a few percent of words; scale up so a
	// heavily hedged text saturates at 1.
	score.Uncertainty = min(float64(score.UncertaintyWords)/float64(score.TotalWords)*20, 1.0)

	overall := score.NetRatio * 10 * (1.0 - score.Uncertainty*0.5)
	score.Overall = min(max(overall, -1.0), 1.0)
	return score
}

// tokenize splits text into words
func tokenize(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Word lists adapted from financial sentiment dictionaries
// (Loughran-McDonald core plus crypto market vocabulary)

var positiveWords = wordSet(
	"adoption", "advance", "ath", "benefit", "better", "breakout", "bull",
	"bullish", "climb", "gain", "gains", "good", "great", "grew", "growth",
	"high", "improve", "improved", "innovation", "institutional", "jump",
	"leader", "leading", "milestone", "momentum", "opportunity", "optimistic",
	"outperform", "partnership", "positive", "profit", "profitable", "rally",
	"rebound", "record", "recover", "recovery", "robust", "soar", "solid",
	"strength", "strong", "success", "successful", "surge", "upbeat",
	"upgrade", "uptrend",
)

var negativeWords = wordSet(
	"attack", "bear", "bearish", "breach", "collapse", "concern", "concerns",
	"crash", "crisis", "decline", "decrease", "delisting", "dip", "downturn",
	"drop", "dump", "exploit", "fail", "failure", "falling", "fear", "fine",
	"fraud", "fud", "hack", "hacked", "lawsuit", "liquidation", "liquidations",
	"loss", "losses", "low", "negative", "outflow", "outflows", "panic",
	"plunge", "poor", "probe", "problem", "recession", "risk", "risks", "rug",
	"scam", "sell", "selloff", "slump", "tumble", "uncertain", "uncertainty",
	"volatile", "volatility", "warning", "weak", "weakness", "worse", "worst",
)

var uncertaintyWords = wordSet(
	"almost", "anticipate", "appears", "approximately", "assume", "believe",
	"could", "depend", "estimate", "expect", "expects", "forecast", "if",
	"likely", "may", "maybe", "might", "outlook", "pending", "perhaps",
	"plan", "plans", "possible", "possibly", "potential", "predict",
	"project", "should", "somewhat", "suggest", "suggests", "unclear",
	"unlikely", "would",
)
