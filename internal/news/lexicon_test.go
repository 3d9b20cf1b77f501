package news

import (
	"reflect"
	"testing"
)

func TestScoreTextBullishHeadlines(t *testing.T) {
	score := scoreText([]string{
		"Bitcoin rally continues as institutional adoption grows",
		"Analysts see breakout after strong momentum",
	})

	if score.PositiveWords == 0 {
		t.Fatal("Expected positive words to be counted")
	}
	if score.NegativeWords != 0 {
		t.Errorf("Expected no negative words, got %d", score.NegativeWords)
	}
	if score.Overall <= 0 {
		t.Errorf("Expected positive overall score, got %f", score.Overall)
	}
	if score.Overall > 1.0 {
		t.Errorf("Expected overall score capped at 1.0, got %f", score.Overall)
	}
}

func TestScoreTextBearishHeadlines(t *testing.T) {
	score := scoreText([]string{
		"Exchange hack triggers panic selloff and liquidations",
	})

	if score.NegativeWords == 0 {
		t.Fatal("Expected negative words to be counted")
	}
	if score.Overall >= 0 {
		t.Errorf("Expected negative overall score, got %f", score.Overall)
	}
	if score.Overall < -1.0 {
		t.Errorf("Expected overall score capped at -1.0, got %f", score.Overall)
	}
}

func TestScoreTextWordCounts(t *testing.T) {
	score := scoreText([]string{"Bullish breakout likely, but hack risk may cap gains."})

	if score.TotalWords != 9 {
		t.Errorf("Expected 9 total words, got %d", score.TotalWords)
	}
	if score.PositiveWords != 3 {
		t.Errorf("Expected 3 positive words, got %d", score.PositiveWords)
	}
	if score.NegativeWords != 2 {
		t.Errorf("Expected 2 negative words, got %d", score.NegativeWords)
	}
	if score.UncertaintyWords != 2 {
		t.Errorf("Expected 2 uncertainty words, got %d", score.UncertaintyWords)
	}
}

func TestScoreTextBalancedIsNeutral(t *testing.T) {
	score := scoreText([]string{"Rally fades as selloff begins"})

	if score.Overall != 0 {
		t.Errorf("Expected zero overall score for balanced text, got %f", score.Overall)
	}
}

func TestScoreTextEmpty(t *testing.T) {
	score := scoreText(nil)

	if score.TotalWords != 0 || score.Overall != 0 {
		t.Errorf("Expected zero score for empty input, got %+v", score)
	}
}

func TestScoreTextHedgingDampensSignal(t *testing.T) {
	plain := scoreText([]string{
		"bitcoin price holds steady near the key level traders watch this week",
		"network upgrade ships on schedule",
	})
	hedged := scoreText([]string{
		"bitcoin price holds steady near the key level traders watch this week",
		"network upgrade might ship on schedule perhaps",
	})

	if plain.Uncertainty != 0 {
		t.Fatalf("Expected no uncertainty in plain text, got %f", plain.Uncertainty)
	}
	if hedged.Uncertainty == 0 {
		t.Fatal("Expected hedged text to register uncertainty")
	}
	if plain.Overall <= 0 || hedged.Overall <= 0 {
		t.Fatalf("Expected both scores positive, got plain=%f hedged=%f", plain.Overall, hedged.Overall)
	}
	if hedged.Overall >= plain.Overall {
		t.Errorf("Expected hedging to dampen the score: plain=%f hedged=%f", plain.Overall, hedged.Overall)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("btc's rally: +12.5% -- wow!")
	want := []string{"btc", "s", "rally", "12", "5", "wow"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize() = %v, want %v", got, want)
	}
}
