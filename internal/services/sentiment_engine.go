package services

import (
	"strings"

	"github.com/finsight/finsight-go/internal/config"
	"github.com/finsight/finsight-go/internal/models"
	"github.com/jonreiter/govader"
	"github.com/sirupsen/logrus"
)

// SentimentEngine scores news articles with a VADER lexicon analyzer and
// aggregates per-article compound scores into positive/negative/neutral
// counts. The analyzer is stateless, so one engine serves concurrent runs.
type SentimentEngine struct {
	analyzer  *govader.SentimentIntensityAnalyzer
	threshold float64
	logger    *logrus.Logger
}

// NewSentimentEngine creates a sentiment engine with the configured
// classification threshold.
func NewSentimentEngine(cfg config.AnalysisConfig, logger *logrus.Logger) *SentimentEngine {
	return &SentimentEngine{
		analyzer:  govader.NewSentimentIntensityAnalyzer(),
		threshold: cfg.SentimentThreshold,
		logger:    logger,
	}
}

// Compute scores every article with usable text. Articles with an empty
// title and description are skipped, not counted as neutral.
func (e *SentimentEngine) Compute(articles []models.NewsArticle) models.SentimentResult {
	e.logger.WithField("articles", len(articles)).Info("Analyzing news sentiment")

	var compounds []float64
	for _, article := range articles {
		text := strings.TrimSpace(article.Title + ". " + article.Description)
		if text == "" || text == "." {
			continue
		}
		scores := e.analyzer.PolarityScores(text)
		compounds = append(compounds, scores.Compound)
	}

	if len(compounds) == 0 {
		e.logger.Warn("No articles available for sentiment analysis")
		return models.SentimentResult{}
	}

	result := models.SentimentResult{
		AverageCompound: roundTo(mean(compounds), 4),
		Analyzed:        len(compounds),
	}
	for _, c := range compounds {
		switch {
		case c > e.threshold:
			result.Positive++
		case c < -e.threshold:
			result.Negative++
		default:
			result.Neutral++
		}
	}

	e.logger.WithFields(logrus.Fields{
		"avg":      result.AverageCompound,
		"positive": result.Positive,
		"negative": result.Negative,
		"neutral":  result.Neutral,
	}).Info("Sentiment analysis complete")

	return result
}
