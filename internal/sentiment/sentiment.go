// Package sentiment classifies page text as positive, negative or neutral
// and aggregates per-paragraph results into a page-level verdict.
package sentiment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/models"
	"github.com/pagelens/pagelens/pkg/utils"
)

// Sentiment labels.
const (
	LabelPositive = "POSITIVE"
	LabelNegative = "NEGATIVE"
	LabelNeutral  = "NEUTRAL"
)

// Classification is the label and confidence for one text.
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier assigns a sentiment label and confidence to a text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// ParagraphResult is the sentiment of a single paragraph.
type ParagraphResult struct {
	Index       int     `json:"index"`
	TextPreview string  `json:"text_preview"`
	Sentiment   string  `json:"sentiment"`
	Score       float64 `json:"score"`
}

// Summary aggregates paragraph results.
type Summary struct {
	Positive     int     `json:"positive"`
	Negative     int     `json:"negative"`
	Neutral      int     `json:"neutral"`
	Total        int     `json:"total"`
	PositivePct  float64 `json:"positive_pct"`
	NegativePct  float64 `json:"negative_pct"`
	NeutralPct   float64 `json:"neutral_pct"`
	AverageScore float64 `json:"average_score"`
	Overall      string  `json:"overall_sentiment"`
}

// Analysis is the full sentiment report for a set of paragraphs.
type Analysis struct {
	Results []ParagraphResult `json:"results"`
	Summary Summary           `json:"summary"`
}

// Analyzer runs a Classifier over page text and aggregates the results.
// Paragraph scores are signed: positive confidence counts up, negative
// counts down, neutral counts zero. The mean decides the overall label.
type Analyzer struct {
	classifier    Classifier
	maxParagraphs int
	minParaLen    int
	maxTextLen    int
	threshold     float64
	logger        *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithLimits overrides paragraph cap, minimum paragraph length and
// per-text truncation.
func WithLimits(maxParagraphs, minParaLen, maxTextLen int) Option {
	return func(a *Analyzer) {
		if maxParagraphs > 0 {
			a.maxParagraphs = maxParagraphs
		}
		if minParaLen > 0 {
			a.minParaLen = minParaLen
		}
		if maxTextLen > 0 {
			a.maxTextLen = maxTextLen
		}
	}
}

// WithThreshold overrides the mean-score cutoff for the overall label.
func WithThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		if threshold > 0 {
			a.threshold = threshold
		}
	}
}

// NewAnalyzer creates an Analyzer over the given classifier.
func NewAnalyzer(classifier Classifier, opts ...Option) *Analyzer {
	a := &Analyzer{
		classifier:    classifier,
		maxParagraphs: 100,
		minParaLen:    10,
		maxTextLen:    512,
		threshold:     0.2,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeText classifies one text. Blank text is neutral with score 0.5.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (Classification, error) {
	if strings.TrimSpace(text) == "" {
		return Classification{Label: LabelNeutral, Score: 0.5}, nil
	}
	if len(text) > a.maxTextLen {
		text = text[:a.maxTextLen]
	}
	c, err := a.classifier.Classify(ctx, text)
	if err != nil {
		return Classification{}, fmt.Errorf("classify text: %w", err)
	}
	return c, nil
}

// AnalyzeParagraphs classifies each paragraph and aggregates. Paragraphs
// shorter than the minimum are skipped; at most the configured cap is
// analyzed.
func (a *Analyzer) AnalyzeParagraphs(ctx context.Context, paragraphs []string) (*Analysis, error) {
	analysis := &Analysis{
		Results: []ParagraphResult{},
		Summary: Summary{AverageScore: 0, Overall: LabelNeutral},
	}

	if len(paragraphs) > a.maxParagraphs {
		paragraphs = paragraphs[:a.maxParagraphs]
	}

	var scores []float64
	for i, para := range paragraphs {
		if len(strings.TrimSpace(para)) < a.minParaLen {
			continue
		}
		c, err := a.AnalyzeText(ctx, para)
		if err != nil {
			return nil, err
		}
		analysis.Results = append(analysis.Results, ParagraphResult{
			Index:       i,
			TextPreview: utils.Truncate(para, 100),
			Sentiment:   c.Label,
			Score:       c.Score,
		})
		switch c.Label {
		case LabelPositive:
			analysis.Summary.Positive++
			scores = append(scores, c.Score)
		case LabelNegative:
			analysis.Summary.Negative++
			scores = append(scores, -c.Score)
		default:
			scores = append(scores, 0)
		}
	}

	total := len(analysis.Results)
	analysis.Summary.Total = total
	analysis.Summary.Neutral = total - analysis.Summary.Positive - analysis.Summary.Negative
	if total > 0 {
		analysis.Summary.PositivePct = pct(analysis.Summary.Positive, total)
		analysis.Summary.NegativePct = pct(analysis.Summary.Negative, total)
		analysis.Summary.NeutralPct = pct(analysis.Summary.Neutral, total)
	}

	var avg float64
	for _, s := range scores {
		avg += s
	}
	if len(scores) > 0 {
		avg /= float64(len(scores))
	}
	analysis.Summary.AverageScore = avg
	analysis.Summary.Overall = a.Label(avg)

	a.logger.Debug("analyzed paragraphs",
		zap.Int("total", total),
		zap.Float64("average_score", avg),
		zap.String("overall", analysis.Summary.Overall))

	return analysis, nil
}

// AnalyzePage analyzes the paragraphs of a scraped page.
func (a *Analyzer) AnalyzePage(ctx context.Context, page *models.ScrapedPage) (*Analysis, error) {
	if page == nil || len(page.Paragraphs) == 0 {
		return nil, fmt.Errorf("no text content found to analyze")
	}
	return a.AnalyzeParagraphs(ctx, page.Paragraphs)
}

// Label maps a signed mean score to an overall label.
func (a *Analyzer) Label(score float64) string {
	if score > a.threshold {
		return LabelPositive
	}
	if score < -a.threshold {
		return LabelNegative
	}
	return LabelNeutral
}

func pct(part, total int) float64 {
	return float64(part) / float64(total) * 100
}
