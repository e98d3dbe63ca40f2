package gemini

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/silver-ai/business/market/domain"
	"github.com/fd1az/silver-ai/internal/apperror"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parsePrice extracts the first number from a free-text answer.
// Thousands separators are dropped first so "1,234.50" reads as 1234.50.
func parsePrice(text string) (decimal.Decimal, error) {
	match := numberPattern.FindString(strings.ReplaceAll(text, ",", ""))
	if match == "" {
		return decimal.Zero, apperror.External(apperror.CodeGatewayUnparseableContent,
			fmt.Sprintf("no number in %q", clip(text)), nil)
	}
	price, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, apperror.External(apperror.CodeGatewayUnparseableContent,
			fmt.Sprintf("bad number %q", match), err)
	}
	return price, nil
}

func parseSeries(text string) (domain.Series, error) {
	var series domain.Series
	if err := json.Unmarshal([]byte(stripFences(text)), &series); err != nil {
		return nil, apperror.External(apperror.CodeGatewayMalformedResponse,
			"history is not a JSON array of points", err)
	}
	if len(series) == 0 {
		return nil, apperror.External(apperror.CodeGatewayMalformedResponse,
			"history is empty", nil)
	}
	return series, nil
}

// forecastAnswer is the forecast as the model returns it. Pointers tell a
// missing field from a zero one.
type forecastAnswer struct {
	Recommendation string          `json:"recommendation"`
	Tomorrow       string          `json:"tomorrow"`
	OneYear        *scenarioAnswer `json:"oneYear"`
	FiveYear       *scenarioAnswer `json:"fiveYear"`
	TenYear        *scenarioAnswer `json:"tenYear"`
}

type scenarioAnswer struct {
	BestCase    *decimal.Decimal `json:"bestCase"`
	WorstCase   *decimal.Decimal `json:"worstCase"`
	AverageCase *decimal.Decimal `json:"averageCase"`
}

func (s *scenarioAnswer) scenario(horizon string) (domain.Scenario, error) {
	if s == nil {
		return domain.Scenario{}, fmt.Errorf("%s horizon is missing", horizon)
	}
	if s.BestCase == nil || s.WorstCase == nil || s.AverageCase == nil {
		return domain.Scenario{}, fmt.Errorf("%s horizon is missing a case", horizon)
	}
	return domain.Scenario{
		BestCase:    *s.BestCase,
		WorstCase:   *s.WorstCase,
		AverageCase: *s.AverageCase,
	}, nil
}

func parseForecast(text string) (*domain.Forecast, error) {
	var answer forecastAnswer
	if err := json.Unmarshal([]byte(stripFences(text)), &answer); err != nil {
		return nil, apperror.External(apperror.CodeGatewayMalformedResponse,
			"forecast is not a JSON object", err)
	}

	f := domain.Forecast{
		Recommendation: answer.Recommendation,
		Tomorrow:       answer.Tomorrow,
	}
	var err error
	if f.OneYear, err = answer.OneYear.scenario("oneYear"); err != nil {
		return nil, apperror.External(apperror.CodeGatewayMalformedResponse, "forecast is incomplete", err)
	}
	if f.FiveYear, err = answer.FiveYear.scenario("fiveYear"); err != nil {
		return nil, apperror.External(apperror.CodeGatewayMalformedResponse, "forecast is incomplete", err)
	}
	if f.TenYear, err = answer.TenYear.scenario("tenYear"); err != nil {
		return nil, apperror.External(apperror.CodeGatewayMalformedResponse, "forecast is incomplete", err)
	}
	if err := f.Validate(); err != nil {
		return nil, apperror.External(apperror.CodeGatewayMalformedResponse,
			"forecast is incomplete", err)
	}
	return &f, nil
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clip(s string) string {
	const max = 80
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
