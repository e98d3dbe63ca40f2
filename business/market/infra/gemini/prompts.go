package gemini

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/silver-ai/business/market/domain"
)

const numericOnly = " Respond with only the numerical value (e.g., 95.50), without any currency symbols or text."

// pricePrompt asks for the live price, or Friday's close on weekends.
func pricePrompt(region string, now time.Time) string {
	if domain.SessionAt(now).IsWeekend() {
		return fmt.Sprintf("What was the closing price of 1 gram of silver in %s last Friday?", region) + numericOnly
	}
	return fmt.Sprintf("What is the current price of 1 gram of silver in %s?", region) + numericOnly
}

func historyPrompt(region string, current decimal.Decimal, now time.Time, days int) string {
	end := now.UTC()
	start := end.AddDate(0, 0, -days)
	return fmt.Sprintf(
		"Generate plausible historical daily silver prices (for 1 gram in %s's currency) for the last %d days, "+
			"from %s to %s. The final day's price must be exactly %s. Create natural-looking daily fluctuations.",
		region, days, start.Format(domain.DateLayout), end.Format(domain.DateLayout), current.String())
}

func forecastPrompt(current decimal.Decimal, history domain.Series, days int) string {
	return fmt.Sprintf(`Act as an expert financial analyst specializing in precious metals. The current price for 1 gram of silver is %s. The recent %d-day trend shows: %s.

Analyze the following factors to provide a detailed forecast:
1. Global Economic Indicators: inflation, interest rates and recession risk.
2. Industrial Demand: solar panels, electronics and electric vehicles.
3. Investment Sentiment: ETF flows and safe-haven demand.
4. Geopolitical Climate: conflicts and trade tensions.
5. Currency Strength: the US dollar and the local currency.

Based on this analysis, provide:
- A short investment recommendation for today.
- A short outlook for tomorrow's price.
- Price projections per gram for 1 year, 5 years and 10 years, each with a best case, worst case and average case.

Do not include any disclaimers or conversational text; strictly adhere to the JSON schema.`,
		current.String(), days, trimPeriod(history.TrendSummary(current, days)))
}

func trimPeriod(s string) string {
	if n := len(s); n > 0 && s[n-1] == '.' {
		return s[:n-1]
	}
	return s
}

func historySchema() *Schema {
	return &Schema{
		Type: "ARRAY",
		Items: &Schema{
			Type: "OBJECT",
			Properties: map[string]*Schema{
				"date":  {Type: "STRING", Description: "Date in YYYY-MM-DD format"},
				"price": {Type: "NUMBER"},
			},
			Required: []string{"date", "price"},
		},
	}
}

func scenarioSchema(horizon string) *Schema {
	return &Schema{
		Type:        "OBJECT",
		Description: horizon + " price projection per gram",
		Properties: map[string]*Schema{
			"bestCase":    {Type: "NUMBER"},
			"worstCase":   {Type: "NUMBER"},
			"averageCase": {Type: "NUMBER"},
		},
		Required: []string{"bestCase", "worstCase", "averageCase"},
	}
}

func forecastSchema() *Schema {
	return &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"recommendation": {Type: "STRING", Description: "e.g., 'Good day to buy', 'Hold', 'Consider selling'"},
			"tomorrow":       {Type: "STRING", Description: "e.g., 'Likely to increase slightly', 'Stable with minor fluctuations'"},
			"oneYear":        scenarioSchema("1 year"),
			"fiveYear":       scenarioSchema("5 year"),
			"tenYear":        scenarioSchema("10 year"),
		},
		Required: []string{"recommendation", "tomorrow", "oneYear", "fiveYear", "tenYear"},
	}
}
