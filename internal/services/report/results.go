package report

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/fundval/internal/models"
)

// QuotesResults renders the comma-separated quotes results file
func QuotesResults(quotes []*models.QuoteSnapshot) string {
	lines := []string{"代码, 基金名称, 估值, 涨跌幅, 时间"}
	for _, q := range quotes {
		if q == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s, %s, %.4f, %.2f%%, %s",
			q.Code, q.Name, q.EstimateNAV, q.ChangePct, q.Timestamp))
	}
	return strings.Join(lines, "\n")
}

// HoldingsResults is the uncoloured holdings table written to the results file
func HoldingsResults(summary *models.PortfolioSummary, source string) string {
	return NewFormatter(false).Holdings(summary, source)
}
