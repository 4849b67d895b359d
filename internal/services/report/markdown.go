package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/models"
)

// DefaultMarkdownStyle picks dark or light from the terminal background
const DefaultMarkdownStyle = "auto"

// RenderMarkdown renders markdown for the terminal with a glamour standard style
// ("auto", "dark", "light", "notty", ...).
func RenderMarkdown(md, style string) (string, error) {
	if style == "" {
		style = DefaultMarkdownStyle
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// HoldingsMarkdown renders the holdings summary as a markdown table
func HoldingsMarkdown(summary *models.PortfolioSummary, source string) string {
	var sb strings.Builder

	sb.WriteString("# 基金持有盈亏实时分析\n\n")
	sb.WriteString(fmt.Sprintf("**数据源:** %s | **时间:** %s\n\n",
		strings.ToUpper(source), summary.GeneratedAt.Format(timeLayout)))

	sb.WriteString("| 基金名称 | 基金编号 | 实时涨幅 | 实时收益 | 持有收益 | 持仓金额 |\n")
	sb.WriteString("|----------|----------|---------:|---------:|---------:|---------:|\n")
	for _, e := range summary.Entries {
		if e.Status != models.StatusSuccess {
			sb.WriteString(fmt.Sprintf("| %s | %s | 获取失败 | - | %s | %.2f |\n",
				escapeCell(e.Name), e.Code, common.FormatSignedAmount(e.HoldProfit), e.Amount))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %.2f |\n",
			escapeCell(e.Name), e.Code,
			common.FormatSignedPct(e.RealtimeChange),
			common.FormatSignedAmount(e.RealtimeProfit),
			common.FormatSignedAmount(e.HoldProfit),
			e.Amount))
	}

	sb.WriteString(fmt.Sprintf("\n**当日合计实时收益预估:** %s 元 | **总持仓金额:** %s\n",
		common.FormatSignedAmount(summary.TotalRealtimeProfit), common.FormatCNY(summary.TotalAmount)))
	return sb.String()
}

// QuotesMarkdown renders the estimate list as a markdown table
func QuotesMarkdown(codes []string, quotes []*models.QuoteSnapshot, source string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("# 基金实时估值汇总\n\n")
	sb.WriteString(fmt.Sprintf("**数据源:** %s | **时间:** %s\n\n", strings.ToUpper(source), now.Format(timeLayout)))
	sb.WriteString("| 代码 | 基金名称 | 估值 | 涨跌幅 | 时间 |\n")
	sb.WriteString("|------|----------|-----:|-------:|------|\n")
	for i, q := range quotes {
		if q == nil {
			if i < len(codes) {
				sb.WriteString(fmt.Sprintf("| %s | 获取失败 | - | - | - |\n", codes[i]))
			}
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %s | %s |\n",
			q.Code, escapeCell(q.Name), q.EstimateNAV, common.FormatSignedPct(q.ChangePct), q.Timestamp))
	}
	return sb.String()
}

// MarketMarkdown renders the index overview as a markdown table
func MarketMarkdown(indices []models.MarketIndex, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("# 今日大盘\n\n")
	sb.WriteString(fmt.Sprintf("**时间:** %s\n\n", now.Format(timeLayout)))
	sb.WriteString("| 名称 | 最新价 | 涨跌幅 | 涨跌额 | 成交额 |\n")
	sb.WriteString("|------|-------:|-------:|-------:|-------:|\n")
	for _, idx := range indices {
		name := idx.Name
		if name == "" {
			name = idx.Code
		}
		if !idx.Available {
			sb.WriteString(fmt.Sprintf("| %s | - | - | - | - |\n", escapeCell(name)))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %s | %s | %s |\n",
			escapeCell(name), idx.Price,
			common.FormatSignedPct(idx.ChangePct),
			common.FormatSignedAmount(idx.Change),
			common.FormatLargeNumber(idx.Turnover)))
	}
	return sb.String()
}

// EstimateMarkdown renders a constituent-weighted valuation
func EstimateMarkdown(v *models.ConstituentValuation) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s (%s) 实时估值计算\n\n", escapeCell(v.Name), v.Code))
	sb.WriteString(fmt.Sprintf("**基准日期:** %s | **单位净值:** %.4f\n\n", v.PrevNAVDate, v.PrevNAV))
	sb.WriteString("| 成分股 | 权重 | 今日涨跌 | 贡献度 |\n")
	sb.WriteString("|--------|-----:|---------:|-------:|\n")
	for _, c := range v.Constituents {
		name := c.Name
		if name == "" {
			name = c.Code
		}
		if !c.Available {
			sb.WriteString(fmt.Sprintf("| %s | %.2f%% | 未获取 | - |\n", escapeCell(name), c.Weight))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %.2f%% | %.2f%% | %.2f%% |\n",
			escapeCell(name), c.Weight, c.ChangePct, c.Contribution))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("- **前十大总权重:** %.2f%%\n", v.CoveredWeight))
	sb.WriteString(fmt.Sprintf("- **前十大加权涨跌:** %.2f%%\n", v.EstimateChangePct))
	sb.WriteString(fmt.Sprintf("- **实时估算净值:** %.4f\n", v.EstimateNAV))
	sb.WriteString(fmt.Sprintf("- **官方估算涨跌:** %.2f%% (参考)\n", v.OfficialChangePct))
	sb.WriteString(fmt.Sprintf("- **估值时间:** %s\n", v.OfficialTime))
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
