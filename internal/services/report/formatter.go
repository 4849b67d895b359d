// Package report renders valuations as console tables, markdown and result files
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/models"
)

const (
	holdingsRule = 95
	quotesRule   = 80
	marketRule   = 60
	estimateRule = 60

	timeLayout = "2006-01-02 15:04:05"
)

var (
	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// Formatter renders plain-text tables. Columns are padded by display width so
// CJK names stay aligned.
type Formatter struct {
	color bool
}

// NewFormatter creates a formatter; color enables red-up/green-down styling
// and should only be set for terminal output.
func NewFormatter(color bool) *Formatter {
	return &Formatter{color: color}
}

// Holdings renders the holdings profit table with its totals footer
func (f *Formatter) Holdings(summary *models.PortfolioSummary, source string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("--- 基金持有盈亏实时分析 (%s数据源, %s) ---\n",
		strings.ToUpper(source), summary.GeneratedAt.Format(timeLayout)))
	sb.WriteString(holdingsRow("基金名称", "基金编号", "实时涨幅", "实时收益", "持有收益", "持仓金额"))
	sb.WriteString(strings.Repeat("-", holdingsRule) + "\n")

	for _, e := range summary.Entries {
		if e.Status != models.StatusSuccess {
			sb.WriteString(padRight(e.Name, 15) + " " + padRight(e.Code, 10) + " " + f.dim("获取失败") + "\n")
			continue
		}
		sb.WriteString(holdingsRow(
			e.Name,
			e.Code,
			f.signed(e.RealtimeChange, common.FormatSignedPct(e.RealtimeChange)),
			f.signed(e.RealtimeProfit, common.FormatSignedAmount(e.RealtimeProfit)),
			f.signed(e.HoldProfit, common.FormatSignedAmount(e.HoldProfit)),
			fmt.Sprintf("%.2f", e.Amount),
		))
	}

	sb.WriteString(strings.Repeat("-", holdingsRule) + "\n")
	sb.WriteString(fmt.Sprintf("当日合计实时收益预估: %s 元 | 总持仓金额: %s\n",
		f.signed(summary.TotalRealtimeProfit, common.FormatSignedAmount(summary.TotalRealtimeProfit)),
		common.FormatCNY(summary.TotalAmount)))
	if summary.Unavailable > 0 {
		sb.WriteString(f.dim(fmt.Sprintf("%d 只基金未获取到估值\n", summary.Unavailable)))
	}

	return sb.String()
}

func holdingsRow(name, code, change, profit, hold, amount string) string {
	return padRight(name, 22) + " " + padRight(code, 10) + " " +
		padLeft(change, 10) + " " + padLeft(profit, 10) + " " +
		padLeft(hold, 10) + " " + padLeft(amount, 10) + "\n"
}

// Quotes renders the estimate list for codes; quotes are positional with codes
// and nil entries are skipped.
func (f *Formatter) Quotes(codes []string, quotes []*models.QuoteSnapshot, source string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("--- 基金实时估值汇总 (%s数据源, %s) ---\n",
		strings.ToUpper(source), now.Format(timeLayout)))
	sb.WriteString(padRight("代码", 10) + " " + padRight("基金名称", 25) + " " +
		padRight("估值", 10) + " " + padRight("涨跌幅", 10) + " " + "时间\n")
	sb.WriteString(strings.Repeat("-", quotesRule) + "\n")

	for i, q := range quotes {
		if q == nil {
			if i < len(codes) {
				sb.WriteString(padRight(codes[i], 10) + " " + f.dim("获取失败") + "\n")
			}
			continue
		}
		sb.WriteString(padRight(q.Code, 10) + " " + padRight(q.Name, 25) + " " +
			padRight(fmt.Sprintf("%.4f", q.EstimateNAV), 10) + " " +
			padLeft(f.signed(q.ChangePct, common.FormatSignedPct(q.ChangePct)), 10) + " " +
			q.Timestamp + "\n")
	}

	return sb.String()
}

// Market renders the index overview table
func (f *Formatter) Market(indices []models.MarketIndex, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("--- 东方财富今日大盘数据 (%s) ---\n", now.Format(timeLayout)))
	sb.WriteString(marketRow("名称", "最新价", "涨跌幅", "涨跌额", "成交额"))
	sb.WriteString(strings.Repeat("-", marketRule) + "\n")

	if len(indices) == 0 {
		sb.WriteString("未能获取到数据，请检查网络或 API 状态。\n")
		return sb.String()
	}

	for _, idx := range indices {
		name := idx.Name
		if name == "" {
			name = idx.Code
		}
		if !idx.Available {
			sb.WriteString(marketRow(name, "-", "-", "-", "-"))
			continue
		}
		sb.WriteString(marketRow(
			name,
			fmt.Sprintf("%.2f", idx.Price),
			f.signed(idx.ChangePct, common.FormatSignedPct(idx.ChangePct)),
			f.signed(idx.Change, common.FormatSignedAmount(idx.Change)),
			common.FormatLargeNumber(idx.Turnover),
		))
	}

	return sb.String()
}

func marketRow(name, price, pct, change, turnover string) string {
	return padRight(name, 10) + " " + padRight(price, 10) + " " + padRight(pct, 10) + " " +
		padRight(change, 10) + " " + turnover + "\n"
}

// Estimate renders a constituent-weighted valuation
func (f *Formatter) Estimate(v *models.ConstituentValuation) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("--- %s (%s) 实时估值计算 ---\n", v.Name, v.Code))
	sb.WriteString(fmt.Sprintf("基准日期: %s  单位净值: %.4f\n", v.PrevNAVDate, v.PrevNAV))
	sb.WriteString(strings.Repeat("-", estimateRule) + "\n")
	sb.WriteString(padRight("成分股", 10) + " " + padLeft("权重", 7) + " " +
		padLeft("今日涨跌", 10) + " " + padLeft("贡献度", 10) + "\n")

	for _, c := range v.Constituents {
		name := c.Name
		if name == "" {
			name = c.Code
		}
		weight := fmt.Sprintf("%.2f%%", c.Weight)
		if !c.Available {
			sb.WriteString(padRight(name, 10) + " " + padLeft(weight, 7) + " " + padLeft(f.dim("未获取"), 10) + "\n")
			continue
		}
		sb.WriteString(padRight(name, 10) + " " + padLeft(weight, 7) + " " +
			padLeft(f.signed(c.ChangePct, fmt.Sprintf("%.2f%%", c.ChangePct)), 10) + " " +
			padLeft(f.signed(c.Contribution, fmt.Sprintf("%.2f%%", c.Contribution)), 10) + "\n")
	}

	sb.WriteString(strings.Repeat("-", estimateRule) + "\n")
	sb.WriteString(fmt.Sprintf("前十大总权重: %.2f%%\n", v.CoveredWeight))
	sb.WriteString(fmt.Sprintf("前十大加权涨跌: %s\n", f.signed(v.EstimateChangePct, fmt.Sprintf("%.2f%%", v.EstimateChangePct))))
	sb.WriteString(fmt.Sprintf("实时估算净值: %.4f\n", v.EstimateNAV))
	sb.WriteString(fmt.Sprintf("官方估算涨跌: %.2f%% (参考)\n", v.OfficialChangePct))
	sb.WriteString(fmt.Sprintf("估值时间: %s\n", v.OfficialTime))

	return sb.String()
}

// signed colours s by the sign of v: red for gains, green for losses
func (f *Formatter) signed(v float64, s string) string {
	if !f.color {
		return s
	}
	switch {
	case v > 0:
		return upStyle.Render(s)
	case v < 0:
		return downStyle.Render(s)
	default:
		return s
	}
}

func (f *Formatter) dim(s string) string {
	if !f.color {
		return s
	}
	return dimStyle.Render(s)
}

// padRight pads s with spaces to width display cells
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// padLeft right-aligns s within width display cells
func padLeft(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}
