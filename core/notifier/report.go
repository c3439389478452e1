package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Settings echoes the run settings at the bottom of a report.
type Settings struct {
	Threads    int
	Attempts   int
	SkipFailed bool
}

// Report is the per-wallet summary sent after a wallet's turn.
type Report struct {
	BotName    string
	WalletName string
	Identity   string
	// Position is 1-based within the batch.
	Position int
	Total    int

	Completed  []string
	Failed     []string
	TotalTasks int

	Settings Settings
	RunTime  time.Duration
	At       time.Time
}

// SuccessRate is completed over total tasks in percent, one decimal place.
func (r Report) SuccessRate() decimal.Decimal {
	if r.TotalTasks <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(len(r.Completed))).
		Div(decimal.NewFromInt(int64(r.TotalTasks))).
		Mul(decimal.NewFromInt(100)).
		Round(1)
}

// FormatHTML renders the report as Telegram HTML. Every value that comes
// from wallets or task names is escaped.
func FormatHTML(r Report) string {
	var sb strings.Builder

	sb.WriteString("🐰 <b>")
	sb.WriteString(html.EscapeString(r.BotName))
	sb.WriteString(" Report</b>\n")
	sb.WriteString("🕒 Run Time: ")
	sb.WriteString(formatRunTime(r.RunTime))
	sb.WriteString("\n🗓 Date: ")
	sb.WriteString(r.At.Format("02/01/2006, 15:04:05"))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("\n💳 Wallet %d/%d: %s | <code>%s</code>\n",
		r.Position, r.Total, html.EscapeString(r.WalletName), html.EscapeString(r.Identity)))

	sb.WriteString("✅ <b>Completed Tasks:</b>\n")
	writeList(&sb, r.Completed)
	if len(r.Failed) > 0 {
		sb.WriteString("❌ <b>Failed Tasks:</b>\n")
		writeList(&sb, r.Failed)
	}

	sb.WriteString("\n📊 <b>Statistics:</b>\n")
	sb.WriteString(fmt.Sprintf("Total Tasks: %d\n", r.TotalTasks))
	sb.WriteString(fmt.Sprintf("Completed: %d\n", len(r.Completed)))
	sb.WriteString(fmt.Sprintf("Failed: %d\n", len(r.Failed)))
	sb.WriteString("Success Rate: ")
	sb.WriteString(r.SuccessRate().StringFixed(1))
	sb.WriteString("%\n")

	sb.WriteString("\n⚙️ <b>Settings:</b>\n")
	sb.WriteString(fmt.Sprintf("Threads: %d\n", r.Settings.Threads))
	sb.WriteString(fmt.Sprintf("Attempts: %d\n", r.Settings.Attempts))
	sb.WriteString("Skip Failed: ")
	if r.Settings.SkipFailed {
		sb.WriteString("Yes")
	} else {
		sb.WriteString("No")
	}

	return sb.String()
}

func writeList(sb *strings.Builder, items []string) {
	if len(items) == 0 {
		sb.WriteString("None\n")
		return
	}
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, html.EscapeString(item)))
	}
}

func formatRunTime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
