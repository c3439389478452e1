package stats

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var Headers = []string{
	"#", "Wallet Address", "Balance (PHRS)", "Total Txs", "Account ID", "TotalPoints", "TaskPoints", "InvitePoints",
}

// every column but the address is right aligned when it holds a number
const addressColumn = 1

func (r *Report) cells() [][]string {
	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		id, total, task, invite := "-", "-", "-", "-"
		if p := row.Profile; p != nil {
			id = orDash(p.ID.String())
			total = orDash(p.TotalPoints.String())
			task = orDash(p.TaskPoints.String())
			invite = orDash(p.InvitePoints.String())
		}
		rows = append(rows, []string{
			strconv.Itoa(row.Position),
			row.Address,
			row.Balance.StringFixed(4),
			strconv.FormatUint(row.TxCount, 10),
			id, total, task, invite,
		})
	}
	return rows
}

// the API reports zero points the same way as missing ones
func orDash(s string) string {
	if s == "" || s == "0" {
		return "-"
	}
	return s
}

// Summary is the two totals lines printed under the table.
func (r *Report) Summary() []string {
	total, task, invite := r.TotalPoints()
	return []string{
		fmt.Sprintf("Total wallets: %d | Total balance: %s PHRS | Total txs: %d", r.Wallets, r.TotalBalance().StringFixed(4), r.TotalTxs()),
		fmt.Sprintf("Total Points: %s | Task Points: %s | Invite Points: %s", total, task, invite),
	}
}

// Table renders the report as a box drawn text table followed by the totals.
func (r *Report) Table() string {
	rows := r.cells()
	widths := make([]int, len(Headers))
	for i, h := range Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	line := func(left, mid, right string) string {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return left + strings.Join(parts, mid) + right
	}
	render := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i != addressColumn && isNumber(cell) {
				parts[i] = fmt.Sprintf(" %*s ", widths[i], cell)
			} else {
				parts[i] = fmt.Sprintf(" %-*s ", widths[i], cell)
			}
		}
		return "│" + strings.Join(parts, "│") + "│"
	}

	var b strings.Builder
	b.WriteString(line("┌", "┬", "┐") + "\n")
	b.WriteString(render(Headers) + "\n")
	b.WriteString(line("├", "┼", "┤") + "\n")
	for _, row := range rows {
		b.WriteString(render(row) + "\n")
	}
	b.WriteString(line("└", "┴", "┘") + "\n")
	for _, s := range r.Summary() {
		b.WriteString(s + "\n")
	}
	return b.String()
}

// Markdown renders the report as a Markdown table followed by the totals.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(Headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(Headers)) + "\n")
	for _, row := range r.cells() {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	b.WriteString("\n")
	for _, s := range r.Summary() {
		b.WriteString(s + "\n")
	}
	return b.String()
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
