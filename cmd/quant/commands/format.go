package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/rebalancer/internal/brain"
	"github.com/wonny/rebalancer/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintHeader prints a titled block header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

func joinSymbols(symbols []contracts.Symbol) string {
	if len(symbols) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(symbols))
	for _, s := range symbols {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, ", ")
}

// PrintTickResult prints one tick in the standard block layout
func PrintTickResult(result *brain.TickResult) {
	PrintHeader("Rebalance Tick")
	PrintKeyValue("Time", result.Tick.Time.Format(time.RFC3339), 10)
	PrintKeyValue("Rebalance", fmt.Sprintf("%v", result.Tick.Rebalancing), 10)
	if result.Tick.Rebalancing {
		PrintKeyValue("Date", result.Tick.RebalanceDate.Format("2006-01-02"), 10)
		PrintKeyValue("Selected", fmt.Sprintf("%d", len(result.Selected)), 10)
	}
	PrintKeyValue("Target", joinSymbols(result.Target), 10)
	PrintKeyValue("Added", joinSymbols(result.Changes.Added), 10)
	PrintKeyValue("Removed", joinSymbols(result.Changes.Removed), 10)
	if result.Coverage != nil {
		PrintKeyValue("Coverage", fmt.Sprintf("%.1f%% (%d/%d)", result.Coverage.Coverage*100, result.Coverage.Usable, result.Coverage.Requested), 10)
	}

	if result.Rebalance == nil || len(result.Rebalance.Orders) == 0 {
		PrintSeparator()
		return
	}

	if len(result.Rebalance.Diff.Suppressed) > 0 {
		PrintWarning(fmt.Sprintf("Sells held back to balance buys: %s", joinSymbols(result.Rebalance.Diff.Suppressed)))
	}

	fmt.Println()
	widths := []int{6, 10, 10, 26, 10}
	PrintTableHeader([]string{"Action", "Symbol", "Exchange", "Trigger", "Fraction"}, widths)
	for _, o := range result.Rebalance.Orders {
		fraction := "-"
		if o.IsBuy() {
			fraction = o.SizingFraction.String()
		}
		PrintTableRow([]string{
			string(o.Action),
			o.Symbol.String(),
			o.Handle.Exchange,
			o.TriggerAt.Format(time.RFC3339),
			fraction,
		}, widths)
	}
	PrintSeparator()
}
