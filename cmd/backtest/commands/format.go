package commands

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// printer inserts locale-aware thousands separators.
var printer = message.NewPrinter(language.Korean)

// formatWon renders an amount as a comma-grouped integer
func formatWon(v float64) string {
	return printer.Sprintf("%.0f", v)
}

// formatPercent renders a fraction as a signed percentage
func formatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	fmt.Printf("✅ %s\n", msg)
}

// PrintError prints an error message
func PrintError(msg string) {
	fmt.Printf("❌ %s\n", msg)
}

// PrintWarning prints a warning message
func PrintWarning(msg string) {
	fmt.Printf("⚠️  %s\n", msg)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}
