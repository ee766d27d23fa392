package chat

import (
	"fmt"
	"strings"

	"github.com/seenimoa/stockchat/pkg/models"
)

// BuildContext formats the index reference table for the prompt: one line
// per record, then a count line and a note on the available price columns.
func BuildContext(records []models.IndexRecord) string {
	var b strings.Builder
	b.WriteString("Available stock market indices:\n")
	for _, r := range records {
		fmt.Fprintf(&b, "- %s (%s, %s, %s)\n", r.Index, r.Exchange, r.Region, r.Currency)
	}
	fmt.Fprintf(&b, "\nTotal indices available: %d", len(records))
	b.WriteString("\n\nData includes historical price information (Open, High, Low, Close, Volume) for these indices.")
	return b.String()
}
