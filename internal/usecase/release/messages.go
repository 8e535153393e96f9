package release

import (
	"fmt"
	"strings"

	"release-radar/internal/domain/entity"
)

func startMessage(window entity.RecencyWindow) string {
	return fmt.Sprintf("🔎 Looking for releases from the last %s…", monthsLabel(window))
}

func failedMessage(stage string) string {
	return fmt.Sprintf("⚠️ Scan failed while %s. Check the logs for details.", stage)
}

func summaryMessage(stats *ScanStats) string {
	var b strings.Builder
	if stats.Cancelled {
		b.WriteString("⏹ Scan cancelled.\n")
	} else {
		b.WriteString("✅ Scan finished.\n")
	}
	fmt.Fprintf(&b, "Artists: %d", stats.Artists)
	if stats.ArtistErrors > 0 {
		fmt.Fprintf(&b, " (%d failed)", stats.ArtistErrors)
	}
	fmt.Fprintf(&b, "\nNew releases sent: %d", stats.Delivered)
	if stats.Duplicates > 0 {
		fmt.Fprintf(&b, "\nAlready sent: %d", stats.Duplicates)
	}
	if stats.DeliveryErrors > 0 {
		fmt.Fprintf(&b, "\nNot delivered: %d", stats.DeliveryErrors)
	}
	if stats.Found == 0 && !stats.Cancelled {
		fmt.Fprintf(&b, "\nNothing new in the last %s.", monthsLabel(stats.Window))
	}
	return b.String()
}

func monthsLabel(w entity.RecencyWindow) string {
	if w == 1 {
		return "month"
	}
	return fmt.Sprintf("%d months", int(w))
}
