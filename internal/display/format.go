package display

import "fmt"

// FormatSize renders a byte count with binary multiples and two decimals:
// "512 B", "1.50 kB", "700.00 MB", "4.70 GB". Negative values keep a sign.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + FormatSize(-bytes)
	}
	const unit = 1024.0
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.2f kB", float64(bytes)/unit)
	case bytes < 1024*1024*1024:
		return fmt.Sprintf("%.2f MB", float64(bytes)/unit/unit)
	default:
		return fmt.Sprintf("%.2f GB", float64(bytes)/unit/unit/unit)
	}
}

// FormatPercent renders part/whole as a percentage with two decimals, or
// "n/a" when whole is zero.
func FormatPercent(part, whole int64) string {
	if whole == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", float64(part)*100/float64(whole))
}

// FormatBitrateLabel returns a short label for bitrate in kbps (e.g. "1200 kbps").
func FormatBitrateLabel(kbps int64) string {
	if kbps <= 0 {
		return "n/a"
	}
	if kbps < 1000 {
		return fmt.Sprintf("%d kbps", kbps)
	}
	return fmt.Sprintf("%.1f Mbps", float64(kbps)/1000)
}
