package analysis

// Summarize recomputes severity counts from scratch; Total is always the sum
// of the four buckets, never incrementally drifted.
func Summarize(findings []Finding) SeverityCounts {
	var c SeverityCounts
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		case SeverityLow:
			c.Low++
		}
	}
	c.Total = c.Critical + c.High + c.Medium + c.Low
	return c
}
