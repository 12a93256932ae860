package prompt

import "strings"

// Parsed is the structured form of a model reply.
type Parsed struct {
	Summary         string
	RootCause       string
	Impact          string
	Recommendations []string
	CodeExample     string
}

// ParseResponse splits the reply into sections by their headers. Models
// don't always follow the layout exactly, so detection is loose: a line
// mentioning the section name with a colon starts that section.
func ParseResponse(text string) Parsed {
	var p Parsed
	var section string
	var buffer []string

	flush := func() {
		if section != "" && len(buffer) > 0 {
			saveSection(&p, section, buffer)
		}
		buffer = nil
	}

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))

		switch {
		case strings.Contains(lower, "summary") && strings.Contains(line, ":"):
			flush()
			section = "summary"
			buffer = headerRemainder(line)
		case strings.Contains(lower, "root cause") && strings.Contains(line, ":"):
			flush()
			section = "root_cause"
			buffer = headerRemainder(line)
		case strings.Contains(lower, "impact") && strings.Contains(line, ":"):
			flush()
			section = "impact"
			buffer = headerRemainder(line)
		case strings.Contains(lower, "recommendation") && strings.Contains(line, ":"):
			flush()
			section = "recommendations"
			buffer = headerRemainder(line)
		case strings.Contains(lower, "code example"):
			flush()
			section = "code_example"
		default:
			if section != "" {
				buffer = append(buffer, line)
			}
		}
	}
	flush()

	return p
}

// headerRemainder keeps any content following the header's colon.
func headerRemainder(line string) []string {
	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return nil
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil
	}
	return []string{rest}
}

func saveSection(p *Parsed, section string, buffer []string) {
	content := strings.TrimSpace(strings.Join(buffer, "\n"))

	switch section {
	case "summary":
		p.Summary = content
	case "root_cause":
		p.RootCause = content
	case "impact":
		p.Impact = content
	case "recommendations":
		p.Recommendations = parseRecommendations(buffer, content)
	case "code_example":
		p.CodeExample = content
	}
}

// parseRecommendations splits bullet or numbered lines into list items;
// unmarked lines continue the previous item.
func parseRecommendations(buffer []string, fallback string) []string {
	var recs []string
	for _, line := range buffer {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isListItem(line) {
			clean := strings.TrimSpace(strings.TrimLeft(line, "-•0123456789. "))
			if clean != "" {
				recs = append(recs, clean)
			}
		} else if len(recs) > 0 {
			recs[len(recs)-1] += " " + line
		}
	}
	if len(recs) == 0 && fallback != "" {
		return []string{fallback}
	}
	return recs
}

func isListItem(line string) bool {
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") {
		return true
	}
	return line[0] >= '0' && line[0] <= '9'
}
