package render

import "strings"

const maxFailureMessage = 500

// Progress output the renderer writes to stderr even on success.
var noiseIndicators = []string{
	"Animation", "%|", "it/s",
	"█", "▏", "▎", "▍", "▌", "▋", "▊", "▉",
}

func isNoise(line string) bool {
	for _, ind := range noiseIndicators {
		if strings.Contains(line, ind) {
			return true
		}
	}
	return false
}

// meaningfulStderr drops blank and progress lines. Progress bars redraw with
// \r, so both \r and \n split lines.
func meaningfulStderr(stderr string) string {
	lines := strings.FieldsFunc(stderr, func(r rune) bool { return r == '\n' || r == '\r' })
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || isNoise(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
