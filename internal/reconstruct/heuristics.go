package reconstruct

import (
	"regexp"
	"strings"
)

// Block keywords that receive colon insertion during heuristic repair.
var reHeuristicBlock = regexp.MustCompile(`^\s*(def|class|if|for|while|try|with)\b`)

var reSubprocessRun = regexp.MustCompile(`subprocess\.run\s*\(`)

// heuristicRepair is the terminal pass when no template is available.
// It applies, in order: indentation normalization, colon insertion, and
// a safety normalization that gives subprocess.run calls an explicit
// success-check flag.
func heuristicRepair(content string, indentUnit string) string {
	lines := strings.Split(content, "\n")
	lines = normalizeIndentation(lines, indentUnit)
	lines = insertColons(lines)
	lines = ensureSuccessCheck(lines)
	return strings.Join(lines, "\n")
}

// normalizeIndentation indents an unindented line one level when the
// immediately preceding non-blank line ends with a colon or is itself
// indented.
func normalizeIndentation(lines []string, indentUnit string) []string {
	out := make([]string, len(lines))
	prev := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out[i] = line
			continue
		}

		if prev != "" && !isIndented(line) {
			prevTrimmed := strings.TrimSpace(prev)
			if strings.HasSuffix(prevTrimmed, ":") || isIndented(prev) {
				line = indentUnit + line
			}
		}
		out[i] = line
		prev = line
	}
	return out
}

// insertColons appends a colon to block-opening lines that lack one.
func insertColons(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if reHeuristicBlock.MatchString(line) && !strings.HasSuffix(trimmed, ":") && strings.TrimSpace(trimmed) != "" {
			line = trimmed + ":"
		}
		out[i] = line
	}
	return out
}

// ensureSuccessCheck adds check=True to subprocess.run calls that don't
// already pass a check argument. Only single-line calls are rewritten.
func ensureSuccessCheck(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if reSubprocessRun.MatchString(line) && !strings.Contains(line, "check=") {
			if idx := strings.LastIndexByte(line, ')'); idx >= 0 {
				arg := ", check=True"
				open := reSubprocessRun.FindStringIndex(line)
				if open != nil && strings.TrimSpace(line[open[1]:idx]) == "" {
					arg = "check=True"
				}
				line = line[:idx] + arg + line[idx:]
			}
		}
		out[i] = line
	}
	return out
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}
