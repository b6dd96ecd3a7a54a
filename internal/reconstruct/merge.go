package reconstruct

import (
	"fmt"
	"regexp"
	"strings"

	"mender/internal/model"
)

var (
	reImportLine = regexp.MustCompile(`^\s*import\s+([A-Za-z_][\w.]*)`)
	reFromLine   = regexp.MustCompile(`^\s*from\s+([A-Za-z_.][\w.]*)\s+import`)
	reDefLine    = regexp.MustCompile(`^(\s*)def\s+([A-Za-z_]\w*)`)
	reClassLine  = regexp.MustCompile(`^(\s*)class\s+([A-Za-z_]\w*)`)
)

// mergeWithTemplate rewrites broken content line by line against the
// template model: imports are kept only when the template knows them,
// def/class headers are rebuilt from the template's recorded signatures
// on a name match, and statement indentation is corrected with the
// nearest enclosing def/class header heuristic. Exactly one pass; no
// convergence loop.
func mergeWithTemplate(content string, template *model.SourceModel, indentUnit string) string {
	templateImports := make(map[string]bool, len(template.Imports))
	for _, imp := range template.Imports {
		templateImports[imp] = true
	}
	templateFuncs := make(map[string]model.FunctionInfo, len(template.Functions))
	for _, f := range template.Functions {
		templateFuncs[f.Name] = f
	}
	templateClasses := make(map[string]model.ClassInfo, len(template.Classes))
	for _, c := range template.Classes {
		templateClasses[c.Name] = c
	}
	// Methods carry their class's signature knowledge too.
	for _, c := range template.Classes {
		for _, m := range c.Methods {
			if _, ok := templateFuncs[m]; !ok {
				templateFuncs[m] = model.FunctionInfo{Name: m, Params: nil}
			}
		}
	}

	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))

	// Indent of the nearest def/class header above the current line;
	// -1 when the line sits at module level.
	headerIndent := -1
	prevColonOrIndented := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out = append(out, line)
			continue
		}

		switch {
		case reImportLine.MatchString(line) || reFromLine.MatchString(line):
			out = append(out, mergeImportLine(line, templateImports))
			headerIndent = -1
			prevColonOrIndented = false

		case reDefLine.MatchString(line):
			match := reDefLine.FindStringSubmatch(line)
			indent, name := match[1], match[2]
			out = append(out, mergeDefLine(line, indent, name, templateFuncs))
			headerIndent = len(indent)
			prevColonOrIndented = true

		case reClassLine.MatchString(line):
			match := reClassLine.FindStringSubmatch(line)
			indent, name := match[1], match[2]
			out = append(out, mergeClassLine(line, indent, name, templateClasses))
			headerIndent = len(indent)
			prevColonOrIndented = true

		default:
			// Nearest enclosing block heuristic: an unindented statement
			// below a def/class header belongs to that header's body.
			if headerIndent >= 0 && !isIndented(line) && prevColonOrIndented {
				line = strings.Repeat(" ", headerIndent) + indentUnit + line
			}
			out = append(out, line)
			prevColonOrIndented = strings.HasSuffix(strings.TrimSpace(line), ":") || isIndented(line)
		}
	}

	return strings.Join(out, "\n")
}

// mergeImportLine keeps an import the template knows; anything else is
// replaced by the canonical safe form of the same module.
func mergeImportLine(line string, templateImports map[string]bool) string {
	name := ""
	if match := reFromLine.FindStringSubmatch(line); match != nil {
		name = match[1]
	} else if match := reImportLine.FindStringSubmatch(line); match != nil {
		name = match[1]
	}
	if name == "" || templateImports[name] {
		return line
	}
	return "import " + name
}

// mergeDefLine rebuilds a def header from the template signature when
// the name matches; unmatched headers only get colon insertion.
func mergeDefLine(line, indent, name string, templateFuncs map[string]model.FunctionInfo) string {
	info, ok := templateFuncs[name]
	if ok && info.Params != nil {
		return fmt.Sprintf("%sdef %s(%s):", indent, name, strings.Join(info.Params, ", "))
	}
	return appendColon(line)
}

// mergeClassLine rebuilds a class header from the template when the
// name matches.
func mergeClassLine(line, indent, name string, templateClasses map[string]model.ClassInfo) string {
	info, ok := templateClasses[name]
	if !ok {
		return appendColon(line)
	}
	if len(info.Bases) > 0 {
		return fmt.Sprintf("%sclass %s(%s):", indent, name, strings.Join(info.Bases, ", "))
	}
	return fmt.Sprintf("%sclass %s:", indent, name)
}

func appendColon(line string) string {
	trimmed := strings.TrimRight(line, " \t")
	if strings.HasSuffix(trimmed, ":") {
		return line
	}
	return trimmed + ":"
}
