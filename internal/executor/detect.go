package executor

import "regexp"

var detectionPatterns = []struct {
	lang     string
	patterns []*regexp.Regexp
}{
	{"java", []*regexp.Regexp{
		regexp.MustCompile(`public\s+class`),
		regexp.MustCompile(`import\s+java\.`),
		regexp.MustCompile(`extends\s+[A-Za-z]+`),
		regexp.MustCompile(`implements\s+[A-Za-z]+`),
	}},
	{"cpp", []*regexp.Regexp{
		regexp.MustCompile(`#include\s*<[^>]+>`),
		regexp.MustCompile(`using\s+namespace\s+std;`),
		regexp.MustCompile(`class\s+[A-Za-z]+`),
		regexp.MustCompile(`std::`),
	}},
	{"c", []*regexp.Regexp{
		regexp.MustCompile(`#include\s*<[^>]+>`),
		regexp.MustCompile(`printf\s*\(`),
		regexp.MustCompile(`scanf\s*\(`),
		regexp.MustCompile(`malloc\s*\(`),
	}},
	{"python", []*regexp.Regexp{
		regexp.MustCompile(`def\s+[a-zA-Z_][a-zA-Z0-9_]*\s*\(`),
		regexp.MustCompile(`import\s+[a-zA-Z_][a-zA-Z0-9_]*`),
		regexp.MustCompile(`from\s+[a-zA-Z_][a-zA-Z0-9_]*\s+import`),
		regexp.MustCompile(`if\s+__name__\s*==\s*['"]__main__['"]`),
	}},
}

// DetectLanguage guesses the language of a code snippet by pattern scoring.
// Used for debugging challenges whose stored buggy code carries no language
// tag. Defaults to python.
func DetectLanguage(code string) string {
	if code == "" {
		return "python"
	}

	best := "python"
	bestScore := 0
	for _, entry := range detectionPatterns {
		score := 0
		for _, p := range entry.patterns {
			if p.MatchString(code) {
				score++
			}
		}
		// Strict: a language needs at least one hit to displace the default.
		if score > bestScore {
			best = entry.lang
			bestScore = score
		}
	}
	return best
}
