package executor

import (
	"fmt"
	"regexp"
	"strings"
)

// language describes how a language is addressed on the execution oracle.
type language struct {
	Name      string
	Version   string
	Extension string
}

var languages = map[string]language{
	"python": {Name: "python", Version: "3.10.0", Extension: "py"},
	"java":   {Name: "java", Version: "15.0.2", Extension: "java"},
	"cpp":    {Name: "cpp", Version: "10.2.0", Extension: "cpp"},
	"c":      {Name: "c", Version: "10.2.0", Extension: "c"},
}

// SupportedLanguage reports whether lang can be dispatched.
func SupportedLanguage(lang string) bool {
	_, ok := languages[lang]
	return ok
}

var pythonInputCall = regexp.MustCompile(`input\([^)]*\)`)

const javaWrapper = `import java.util.Scanner;
import java.io.BufferedReader;
import java.io.InputStreamReader;

public class Main {
    public static void main(String[] args) {
        Scanner scanner = new Scanner(System.in);
        try {
%s
        } finally {
            scanner.close();
        }
    }
}`

const cWrapper = `#include <stdio.h>
#include <stdlib.h>
#include <string.h>

int main() {
%s
    return 0;
}`

// AdaptSource rewrites user code so it runs standalone on the oracle.
//
// Python snippets that read interactively are rewired to consume the
// supplied stdin stream instead of blocking. Java and C snippets missing
// an entry point get wrapped in a minimal one. Deterministic: one template
// per language, no other mutation.
func AdaptSource(lang, source, stdin string) string {
	switch lang {
	case "python":
		out := source
		if stdin != "" {
			out = pythonInputCall.ReplaceAllString(out, "sys.stdin.readline().strip()")
		}
		if !strings.Contains(out, "import sys") {
			out = "import sys\n" + out
		}
		return out

	case "java":
		if strings.Contains(source, "public class") {
			return source
		}
		return fmt.Sprintf(javaWrapper, indent(source, "            "))

	case "c":
		if strings.Contains(source, "int main") {
			return source
		}
		return fmt.Sprintf(cWrapper, indent(source, "    "))

	default:
		return source
	}
}

func indent(code, prefix string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
