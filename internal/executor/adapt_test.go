package executor

import (
	"strings"
	"testing"
)

func TestAdaptSourcePythonInputRewrite(t *testing.T) {
	src := "name = input()\nprint(name)"
	out := AdaptSource("python", src, "alice")

	if strings.Contains(out, "input(") {
		t.Errorf("input() call survived adaptation: %q", out)
	}
	if !strings.Contains(out, "sys.stdin.readline().strip()") {
		t.Errorf("stdin rewrite missing: %q", out)
	}
	if !strings.HasPrefix(out, "import sys\n") {
		t.Errorf("import sys not injected: %q", out)
	}
}

func TestAdaptSourcePythonInputWithPrompt(t *testing.T) {
	out := AdaptSource("python", `x = input("enter: ")`, "5")
	if strings.Contains(out, "input(") {
		t.Errorf("prompted input() survived: %q", out)
	}
}

func TestAdaptSourcePythonNoStdinKeepsInput(t *testing.T) {
	src := "print(1 + 2)"
	out := AdaptSource("python", src, "")
	if !strings.Contains(out, src) {
		t.Errorf("source body altered: %q", out)
	}
}

func TestAdaptSourcePythonImportSysOnce(t *testing.T) {
	src := "import sys\nprint(sys.argv)"
	out := AdaptSource("python", src, "")
	if strings.Count(out, "import sys") != 1 {
		t.Errorf("import sys duplicated: %q", out)
	}
}

func TestAdaptSourceJavaWrapsSnippet(t *testing.T) {
	out := AdaptSource("java", `System.out.println("hi");`, "")
	if !strings.Contains(out, "public class Main") {
		t.Errorf("snippet not wrapped: %q", out)
	}
	if !strings.Contains(out, `System.out.println("hi");`) {
		t.Errorf("snippet body lost: %q", out)
	}
}

func TestAdaptSourceJavaFullProgramUntouched(t *testing.T) {
	src := "public class Main { public static void main(String[] a) {} }"
	if out := AdaptSource("java", src, ""); out != src {
		t.Errorf("full program modified: %q", out)
	}
}

func TestAdaptSourceCWrapsSnippet(t *testing.T) {
	out := AdaptSource("c", `printf("hi\n");`, "")
	if !strings.Contains(out, "int main()") {
		t.Errorf("snippet not wrapped: %q", out)
	}
}

func TestAdaptSourceCFullProgramUntouched(t *testing.T) {
	src := "#include <stdio.h>\nint main() { return 0; }"
	if out := AdaptSource("c", src, ""); out != src {
		t.Errorf("full program modified: %q", out)
	}
}

func TestAdaptSourceUnknownLanguagePassthrough(t *testing.T) {
	src := "select 1;"
	if out := AdaptSource("sql", src, ""); out != src {
		t.Errorf("unknown language modified: %q", out)
	}
}

func TestSupportedLanguage(t *testing.T) {
	for _, lang := range []string{"python", "java", "cpp", "c"} {
		if !SupportedLanguage(lang) {
			t.Errorf("%s should be supported", lang)
		}
	}
	if SupportedLanguage("rust") {
		t.Error("rust should not be supported")
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"java class", "import java.util.*;\npublic class Foo {}", "java"},
		{"cpp", "#include <iostream>\nusing namespace std;\nint main() { std::cout << 1; }", "cpp"},
		{"c", "#include <stdio.h>\nint main() { printf(\"x\"); scanf(\"%d\", &n); }", "c"},
		{"python", "import os\ndef main():\n    pass\nif __name__ == '__main__':\n    main()", "python"},
		{"empty defaults to python", "", "python"},
		{"plain text defaults to python", "hello", "python"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.code); got != tt.want {
				t.Errorf("DetectLanguage = %q, want %q", got, tt.want)
			}
		})
	}
}
