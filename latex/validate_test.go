package latex

import (
	"errors"
	"testing"
)

const minimalDoc = `\documentclass[11pt]{article}
\usepackage{amsmath} % math
\begin{document}
\section{Intro}
Costs 5\% more, see \{braces\}.
\begin{itemize}
  \item one
\end{itemize}
\end{document}
`

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	if err := Validate([]byte(minimalDoc)); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateIgnoresVerbatimText(t *testing.T) {
	cases := map[string]string{
		"verb brace":  "\\documentclass{article}\n\\begin{document}\n\\verb|{|\n\\end{document}",
		"verb star":   "\\documentclass{article}\\begin{document}\\verb*+}%+ \\end{document}",
		"verbatim":    "\\documentclass{article}\\begin{document}\n\\begin{verbatim}\n{ \\end{itemize} %\n\\end{verbatim}\n\\end{document}",
		"lstlisting":  "\\documentclass{article}\\begin{document}\\begin{lstlisting}[language=C]\nint f() {\n\\end{lstlisting}\\end{document}",
		"comment env": "\\documentclass{article}\\begin{document}\\begin{comment}\\begin{document}}\\end{comment}\\end{document}",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if err := Validate([]byte(src)); err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"empty":             "   \n",
		"no class":          `\begin{document}x\end{document}`,
		"class after begin": `\begin{document}\documentclass{article}\end{document}`,
		"no document":       `\documentclass{article} hello`,
		"two documents":     `\documentclass{article}\begin{document}\end{document}\begin{document}\end{document}`,
		"unbalanced open":   `\documentclass{article}\begin{document}\textbf{x\end{document}`,
		"unbalanced close":  `\documentclass{article}\begin{document}x}\end{document}`,
		"crossed envs":      `\documentclass{article}\begin{document}\begin{a}\begin{b}\end{a}\end{b}\end{document}`,
		"unclosed env":      `\documentclass{article}\begin{document}\begin{a}\end{document}`,
		"brace in comment":  "\\documentclass{article}\\begin{document}\\textbf{x % }\n\\end{document}",
		"invalid utf8":      "\\documentclass{article}\\begin{document}\xff\\end{document}",
		"end without begin": `\documentclass{article}\end{itemize}\begin{document}\end{document}`,
		"unterminated verb": "\\documentclass{article}\\begin{document}\\verb|{\n|\\end{document}",
		"open verbatim":     `\documentclass{article}\begin{document}\begin{verbatim}{\end{document}`,
		"brace after verb":  `\documentclass{article}\begin{document}\verb|x|{\end{document}`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			err := Validate([]byte(src))
			if !errors.Is(err, ErrStructure) {
				t.Fatalf("Validate err = %v, want ErrStructure", err)
			}
		})
	}
}

func TestValidVersion(t *testing.T) {
	for _, v := range []string{"1", "v1.2.3", "2024_spring-rc1"} {
		if !ValidVersion(v) {
			t.Fatalf("ValidVersion(%q) = false", v)
		}
	}
	for _, v := range []string{"", "-v1", "../etc", "v 1", "a/b", "v1;rm"} {
		if ValidVersion(v) {
			t.Fatalf("ValidVersion(%q) = true", v)
		}
	}
}
