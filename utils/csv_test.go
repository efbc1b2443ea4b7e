package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/gomc/website/models"
)

func TestEscapeCSVField(t *testing.T) {
	cases := map[string]string{
		"a,b\"c\nd": `a;b'c\nd`,
		"":          " ",
		"x\r\ny":    `x\r\ny`,
		"plain":     "plain",
	}
	for in, want := range cases {
		if got := EscapeCSVField(in); got != want {
			t.Fatalf("EscapeCSVField(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRegistrationsCSV(t *testing.T) {
	created := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	out := string(RegistrationsCSV([]models.Registration{
		{Name: "Ada", Email: "ada@example.org", Affiliation: "", Text: "a,b\"c\nd", Created: created},
	}, time.UTC))

	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", out)
	}
	if lines[0] != CSVHeader {
		t.Fatalf("header = %q", lines[0])
	}
	want := `Ada,ada@example.org, ,a;b'c\nd,3/9/2024 2:05:07 PM`
	if lines[1] != want {
		t.Fatalf("row = %q, want %q", lines[1], want)
	}
}
