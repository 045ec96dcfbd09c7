package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)
	defer SetLevel(Notice)

	logger := New("test")
	SetLevel(Warning)
	logger.Notice("hidden")
	logger.Warning("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected notice message to be filtered; got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "[test]") {
		t.Fatalf("expected warning message tagged with module name; got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel(" Debug ")
	if err != nil || level != Debug {
		t.Fatalf("expected debug level; got %v, %v", level, err)
	}

	if _, err = ParseLevel("chatty"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
