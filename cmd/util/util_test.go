package util

import (
	"bytes"
	"github.com/spf13/viper"
	"io"
	"strings"
	"testing"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("line longer than %d characters: %q", Wrap, line)
		}
	}
	if WrapString("") != "" {
		t.Error("empty text should stay empty")
	}
}

func TestPrintOutput(t *testing.T) {
	v := struct {
		Node string `json:"node" yaml:"node"`
	}{Node: "skv-1"}

	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"text", "node skv-1\n", false},
		{"json", "{\n  \"node\": \"skv-1\"\n}\n", false},
		{"yaml", "node: skv-1\n", false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			viper.Set("output", tt.format)
			t.Cleanup(func() { viper.Set("output", "") })

			var buf bytes.Buffer
			err := PrintOutput(&buf, v, func(w io.Writer) {
				io.WriteString(w, "node skv-1\n")
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestGetTransport(t *testing.T) {
	for _, name := range []string{"tcp", "unix"} {
		viper.Set("transport", name)
		if _, err := GetTransport(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if _, err := GetServerTransport(); err != nil {
			t.Errorf("%s server: %v", name, err)
		}
	}

	viper.Set("transport", "http")
	defer viper.Set("transport", "")
	if _, err := GetTransport(); err == nil {
		t.Error("expected an error for an unknown transport")
	}
}
