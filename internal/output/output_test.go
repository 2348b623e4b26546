package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

type result struct {
	File     string        `json:"file" yaml:"file"`
	Pages    int           `json:"pages" yaml:"pages"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"yaml", FormatYAML, false},
		{"json", FormatJSON, false},
		{"", Default, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWrite(t *testing.T) {
	in := result{File: "JOÃO & FILHOS - Nota 1 - Pedido 2.pdf", Pages: 2, Duration: 1500 * time.Millisecond}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatJSON, in); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "JOÃO & FILHOS") {
			t.Errorf("expected unescaped output, got %s", buf.String())
		}
		var out result
		if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
			t.Fatal(err)
		}
		if out != in {
			t.Errorf("got %+v, want %+v", out, in)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatYAML, in); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "duration: 1.5s") {
			t.Errorf("expected readable duration, got:\n%s", buf.String())
		}
		var out result
		if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
			t.Fatal(err)
		}
		if out != in {
			t.Errorf("got %+v, want %+v", out, in)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := Write(&bytes.Buffer{}, Format("xml"), in); err == nil {
			t.Error("expected error")
		}
	})
}
