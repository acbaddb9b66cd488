package output

import (
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"yaml", FormatYAML, false},
		{"YAML", FormatYAML, false},
		{"", FormatYAML, false},
		{"json", FormatJSON, false},
		{" json ", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q): expected %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestEncode(t *testing.T) {
	payload := map[string]any{"severity": "warning", "gaps": 2}

	t.Run("yaml", func(t *testing.T) {
		var b strings.Builder
		if err := FormatYAML.Encode(&b, payload); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !strings.Contains(b.String(), "severity: warning") {
			t.Errorf("unexpected yaml output:\n%s", b.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var b strings.Builder
		if err := FormatJSON.Encode(&b, payload); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !strings.Contains(b.String(), `"severity": "warning"`) {
			t.Errorf("unexpected json output:\n%s", b.String())
		}
	})
}
