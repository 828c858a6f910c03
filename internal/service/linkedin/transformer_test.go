package linkedin

import "testing"

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "emphasis and bullet glyph",
			in:   "**bold** and *italic* with ◆ item",
			want: "bold and italic with • item",
		},
		{
			name: "heading markers",
			in:   "## Launch day\nWe shipped.",
			want: "Launch day\nWe shipped.",
		},
		{
			name: "plain text untouched",
			in:   "nothing to strip here",
			want: "nothing to strip here",
		},
		{
			name: "nested emphasis",
			in:   "***very bold***",
			want: "very bold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkup(tt.in); got != tt.want {
				t.Fatalf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
