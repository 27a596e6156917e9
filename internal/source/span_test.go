package source

import "testing"

func TestSpanCover(t *testing.T) {
	tests := []struct {
		name     string
		span     Span
		other    Span
		expected Span
	}{
		{
			name:     "other inside",
			span:     Span{File: 1, Start: 0, End: 20},
			other:    Span{File: 1, Start: 5, End: 10},
			expected: Span{File: 1, Start: 0, End: 20},
		},
		{
			name:     "other extends both ends",
			span:     Span{File: 1, Start: 5, End: 10},
			other:    Span{File: 1, Start: 2, End: 12},
			expected: Span{File: 1, Start: 2, End: 12},
		},
		{
			name:     "different file is ignored",
			span:     Span{File: 1, Start: 5, End: 10},
			other:    Span{File: 2, Start: 0, End: 50},
			expected: Span{File: 1, Start: 5, End: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.span.Cover(tt.other); got != tt.expected {
				t.Errorf("Cover() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSpanContains(t *testing.T) {
	outer := Span{File: 1, Start: 0, End: 10}
	if !outer.Contains(Span{File: 1, Start: 2, End: 10}) {
		t.Error("expected span to be contained")
	}
	if outer.Contains(Span{File: 1, Start: 2, End: 11}) {
		t.Error("span past the end must not be contained")
	}
	if outer.Contains(Span{File: 2, Start: 2, End: 3}) {
		t.Error("span from another file must not be contained")
	}
	if !NoSpan.Empty() || NoSpan.Len() != 0 {
		t.Error("NoSpan must be empty")
	}
}
