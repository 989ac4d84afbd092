package layout

import (
	"testing"

	"github.com/tsawler/docstory/model"
)

func TestHeadingKindForSize(t *testing.T) {
	tests := []struct {
		size   float64
		want   model.TextKind
		wantOK bool
	}{
		{28, model.TextHeading2, true},
		{20, model.TextHeading2, true},
		{18, model.TextHeading3, true},
		{16, model.TextHeading3, true},
		{14, model.TextHeading4, true},
		{13.5, "", false},
		{0, "", false},
	}
	for _, tt := range tests {
		got, ok := HeadingKindForSize(tt.size)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("HeadingKindForSize(%v) = (%q, %v), want (%q, %v)", tt.size, got, ok, tt.want, tt.wantOK)
		}
	}
}
