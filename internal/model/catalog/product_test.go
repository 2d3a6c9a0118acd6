package catalog_test

import (
	"testing"

	"github.com/elhueso/huesobot/internal/model/catalog"
)

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{320000, "$3.200,00"},
		{30000000, "$300.000,00"},
		{99, "$0,99"},
		{0, "$0,00"},
		{150, "$1,50"},
		{123456789, "$1.234.567,89"},
	}

	for _, tc := range cases {
		if got := catalog.FormatPrice(tc.cents); got != tc.want {
			t.Fatalf("FormatPrice(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
