package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskCredential(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"short last segment fully masked", "CUST-2024-1001", "CUST-2024-****"},
		{"long last segment keeps suffix", "CUST-2024-99887766", "CUST-2024-****7766"},
		{"no dash", "9988776655", "****6655"},
		{"short plain value", "abc", "****"},
		{"whitespace trimmed", "  CUST-2024-1001  ", "CUST-2024-****"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MaskCredential(tc.input))
		})
	}
}
