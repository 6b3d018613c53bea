package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemorySize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"128MB", 134217728},
		{"1GB", 1073741824},
		{"512KB", 524288},
		{"1024", 1024},
		{"0", 0},
		{"256mb", 268435456},
		{" 2 GB ", 2147483648},
		{"64Mb", 67108864},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMemorySize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMemorySize_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "MB", "12.5MB", "abc", "-1MB", "10TB", "99999999999GB"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseMemorySize(in)
			assert.Error(t, err)
		})
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "128MB", FormatBytes(134217728))
	assert.Equal(t, "1GB", FormatBytes(GiB))
	assert.Equal(t, "512KB", FormatBytes(524288))
	assert.Equal(t, "1000", FormatBytes(1000))
	assert.Equal(t, "0", FormatBytes(0))
}
