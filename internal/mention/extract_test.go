package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single mention",
			text: "ping @backend_dev_1 about the login bug",
			want: []string{"backend_dev_1"},
		},
		{
			name: "multiple mentions sorted",
			text: "@qa_2 and @backend_dev_1 please sync",
			want: []string{"backend_dev_1", "qa_2"},
		},
		{
			name: "duplicates collapse",
			text: "@dev_1 @dev_1 @dev_1",
			want: []string{"dev_1"},
		},
		{
			name: "case preserved",
			text: "@Dev_1 and @dev_1 are different",
			want: []string{"Dev_1", "dev_1"},
		},
		{
			name: "punctuation terminates the identifier",
			text: "thanks @dev_1, and @qa_2.",
			want: []string{"dev_1", "qa_2"},
		},
		{
			name: "hyphen is not part of the grammar",
			text: "see @front-end",
			want: []string{"front"},
		},
		{
			name: "no mentions",
			text: "nothing to see here",
			want: nil,
		},
		{
			name: "bare at-sign",
			text: "meet @ noon",
			want: nil,
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	text := "@zeta @alpha @zeta"
	first := Extract(text)
	second := Extract(text)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"alpha", "zeta"}, first)
}
