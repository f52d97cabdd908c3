package instructions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	body := `<!--
{
  "available": true,
  "registryKey": "HKLM\\SOFTWARE\\Nefarius\\App",
  "flags": "NoCache",
  "depends": "VCRedist",
  "features": ["New tray icon"],
  "bugFixes": ["Crash on exit"],
  "unknownField": 42
}
-->
## Changelog

- stuff`

	block, err := Extract(body)
	require.NoError(t, err)

	assert.True(t, block.Available)
	assert.Equal(t, `HKLM\SOFTWARE\Nefarius\App`, block.RegistryKey)
	assert.Equal(t, "NoCache", block.Flags)
	assert.Equal(t, "VCRedist", block.Depends)
	assert.Empty(t, block.FilePath)
	assert.Empty(t, block.NextDeprecated)
	assert.Equal(t, DefaultReplaces, block.Replaces)
	assert.Equal(t, []string{"New tray icon"}, block.Features)
	assert.Equal(t, []string{}, block.Enhancements)
	assert.Equal(t, []string{"Crash on exit"}, block.BugFixes)
}

func TestExtract_Defaults(t *testing.T) {
	block, err := Extract("<!--{}-->")
	require.NoError(t, err)

	assert.False(t, block.Available)
	assert.Equal(t, "All", block.Replaces)
	assert.NotNil(t, block.Features)
}

func TestExtract_ExplicitReplaces(t *testing.T) {
	block, err := Extract(`<!-- {"replaces": "1.0"} -->`)
	require.NoError(t, err)
	assert.Equal(t, "1.0", block.Replaces)
}

func TestExtract_OnlyFirstComment(t *testing.T) {
	block, err := Extract(`<!-- {"flags": "A"} --> text <!-- {"flags": "B"} -->`)
	require.NoError(t, err)
	assert.Equal(t, "A", block.Flags)
}

func TestExtract_KeysAreCaseSensitive(t *testing.T) {
	block, err := Extract(`<!-- {"Available": true, "REGISTRYKEY": "k", "flags": "NoCache"} -->`)
	require.NoError(t, err)
	assert.False(t, block.Available)
	assert.Empty(t, block.RegistryKey)
	assert.Equal(t, "NoCache", block.Flags)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{
			name: "empty body",
			body: "",
			want: ErrNoInstructionBlock,
		},
		{
			name: "no comment",
			body: "## Release notes",
			want: ErrNoInstructionBlock,
		},
		{
			name: "text before comment",
			body: "Intro\n<!-- {\"available\": true} -->",
			want: ErrNoInstructionBlock,
		},
		{
			name: "whitespace before comment",
			body: "\n<!-- {\"available\": true} -->",
			want: ErrNoInstructionBlock,
		},
		{
			name: "unterminated comment",
			body: "<!-- {\"available\": true}",
			want: ErrNoInstructionBlock,
		},
		{
			name: "not json",
			body: "<!-- just a note for maintainers -->",
			want: ErrMalformedInstructionBlock,
		},
		{
			name: "json null",
			body: "<!-- null -->",
			want: ErrMalformedInstructionBlock,
		},
		{
			name: "json array",
			body: "<!-- [1, 2] -->",
			want: ErrMalformedInstructionBlock,
		},
		{
			name: "wrong field type",
			body: `<!-- {"available": "yes"} -->`,
			want: ErrMalformedInstructionBlock,
		},
		{
			name: "trailing data",
			body: `<!-- {"available": true} {"flags": "x"} -->`,
			want: ErrMalformedInstructionBlock,
		},
		{
			name: "trailing closing brace",
			body: `<!-- {"available": true}} -->`,
			want: ErrMalformedInstructionBlock,
		},
		{
			name: "trailing closing bracket",
			body: `<!-- {"available": true}] -->`,
			want: ErrMalformedInstructionBlock,
		},
		{
			name: "truncated object",
			body: `<!-- {"available": true -->`,
			want: ErrMalformedInstructionBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := Extract(tt.body)
			assert.Nil(t, block)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}
