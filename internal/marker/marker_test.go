package marker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAlphaMarkersMatchWholeWords(t *testing.T) {
	for _, m := range []string{"ABC-", "ABC", "card", "x-"} {
		t.Run(m, func(t *testing.T) {
			rule, err := Compile(m)
			require.NoError(t, err)
			assert.Equal(t, len(m), rule.PrefixLen)

			for _, digits := range []string{"1", "42", "0007"} {
				tag := m + digits
				assert.Equal(t, []string{tag}, rule.FindAll("see "+tag+"."), "standalone %s", tag)
				assert.Equal(t, []string{tag}, rule.FindAll(tag), "whole text %s", tag)
				assert.Empty(t, rule.FindAll("z"+tag), "leading word char before %s", tag)
				assert.Empty(t, rule.FindAll(tag+"z"), "trailing word char after %s", tag)
			}
		})
	}
}

func TestCompileIsCaseSensitive(t *testing.T) {
	rule, err := Compile("ABC-")
	require.NoError(t, err)

	assert.Empty(t, rule.FindAll("abc-12"))
	assert.Equal(t, []string{"ABC-12"}, rule.FindAll("abc-12 ABC-12"))
}

func TestCompileSymbolMarkersIgnoreLeadingWordChars(t *testing.T) {
	for _, c := range Symbols {
		m := string(c)
		t.Run(m, func(t *testing.T) {
			rule, err := Compile(m)
			require.NoError(t, err)
			assert.Equal(t, 1, rule.PrefixLen)

			assert.Equal(t, []string{m + "12"}, rule.FindAll("x"+m+"12"))
			assert.Equal(t, []string{m + "12"}, rule.FindAll("("+m+"12)"))
			assert.Empty(t, rule.FindAll(m+"12x"))
		})
	}
}

func TestCompileFindsAllMatchesLeftToRight(t *testing.T) {
	rule, err := Compile("#")
	require.NoError(t, err)

	assert.Equal(t, []string{"#1", "#22", "#1"}, rule.FindAll("#1, #22 and #1"))
}

func TestCompileRejectsInvalidMarkers(t *testing.T) {
	for _, m := range []string{"", "-", "AB1", "A-B", "##", "!!", "?", "~", "1", "ABC--", " ABC", "é"} {
		t.Run(m, func(t *testing.T) {
			rule, err := Compile(m)
			assert.Nil(t, rule)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
			assert.Equal(t, m, cfgErr.Marker)
		})
	}
}

func TestCompileMultiCharSymbolMessage(t *testing.T) {
	_, err := Compile("##")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a single character")
}

func TestCompileSingleMultibyteRuneGetsGenericMessage(t *testing.T) {
	_, err := Compile("é")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "single character")
	assert.Contains(t, err.Error(), "marker must be an alpha string")
}

func TestStrip(t *testing.T) {
	rule, err := Compile("ABC-")
	require.NoError(t, err)

	assert.Equal(t, "123", rule.Strip("ABC-123"))
	assert.Equal(t, "", rule.Strip("ABC-"))
}
