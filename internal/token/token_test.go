package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Test looking up directives succeeds, then fails
func TestLookupDirective(t *testing.T) {
	for key, val := range directives {
		require.Equal(t, val, LookupDirective(key))
		require.True(t, val.IsDirective())

		// Directives are case sensitive.
		require.Equal(t, ILLEGAL, LookupDirective(strings.ToUpper(key)))
	}
	require.Equal(t, ILLEGAL, LookupDirective(".stack"))
	require.False(t, IDENT.IsDirective())
}

func TestPosition(t *testing.T) {
	tok := Token{
		Type:    IDENT,
		Literal: "foo",
		StartPosition: Position{
			Line:   2,
			Column: 0,
		},
	}
	// Switches to 1-indexed
	require.Equal(t, 3, tok.StartPosition.LineNumber())
	require.Equal(t, 1, tok.StartPosition.ColumnNumber())
	require.True(t, tok.StartPosition.IsValid())
	require.False(t, NoPos.IsValid())

	end := tok.StartPosition.Advance(3)
	require.Equal(t, 3, end.Column)
	require.Equal(t, 3, end.Char)
	require.Equal(t, 2, end.Line)
}
