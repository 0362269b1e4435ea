package utils

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2/quick"
)

// HighlightDiagram renders diagram source with terminal syntax highlighting.
// When the theme or lexer is unavailable the plain source is returned so the
// preview never blocks command output.
func HighlightDiagram(source string, language string, theme string) string {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, source, language, "terminal256", theme); err != nil {
		return source
	}
	return buf.String()
}

// PrintHighlighted writes highlighted source to stdout.
func PrintHighlighted(source string, language string, theme string) {
	fmt.Print(HighlightDiagram(source, language, theme))
}
