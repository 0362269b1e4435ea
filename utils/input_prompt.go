package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/archlens/archlens/constants/lipgloss"
)

// ConfirmPrompt asks the user a yes/no question and returns the answer.
// EOF and empty input count as "no".
func ConfirmPrompt(question string, reader *bufio.Reader) (bool, error) {
	fmt.Print(lipgloss.Cyan.Render(fmt.Sprintf("%s (y/N): ", question)))

	response, err := reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("error reading input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
