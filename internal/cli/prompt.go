package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PromptResult contains the result of a user prompt interaction.
type PromptResult struct {
	// Accepted is true if the user typed "y" or "yes".
	Accepted bool
	// Cancelled is true if reading input failed.
	Cancelled bool
}

// Confirm asks a y/N question. It declines without prompting when the
// session is not interactive, and an empty answer declines.
func Confirm(writer io.Writer, reader io.Reader, interactive bool, question string) PromptResult {
	if !interactive {
		return PromptResult{Accepted: false}
	}

	fmt.Fprintf(writer, "%s [y/N] ", question)

	br, ok := reader.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(reader)
	}
	line, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return PromptResult{Cancelled: true}
	}

	// EOF (Ctrl+D) and an empty line decline.
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return PromptResult{Accepted: true}
	default:
		return PromptResult{Accepted: false}
	}
}

// confirmFunc adapts Confirm to clones.ConfirmFunc. Successive prompts share
// one buffered reader so no typed-ahead input is lost.
func (s *session) confirmFunc(writer io.Writer, reader io.Reader) func(string) bool {
	br := bufio.NewReader(reader)
	return func(question string) bool {
		return Confirm(writer, br, s.interactive(), question).Accepted
	}
}
