package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator a question and returns the answer. The CLI is
// the only caller in production; tests supply scripted answers.
type Prompter interface {
	Ask(question string) (string, error)
}

// ReaderPrompter reads answers line by line from an input stream, echoing
// questions to an output stream. Wire it to stdin/stdout for interactive use.
type ReaderPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a ReaderPrompter over the given streams.
func New(in io.Reader, out io.Writer) *ReaderPrompter {
	return &ReaderPrompter{in: bufio.NewReader(in), out: out}
}

// Ask prints the question and returns the next trimmed input line.
func (p *ReaderPrompter) Ask(question string) (string, error) {
	fmt.Fprintf(p.out, "%s ", question)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// AskRequired re-asks until a non-empty answer is given.
func AskRequired(p Prompter, question string) (string, error) {
	for {
		answer, err := p.Ask(question)
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
	}
}
