package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"zsmart-installer/internal/logger"
)

// prompter reads answers line by line from the terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// Confirm accepts only an explicit "y" or "yes"; anything else, including EOF, is a no.
func (p *prompter) Confirm(question string) bool {
	logger.Prompt("%s [y/N]: ", question)
	answer, err := p.readLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// readLine returns the next trimmed line, or io.EOF when input is exhausted.
func (p *prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// println writes to the prompter's output.
func (p *prompter) println(a ...any) {
	fmt.Fprintln(p.out, a...)
}
