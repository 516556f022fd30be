package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/marmos91/studysync/pkg/storage"
)

// terminalPrompter implements the directory and permission prompts on a
// terminal. Every prompt runs inside a typed command, which is the direct
// user gesture the storage layer requires.
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(in), out: out}
}

// ChooseDirectory asks the user for a directory path. An empty answer is a
// cancel, reported with the silent cancelled error.
func (p *terminalPrompter) ChooseDirectory(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprint(p.out, "Directory to save study files in (empty to cancel): ")
	line, err := p.in.ReadString('\n')
	if err != nil {
		return "", storage.NewCancelled("input closed")
	}

	dir := strings.TrimSpace(line)
	if dir == "" {
		return "", storage.NewCancelled("no directory chosen")
	}
	return dir, nil
}

// RequestWriteAccess asks the user to confirm write access to the directory.
func (p *terminalPrompter) RequestWriteAccess(ctx context.Context, dir string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(p.out, "Allow writing study files to %s? [y/N]: ", dir)
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, nil
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
