package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vvka-141/pgingest/pkg/ingest"
	"golang.org/x/term"
)

// InteractiveApprover implements the Approver interface for console-based
// interactive confirmation. The operator types the table name to confirm
// that it may be dropped and recreated.
type InteractiveApprover struct {
	input      io.Reader
	output     io.Writer
	isTerminal func() bool
}

// NewInteractiveApprover creates an InteractiveApprover on stdin and stderr.
func NewInteractiveApprover() *InteractiveApprover {
	return &InteractiveApprover{
		input:  os.Stdin,
		output: os.Stderr,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// RequestApproval prompts for the table name. It refuses to prompt when stdin
// is not a terminal, since nobody could answer.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, tableName string) (bool, error) {
	if a.isTerminal != nil && !a.isTerminal() {
		return false, fmt.Errorf("%w: --confirm needs an interactive terminal on stdin", ingest.ErrApprovalDenied)
	}

	r := lipgloss.NewRenderer(a.output)
	warn := r.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	name := r.NewStyle().Bold(true)

	fmt.Fprintln(a.output)
	fmt.Fprintln(a.output, warn.Render(fmt.Sprintf("WARNING: table %s will be DROPPED and RECREATED", tableName)))
	fmt.Fprintln(a.output, "All rows currently in it will be permanently deleted.")
	fmt.Fprintf(a.output, "\nTo confirm, type the table name %s and press Enter: ", name.Render(tableName))

	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		line, err := bufio.NewReader(a.input).ReadString('\n')
		if err != nil && line == "" {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(line)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == tableName {
			fmt.Fprintln(a.output, "Confirmed. Replacing table...")
			return true, nil
		}
		fmt.Fprintf(a.output, "Input '%s' does not match table name '%s'. Operation cancelled.\n", input, tableName)
		return false, nil
	}
}

var _ ingest.Approver = (*InteractiveApprover)(nil)
