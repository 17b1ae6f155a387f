package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/danielpatrickdp/search-agent/internal/logging"
	"github.com/danielpatrickdp/search-agent/internal/orchestrator"
)

// session is what the REPL drives.
type session interface {
	HandleTurn(ctx context.Context, prompt string, w io.Writer) (orchestrator.TurnResult, error)
	Reset()
	LastTrace(ctx context.Context) (turnTrace, error)
}

// turnTrace is the last turn's rows, its summary when recorded, and the
// number of rows kept this session.
type turnTrace struct {
	Entries []logging.TraceEntry
	Summary *logging.TurnRecord
	Total   int
}

const maxLine = 1 << 20

// runREPL reads prompts line by line until "exit" or end of input.
// ":reset" clears the history and ":trace" prints the last turn's trace.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, s session) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	fmt.Fprintln(out, statusStyle.Render("Type a prompt (\"exit\" to quit, \":reset\" to clear history, \":trace\" for the last turn)."))
	for {
		fmt.Fprint(out, promptStyle.Render("USER: "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "exit"):
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case line == ":reset":
			s.Reset()
			fmt.Fprintln(out, statusStyle.Render("history cleared"))
			continue
		case line == ":trace":
			printTrace(ctx, out, s)
			continue
		}

		reply := &labelWriter{w: out, label: assistantStyle.Render("ASSISTANT: ")}
		_, err := s.HandleTurn(ctx, line, reply)
		if reply.started {
			fmt.Fprintln(out)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(out, errorStyle.Render("error: "+err.Error()))
		}
	}
}

func printTrace(ctx context.Context, out io.Writer, s session) {
	tt, err := s.LastTrace(ctx)
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("trace: "+err.Error()))
		return
	}
	if len(tt.Entries) == 0 {
		fmt.Fprintln(out, statusStyle.Render("no turns yet"))
		return
	}
	for _, e := range tt.Entries {
		if e.Step == "turn_summary" {
			continue
		}
		fmt.Fprintf(out, "%s %s\n", traceStepStyle.Render(e.Step), e.Detail)
	}
	if rec := tt.Summary; rec != nil {
		line := fmt.Sprintf("searched=%v found=%v tried=%d stale=%d", rec.Searched, rec.Found, len(rec.Tried), rec.StaleSelections)
		if rec.Query != "" {
			line += fmt.Sprintf(" query=%q", rec.Query)
		}
		if rec.Source != "" {
			line += " source=" + rec.Source
		}
		if rec.Error != "" {
			line += " error=" + rec.Error
		}
		fmt.Fprintf(out, "%s %s\n", traceStepStyle.Render("summary"), line)
	}
	fmt.Fprintln(out, statusStyle.Render(fmt.Sprintf("%d trace rows this session", tt.Total)))
}

// labelWriter prints its label before the first write, so status lines
// emitted during retrieval land above the reply.
type labelWriter struct {
	w       io.Writer
	label   string
	started bool
}

func (l *labelWriter) Write(p []byte) (int, error) {
	if !l.started {
		l.started = true
		if _, err := io.WriteString(l.w, l.label); err != nil {
			return 0, err
		}
	}
	return l.w.Write(p)
}
