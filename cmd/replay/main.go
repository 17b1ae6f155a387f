// Command replay runs a scripted fixture through the agent offline and
// reports each turn against its expectations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/search-agent/internal/logging"
	"github.com/danielpatrickdp/search-agent/internal/replay"
)

var (
	fixturePath string
	asJSON      bool
	showTrace   bool
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:          "replay --fixture path/to/fixture.json",
	Short:        "Replay a scripted conversation fixture",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		code, err := run(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&fixturePath, "fixture", "", "path to fixture JSON")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	rootCmd.Flags().BoolVar(&showTrace, "trace", false, "print each turn's trace rows")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	_ = rootCmd.MarkFlagRequired("fixture")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(2)
	}
}

// #region run

// turnJSON is the --json form of a turn report.
type turnJSON struct {
	Turn       int      `json:"turn"`
	Prompt     string   `json:"prompt"`
	Searched   bool     `json:"searched"`
	Found      bool     `json:"found"`
	Source     string   `json:"source,omitempty"`
	Tried      []string `json:"tried,omitempty"`
	Error      string   `json:"error,omitempty"`
	Mismatches []string `json:"mismatches,omitempty"`
}

func run(ctx context.Context, out io.Writer) (int, error) {
	f, err := replay.LoadFixture(fixturePath)
	if err != nil {
		return 2, err
	}
	logger, err := logging.NewLogger(logLevel, "console")
	if err != nil {
		return 2, err
	}
	defer logger.Sync()

	reports, sum, err := replay.Replay(ctx, f, logger)
	if err != nil {
		return 2, err
	}

	if asJSON {
		rows := make([]turnJSON, 0, len(reports))
		for _, r := range reports {
			row := turnJSON{
				Turn:       r.Index + 1,
				Prompt:     r.Prompt,
				Searched:   r.Result.Searched,
				Found:      r.Result.Outcome.Found,
				Source:     r.Result.Outcome.Source.Link,
				Mismatches: r.Mismatches,
			}
			for _, t := range r.Result.Outcome.Tried {
				row.Tried = append(row.Tried, t.Link)
			}
			if r.Err != nil {
				row.Error = r.Err.Error()
			}
			rows = append(rows, row)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return 2, err
		}
	} else {
		if f.Description != "" {
			fmt.Fprintf(out, "%s\n\n", f.Description)
		}
		for _, r := range reports {
			status := "ok"
			if !r.Passed() {
				status = "FAIL"
			}
			fmt.Fprintf(out, "turn %d [%s] %q searched=%v found=%v", r.Index+1, status, r.Prompt, r.Result.Searched, r.Result.Outcome.Found)
			if r.Result.Outcome.Found {
				fmt.Fprintf(out, " source=%s", r.Result.Outcome.Source.Link)
			}
			fmt.Fprintln(out)
			if r.Err != nil {
				fmt.Fprintf(out, "    error: %v\n", r.Err)
			}
			for _, m := range r.Mismatches {
				fmt.Fprintf(out, "    %s\n", m)
			}
			if showTrace {
				for _, e := range r.Trace {
					fmt.Fprintf(out, "    %-18s %s\n", e.Step, e.Detail)
				}
			}
		}
		fmt.Fprintf(out, "\n%d turns, %d searched, %d found, %d failed\n", sum.TotalTurns, sum.Searched, sum.Found, sum.Failed)
	}

	if sum.Failed > 0 {
		return 1, nil
	}
	return 0, nil
}

// #endregion run
