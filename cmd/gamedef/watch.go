package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/gamedef/pkg/report"
	"github.com/ormasoftchile/gamedef/pkg/validate"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch <game.yaml | URL>",
		Short: "Revalidate a game definition whenever it changes",
		Long: `Reload the document (with its includes) at every interval and revalidate
it when its digest changed. Each validation prints one summary line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("invalid --interval: must be positive")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runWatch(ctx, a, cmd.OutOrStdout(), args[0], interval, count)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Time between reloads (e.g. 500ms, 5s)")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many validations (0: run until interrupted)")
	return cmd
}

// runWatch polls input until ctx ends or count validations have run.
func runWatch(ctx context.Context, a *app, out io.Writer, input string, interval time.Duration, count int) error {
	name := displayName(input)
	var last string
	runs := 0

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ts := time.Now().Format("15:04:05")
		doc, err := a.load(ctx, input)
		switch {
		case err != nil:
			fmt.Fprintf(out, "%s  ! load error: %v\n", ts, err)
		case validate.Digest(doc) != last:
			last = validate.Digest(doc)
			rep, verr := validate.Validate(ctx, doc, a.options())
			runs++
			if verr != nil {
				fmt.Fprintf(out, "%s  ! %v\n", ts, verr)
			} else {
				fmt.Fprintf(out, "%s  %s   %s\n", ts, report.Summary(name, rep, nil), rep.Duration.Truncate(time.Millisecond))
			}
			a.logger.Debug("revalidated", "digest", last, "run", runs)
		}
		if count > 0 && runs >= count {
			return nil
		}

		select {
		case <-ctx.Done():
			fmt.Fprintf(out, "  Watch stopped.\n")
			return nil
		case <-ticker.C:
		}
	}
}
