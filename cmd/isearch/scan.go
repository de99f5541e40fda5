package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"isearch/internal/app"
	"isearch/internal/fs"
)

var scanCmd = &cobra.Command{
	Use:   "scan [DIR...]",
	Short: "Scan directories into the catalog",
	Long: `Walks the given directories, or the configured scan roots, and brings the
catalog in line with what is on disk. Interrupt with Ctrl-C to stop early:
the catalog keeps every file seen so far and nothing is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		excludes, _ := cmd.Flags().GetStringSlice("exclude")
		excludeFrom, _ := cmd.Flags().GetString("exclude-from")
		quiet, _ := cmd.Flags().GetBool("quiet")

		if excludeFrom != "" {
			patterns, err := fs.ParseIgnoreFile(excludeFrom)
			if err != nil {
				return fmt.Errorf("reading exclude file: %w", err)
			}
			excludes = append(excludes, patterns...)
		}

		return withApp("scan", func(a *app.App) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			req := app.ScanRequest{Directories: args, ExtraExcludes: excludes}
			if !quiet {
				redraw := stderrIsTerminal()
				req.EstimateTotals = redraw
				req.Progress = func(scanned, total int, message string) {
					if total > 0 {
						message = fmt.Sprintf("%s of ~%s", message, humanize.Comma(int64(total)))
					}
					if redraw {
						fmt.Fprintf(os.Stderr, "\r\033[K%s", message)
					} else {
						fmt.Fprintln(os.Stderr, message)
					}
				}
			}

			job, err := a.StartScan(ctx, req)
			if err != nil {
				return err
			}
			stats := job.Wait()
			if !quiet && stderrIsTerminal() {
				fmt.Fprintln(os.Stderr)
			}

			fmt.Printf("Session #%d: %s\n", stats.SessionID, stats.Status())
			fmt.Printf("  scanned  %s files (%s) in %s\n",
				humanize.Comma(int64(stats.FilesScanned)),
				humanize.IBytes(uint64(stats.BytesScanned)),
				stats.Duration.Truncate(time.Millisecond))
			fmt.Printf("  added    %d\n  updated  %d\n  removed  %d\n  hashed   %d\n",
				stats.FilesAdded, stats.FilesUpdated, stats.FilesRemoved, stats.FilesHashed)
			if stats.Errors > 0 {
				fmt.Printf("  errors   %d (see log)\n", stats.Errors)
			}
			if stats.Error != "" {
				return fmt.Errorf("scan failed: %s", stats.Error)
			}
			return nil
		})
	},
}

func init() {
	scanCmd.Flags().StringSlice("exclude", nil, "Additional exclude glob (repeatable)")
	scanCmd.Flags().String("exclude-from", "", "Read additional exclude globs from a file")
	scanCmd.Flags().BoolP("quiet", "q", false, "Do not report progress")
	rootCmd.AddCommand(scanCmd)
}
