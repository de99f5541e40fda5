package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"isearch/internal/app"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("stats", func(a *app.App) error {
			s, err := a.Stats()
			if err != nil {
				return err
			}

			fmt.Printf("Catalog:      %s\n", a.DatabasePath())
			fmt.Printf("Files:        %s (%s)\n", humanize.Comma(s.TotalFiles), humanize.IBytes(uint64(s.TotalSize)))
			fmt.Printf("Recent (7d):  %s\n", humanize.Comma(s.RecentFiles))
			for _, tc := range s.FileTypes {
				fmt.Printf("  %-10s %10s  %s\n", tc.FileType, humanize.Comma(tc.Count), humanize.IBytes(uint64(tc.Size)))
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View scan history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		return withApp("history", func(a *app.App) error {
			sessions, err := a.History(limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No scans recorded.")
				return nil
			}

			for _, s := range sessions {
				duration := ""
				if s.EndTime != nil {
					duration = s.EndTime.Sub(s.StartTime).Truncate(time.Millisecond).String()
				}
				fmt.Printf("#%d  %s  %-9s  +%d ~%d -%d of %d  %s  %s\n",
					s.ID,
					s.StartTime.Local().Format("2006-01-02 15:04:05"),
					s.Status,
					s.FilesAdded, s.FilesUpdated, s.FilesRemoved, s.FilesScanned,
					duration,
					strings.Join(s.DirectoriesScanned, ", "),
				)
				if s.ErrorMessage != "" {
					fmt.Printf("      error: %s\n", s.ErrorMessage)
				}
			}
			return nil
		})
	},
}

var removeDirCmd = &cobra.Command{
	Use:   "remove-dir DIR",
	Short: "Drop every cataloged file under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("remove-dir", func(a *app.App) error {
			n, err := a.RemoveDirectory(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d catalog entr%s\n", n, plural(n, "y", "ies"))
			return nil
		})
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget PATH...",
	Short: "Drop files from the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("forget", func(a *app.App) error {
			for _, p := range args {
				removed, err := a.Forget(p)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Printf("not cataloged: %s\n", p)
				}
			}
			return nil
		})
	},
}

var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Compact the catalog database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("vacuum", func(a *app.App) error {
			before, after, err := a.Vacuum()
			if err != nil {
				return err
			}
			fmt.Printf("%s -> %s\n", humanize.IBytes(uint64(before)), humanize.IBytes(uint64(after)))
			return nil
		})
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the catalog schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("schema", func(a *app.App) error {
			schema, err := a.Schema()
			if err != nil {
				return err
			}
			fmt.Print(schema)
			return nil
		})
	},
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	rootCmd.AddCommand(statsCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of scans to show")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(removeDirCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(vacuumCmd)
	rootCmd.AddCommand(schemaCmd)
}
