package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"isearch/internal/app"
	"isearch/internal/duplicate"
)

var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "Find duplicate files",
	Long: `Groups cataloged files that look like copies of each other.

Methods:
  size_name      same size and filename (default)
  hash           same SHA-256 digest; missing digests are computed and stored
  exact_content  same SHA-256 digest, always re-read from disk (files up to 100 MiB)
  smart          similar name, type and size within duplicates.size_tolerance

With --stored, grouping uses catalog data only and also accepts name_only.
Nothing is deleted: use --analyze for keep/remove suggestions, delete files
yourself, then drop them from the catalog with "isearch forget".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		method, _ := cmd.Flags().GetString("method")
		minSizeRaw, _ := cmd.Flags().GetString("min-size")
		dirs, _ := cmd.Flags().GetStringSlice("dir")
		analyze, _ := cmd.Flags().GetBool("analyze")
		stored, _ := cmd.Flags().GetBool("stored")

		minSize, err := parseSize(minSizeRaw)
		if err != nil {
			return err
		}

		return withApp("dupes", func(a *app.App) error {
			var groups []duplicate.Group
			var err error
			if stored {
				if method == "" {
					method = a.Config().Duplicates.Method
				}
				size := a.Config().Duplicates.MinFileSize
				if minSize != nil {
					size = *minSize
				}
				groups, err = a.StoredDuplicates(method, size)
			} else {
				req := app.DuplicateRequest{
					Method:      method,
					Directories: dirs,
					Restrict:    cmd.Flags().Changed("dir"),
				}
				if minSize != nil {
					req.MinFileSize = *minSize
				}
				groups, err = a.FindDuplicates(req)
			}
			if err != nil {
				return err
			}

			if len(groups) == 0 {
				fmt.Println("No duplicates found.")
				return nil
			}

			var savings int64
			for _, g := range groups {
				fmt.Printf("[%s] %d files, %s\n", g.ID, len(g.Files), humanize.IBytes(uint64(g.TotalSize())))
				if !analyze {
					for _, f := range g.Files {
						fmt.Printf("    %s\n", f.Path)
					}
					continue
				}

				analysis := duplicate.AnalyzeGroup(g.Files)
				for _, s := range analysis.Scores {
					action := "remove"
					if s.File == analysis.Keep {
						action = "keep  "
					}
					fmt.Printf("    %s %5.1f  %s\n", action, s.Score, s.File.Path)
				}
				savings += analysis.Savings
			}

			fmt.Printf("%d group(s)\n", len(groups))
			if analyze {
				fmt.Printf("Removing the suggested copies would free %s\n", humanize.IBytes(uint64(savings)))
			}
			return nil
		})
	},
}

func init() {
	dupesCmd.Flags().StringP("method", "m", "", "Detection method (default duplicates.method)")
	dupesCmd.Flags().String("min-size", "", "Ignore files smaller than this (default duplicates.min_file_size)")
	dupesCmd.Flags().StringSliceP("dir", "d", nil, "Only consider files under this directory (repeatable)")
	dupesCmd.Flags().BoolP("analyze", "a", false, "Score each copy and suggest which to keep")
	dupesCmd.Flags().Bool("stored", false, "Group from catalog data only, without reading files")
	rootCmd.AddCommand(dupesCmd)
}
