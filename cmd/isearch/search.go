package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"isearch/internal/app"
	"isearch/internal/catalog"
	"isearch/internal/search"
)

const dateLayout = "2006-01-02"

func printRecord(f *catalog.FileRecord) {
	fmt.Printf("%10s  %s  %s\n",
		humanize.IBytes(uint64(f.Size)),
		f.ModifiedDate.Local().Format("2006-01-02 15:04"),
		f.Path)
}

func parseSize(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return nil, fmt.Errorf("invalid size %q: %w", s, err)
	}
	v := int64(n)
	return &v, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return &t, nil
}

var searchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search the catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		types, _ := flags.GetStringSlice("type")
		dirs, _ := flags.GetStringSlice("dir")
		minSize, _ := flags.GetString("min-size")
		maxSize, _ := flags.GetString("max-size")
		after, _ := flags.GetString("after")
		before, _ := flags.GetString("before")
		useRegex, _ := flags.GetBool("regex")
		searchPath, _ := flags.GetBool("path")
		limit, _ := flags.GetInt("limit")

		f := search.Filters{
			Directories: dirs,
			UseRegex:    useRegex,
			SearchPath:  searchPath,
			Limit:       limit,
		}
		if len(args) > 0 {
			f.Query = args[0]
		}
		for _, t := range types {
			ft, ok := catalog.ParseFileType(t)
			if !ok {
				return fmt.Errorf("unknown file type %q", t)
			}
			f.FileTypes = append(f.FileTypes, ft)
		}

		var err error
		if f.MinSize, err = parseSize(minSize); err != nil {
			return err
		}
		if f.MaxSize, err = parseSize(maxSize); err != nil {
			return err
		}
		if f.ModifiedAfter, err = parseDate(after); err != nil {
			return err
		}
		if f.ModifiedBefore, err = parseDate(before); err != nil {
			return err
		}

		return withApp("search", func(a *app.App) error {
			f.CaseSensitive = a.Config().Search.CaseSensitive
			if flags.Changed("case-sensitive") {
				f.CaseSensitive, _ = flags.GetBool("case-sensitive")
			}

			results, err := a.Search(f)
			if err != nil {
				return err
			}
			for _, r := range results {
				printRecord(r)
			}
			fmt.Printf("%d result(s)\n", len(results))
			return nil
		})
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar PATH",
	Short: "Find files with a similar name and size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetFloat64("threshold")

		return withApp("similar", func(a *app.App) error {
			hits, err := a.Similar(args[0], threshold)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Println("No similar files.")
				return nil
			}
			for _, h := range hits {
				fmt.Printf("%.2f  ", h.Score)
				printRecord(h.File)
			}
			return nil
		})
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest PARTIAL",
	Short: "Complete a partial filename",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		return withApp("suggest", func(a *app.App) error {
			words, err := a.Suggest(args[0], limit)
			if err != nil {
				return err
			}
			for _, w := range words {
				fmt.Println(w)
			}
			return nil
		})
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringSliceP("type", "t", nil, "File type: image, video, document, audio, archive, code, other (repeatable)")
	f.StringSliceP("dir", "d", nil, "Directory prefix (repeatable)")
	f.String("min-size", "", "Minimum size, e.g. 10MB")
	f.String("max-size", "", "Maximum size, e.g. 1GiB")
	f.String("after", "", "Modified on or after YYYY-MM-DD")
	f.String("before", "", "Modified on or before YYYY-MM-DD")
	f.BoolP("regex", "r", false, "Treat QUERY as a regular expression")
	f.BoolP("path", "p", false, "Match against the full path instead of the filename")
	f.BoolP("case-sensitive", "c", false, "Match case exactly")
	f.IntP("limit", "n", 0, "Maximum results (default search.max_results)")
	rootCmd.AddCommand(searchCmd)

	similarCmd.Flags().Float64("threshold", search.DefaultSimilarityThreshold, "Minimum similarity between 0 and 1")
	rootCmd.AddCommand(similarCmd)

	suggestCmd.Flags().IntP("limit", "n", 10, "Maximum suggestions")
	rootCmd.AddCommand(suggestCmd)
}
