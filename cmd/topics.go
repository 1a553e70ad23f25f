package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/cloudverse/internal/catalog"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Browse topics and update topic progress",
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topics with completion and mastery",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		zone, _ := cmd.Flags().GetString("zone")
		query, _ := cmd.Flags().GetString("search")

		var topics []catalog.Topic
		if query != "" {
			topics = e.catalog.Search(query)
		} else {
			topics = e.catalog.Topics()
		}

		progressByTopic := e.progress.Topics()
		fmt.Printf("%-4s  %-26s  %-36s  %-22s  %7s  %s\n", "Zone", "ID", "Title", "Category", "Mastery", "")
		fmt.Println(strings.Repeat("─", 110))
		shown := 0
		for _, t := range topics {
			if zone != "" && !strings.EqualFold(string(t.Zone), zone) {
				continue
			}
			tp := progressByTopic[t.ID]
			marks := ""
			if tp.Completed {
				marks += "✓"
			}
			if tp.Bookmarked {
				marks += "★"
			}
			fmt.Printf("%-4s  %-26s  %-36s  %-22s  %6d%%  %s\n",
				t.Zone, truncate(t.ID, 26), truncate(t.Title, 36), truncate(t.Category, 22), tp.MasteryLevel, marks)
			shown++
		}
		if shown == 0 {
			fmt.Println("No topics found.")
		}
		return nil
	},
}

var topicsShowCmd = &cobra.Command{
	Use:   "show <topic-id>",
	Short: "Print a topic's content at one level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		t, err := lookupTopic(e.catalog, args[0])
		if err != nil {
			return err
		}
		level, _ := cmd.Flags().GetString("level")

		fmt.Println(t.Title)
		fmt.Printf("Zone %s · %s · ~%d min\n\n", t.Zone, t.Category, t.EstimatedMinutes)
		fmt.Println(strings.TrimSpace(t.Content.ForLevel(catalog.Level(level))))
		printList("Key points", t.KeyPoints)
		printList("Common mistakes", t.CommonMistakes)
		if t.Summary != "" {
			fmt.Printf("\nSummary\n%s\n", t.Summary)
		}
		printList("Cheatsheet", t.Cheatsheet)

		if tp, ok := e.progress.Topic(t.ID); ok {
			fmt.Printf("\nProgress: mastery %d%%, %s studied", tp.MasteryLevel, formatSeconds(tp.TimeSpent))
			if avg, ok := tp.AverageScore(); ok {
				fmt.Printf(", quiz average %.0f%% over %d attempt(s)", avg, len(tp.QuizScores))
			}
			fmt.Println()
			if tp.Notes != "" {
				fmt.Printf("Notes: %s\n", tp.Notes)
			}
		}
		return nil
	},
}

var topicsCompleteCmd = &cobra.Command{
	Use:   "complete <topic-id>",
	Short: "Mark a topic complete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		t, err := lookupTopic(e.catalog, args[0])
		if err != nil {
			return err
		}
		if _, err := e.progress.MarkComplete(cmd.Context(), t.ID); err != nil {
			return fmt.Errorf("mark complete: %w", err)
		}
		fmt.Printf("Marked %q complete.\n", t.Title)
		return nil
	},
}

var topicsBookmarkCmd = &cobra.Command{
	Use:   "bookmark <topic-id>",
	Short: "Toggle a topic bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		t, err := lookupTopic(e.catalog, args[0])
		if err != nil {
			return err
		}
		if _, err := e.progress.ToggleBookmark(cmd.Context(), t.ID); err != nil {
			return fmt.Errorf("toggle bookmark: %w", err)
		}
		tp, _ := e.progress.Topic(t.ID)
		if tp.Bookmarked {
			fmt.Printf("Bookmarked %q.\n", t.Title)
		} else {
			fmt.Printf("Removed bookmark from %q.\n", t.Title)
		}
		return nil
	},
}

var topicsNoteCmd = &cobra.Command{
	Use:   "note <topic-id> [text...]",
	Short: "Set a topic's notes (no text clears them)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		t, err := lookupTopic(e.catalog, args[0])
		if err != nil {
			return err
		}
		notes := strings.Join(args[1:], " ")
		if _, err := e.progress.SetNotes(cmd.Context(), t.ID, notes); err != nil {
			return fmt.Errorf("set notes: %w", err)
		}
		if notes == "" {
			fmt.Printf("Cleared notes for %q.\n", t.Title)
		} else {
			fmt.Printf("Saved notes for %q.\n", t.Title)
		}
		return nil
	},
}

// lookupTopic accepts a topic ID or slug.
func lookupTopic(cat *catalog.Catalog, ref string) (*catalog.Topic, error) {
	if t, ok := cat.Topic(ref); ok {
		return t, nil
	}
	if t, ok := cat.TopicBySlug(ref); ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown topic %q (see `cloudverse topics list`)", ref)
}

func printList(heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s\n", heading)
	for _, it := range items {
		fmt.Printf("  • %s\n", it)
	}
}

func init() {
	topicsListCmd.Flags().StringP("zone", "z", "", "Only show one zone (A or B)")
	topicsListCmd.Flags().StringP("search", "s", "", "Filter by text in title, description, key points or cheatsheet")
	topicsShowCmd.Flags().StringP("level", "l", string(catalog.LevelBeginner), "Content level: beginner, intermediate, advanced")

	topicsCmd.AddCommand(topicsListCmd)
	topicsCmd.AddCommand(topicsShowCmd)
	topicsCmd.AddCommand(topicsCompleteCmd)
	topicsCmd.AddCommand(topicsBookmarkCmd)
	topicsCmd.AddCommand(topicsNoteCmd)
}
