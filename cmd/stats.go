package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show study statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		days, _ := cmd.Flags().GetInt("days")
		snap := e.progress.Snapshot()
		u := snap.User
		sep := strings.Repeat("─", 48)

		fmt.Println("Progress")
		fmt.Println(sep)
		fmt.Printf("Current streak:   %d day(s)\n", u.CurrentStreak)
		fmt.Printf("Longest streak:   %d day(s)\n", u.LongestStreak)
		fmt.Printf("Topics completed: %d/%d\n", u.TopicsCompleted, len(e.catalog.Topics()))
		fmt.Printf("Overall mastery:  %d%%\n", snap.OverallMastery(e.catalog))
		fmt.Printf("Time studied:     %s\n", formatSeconds(u.TotalTimeSpent))
		fmt.Printf("Quizzes taken:    %d\n", u.QuizzesTaken)
		if u.QuizzesTaken > 0 {
			fmt.Printf("Average score:    %.1f%%\n", u.AverageQuizScore)
		}

		fmt.Println()
		fmt.Println("Zones")
		fmt.Println(sep)
		for _, z := range snap.ZoneProgress(e.catalog) {
			fmt.Printf("Zone %s  %2d/%-2d  %3d%%\n", z.Zone, z.Completed, z.Total, z.Percent)
		}

		if weak := snap.WeakTopics(e.catalog, 0); len(weak) > 0 {
			fmt.Println()
			fmt.Println("Needs work")
			fmt.Println(sep)
			for _, w := range weak {
				fmt.Printf("%5.1f%%  %-32s  %d attempt(s)\n", w.AvgScore, truncate(w.Title, 32), w.Attempts)
			}
		}

		fmt.Println()
		fmt.Printf("Last %d days\n", days)
		fmt.Println(sep)
		for _, d := range snap.ActivitySeries(days) {
			fmt.Printf("%s  %4d min  %3d answered  %3d correct\n", d.Date, d.Minutes, d.QuestionsAnswered, d.CorrectAnswers)
		}
		return nil
	},
}

func formatSeconds(secs int) string {
	h, m := secs/3600, secs%3600/60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

func init() {
	statsCmd.Flags().Int("days", 7, "Number of days of activity to show")
}
