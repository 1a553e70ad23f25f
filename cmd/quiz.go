package cmd

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/cloudverse/internal/catalog"
	"github.com/abhisek/cloudverse/internal/quiz"
	"github.com/abhisek/cloudverse/internal/quizgen"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Sample or generate quiz questions",
}

var quizSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print a random sample of built-in questions with answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Default()
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}

		settings, err := settingsFromFlags(cmd)
		if err != nil {
			return err
		}
		qs := cat.Sample(settings.Count, settings.Filter(), rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
		if len(qs) == 0 {
			return fmt.Errorf("no questions match zone %s, difficulty %s", settings.ZoneLabel(), settings.DifficultyLabel())
		}
		return printQuestions(cmd, qs)
	},
}

var quizGenerateCmd = &cobra.Command{
	Use:   "generate <topic-id | free text>",
	Short: "Generate fresh questions about a topic with the configured LLM",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		gen := buildGenerator(cmd, e.store.EventRepo(), e.logger)
		if gen == nil {
			return fmt.Errorf("%w: set CLOUDVERSE_LLM_PROVIDER or GEMINI_API_KEY", quizgen.ErrNotConfigured)
		}

		ref := strings.Join(args, " ")
		var topic catalog.Topic
		if t, err := lookupTopic(e.catalog, ref); err == nil {
			topic = *t
		} else {
			topic = catalog.Topic{Title: ref}
		}

		count, _ := cmd.Flags().GetInt("count")
		diff, _ := cmd.Flags().GetString("difficulty")
		d, err := quiz.ParseDifficulty(diff)
		if err != nil {
			return err
		}

		qs, err := gen.Generate(cmd.Context(), quizgen.Input{
			Topic:          topic,
			Difficulty:     d,
			Count:          count,
			PriorQuestions: quizgen.CatalogPrior(topic),
		})
		if err != nil {
			return err
		}
		return printQuestions(cmd, qs)
	},
}

func settingsFromFlags(cmd *cobra.Command) (quiz.Settings, error) {
	s := quiz.DefaultSettings()
	zone, _ := cmd.Flags().GetString("zone")
	z, err := quiz.ParseZone(zone)
	if err != nil {
		return s, err
	}
	diff, _ := cmd.Flags().GetString("difficulty")
	d, err := quiz.ParseDifficulty(diff)
	if err != nil {
		return s, err
	}
	s.Zone = z
	s.Difficulty = d
	s.Category, _ = cmd.Flags().GetString("category")
	s.Count, _ = cmd.Flags().GetInt("count")
	return s.Normalize(), nil
}

func printQuestions(cmd *cobra.Command, qs []catalog.Question) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(qs)
	}

	labels := []string{"A", "B", "C", "D"}
	for i, q := range qs {
		fmt.Printf("%d. [%s · %s] %s\n", i+1, q.TopicTitle, q.Difficulty, q.Question)
		for j, opt := range q.Options {
			mark := " "
			if j == q.Answer {
				mark = "✓"
			}
			fmt.Printf("   %s %s) %s\n", mark, labels[j], opt)
		}
		if q.Explanation != "" {
			fmt.Printf("   → %s\n", q.Explanation)
		}
		fmt.Println()
	}
	return nil
}

func init() {
	quizSampleCmd.Flags().StringP("zone", "z", "all", "Zone: A, B or all")
	quizSampleCmd.Flags().StringP("category", "c", "", "Only questions from one category")
	quizSampleCmd.Flags().StringP("difficulty", "d", "mixed", "easy, medium, hard or mixed")
	quizSampleCmd.Flags().IntP("count", "n", quiz.DefaultCount, "Number of questions")
	quizSampleCmd.Flags().Bool("json", false, "Print JSON")

	quizGenerateCmd.Flags().StringP("difficulty", "d", "medium", "easy, medium, hard")
	quizGenerateCmd.Flags().IntP("count", "n", 5, "Number of questions")
	quizGenerateCmd.Flags().Bool("json", false, "Print JSON")

	quizCmd.AddCommand(quizSampleCmd)
	quizCmd.AddCommand(quizGenerateCmd)
}
