package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/cloudverse/internal/llm"
	"github.com/abhisek/cloudverse/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the AI quiz provider and its request log",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openEvents(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		printEvents(os.Stdout, events)
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full prompt and reply of one request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q", args[0])
		}

		s, err := openEvents(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}
		printEvent(os.Stdout, e)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage by purpose and estimated cost by model",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openEvents(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		printUsage(os.Stdout, byPurpose, byModel)
		return nil
	},
}

var llmTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send one small request to the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ok := llm.Resolve()
		if !ok {
			return fmt.Errorf("no LLM provider configured: set CLOUDVERSE_LLM_PROVIDER or one of GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, OPENROUTER_API_KEY")
		}

		s, err := openEvents(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		logger, err := newLogger(cmd, "")
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer logger.Sync()

		provider, err := llm.NewProvider(cmd.Context(), cfg, s.EventRepo(), logger)
		if err != nil {
			return fmt.Errorf("build %s provider: %w", cfg.Provider, err)
		}

		ctx, cancel := context.WithTimeout(llm.WithPurpose(cmd.Context(), llm.PurposeTest), cfg.Timeout)
		defer cancel()
		resp, err := provider.Generate(ctx, llm.Request{Prompt: "Reply with the single word: ok", MaxTokens: 16})
		if err != nil {
			return fmt.Errorf("%s (%s): %w", cfg.Provider, provider.ModelID(), err)
		}
		fmt.Printf("%s (%s) answered %q in %d tokens\n",
			cfg.Provider, resp.Model, strings.TrimSpace(string(resp.Content)), resp.Usage.Total())
		return nil
	},
}

// openEvents opens the database for inspecting the request log.
func openEvents(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func printEvents(out io.Writer, events []store.LLMRequestEventRecord) {
	if len(events) == 0 {
		fmt.Fprintln(out, "No LLM requests recorded.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTime\tPurpose\tModel\tTokens\tMs\tOK")
	for _, e := range events {
		ok := "✓"
		if !e.Success {
			ok = "✗"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			e.ID, e.Timestamp.Local().Format("2006-01-02 15:04"), e.Purpose, truncate(e.Model, 28),
			e.InputTokens, e.OutputTokens, e.LatencyMs, ok)
	}
	w.Flush()
}

func printEvent(out io.Writer, e *store.LLMRequestEventRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
	fmt.Fprintf(w, "ID:\t%d\n", e.ID)
	fmt.Fprintf(w, "Time:\t%s\n", e.Timestamp.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Provider:\t%s (%s)\n", e.Provider, e.Model)
	fmt.Fprintf(w, "Purpose:\t%s\n", e.Purpose)
	fmt.Fprintf(w, "Tokens:\t%d in / %d out\n", e.InputTokens, e.OutputTokens)
	if c, ok := llm.LookupCost(e.Model); ok {
		fmt.Fprintf(w, "Cost:\t%s\n", formatCost(c.Cost(e.InputTokens, e.OutputTokens)))
	}
	fmt.Fprintf(w, "Latency:\t%dms\n", e.LatencyMs)
	if e.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:\t%s\n", e.ErrorMessage)
	}
	w.Flush()

	for _, section := range []struct{ title, body string }{
		{"PROMPT", e.RequestBody},
		{"REPLY", e.ResponseBody},
	} {
		fmt.Fprintf(out, "\n── %s %s\n", section.title, strings.Repeat("─", 56-len(section.title)))
		if section.body == "" {
			fmt.Fprintln(out, "(not captured)")
			continue
		}
		fmt.Fprintln(out, section.body)
	}
}

func printUsage(out io.Writer, byPurpose []store.LLMUsageStats, byModel []store.LLMModelUsage) {
	if len(byPurpose) == 0 {
		fmt.Fprintln(out, "No LLM usage recorded yet.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Purpose\tCalls\tInput\tOutput\tAvg ms\t")
	var calls, in, outTok int
	for _, st := range byPurpose {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t\n", st.Purpose, st.Calls, st.InputTokens, st.OutputTokens, st.AvgLatencyMs)
		calls += st.Calls
		in += st.InputTokens
		outTok += st.OutputTokens
	}
	fmt.Fprintf(w, "total\t%d\t%d\t%d\t\t\n", calls, in, outTok)
	w.Flush()

	if len(byModel) == 0 {
		return
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Model\tCalls\tInput\tOutput\tCost (USD)\t")
	var total float64
	var unpriced []string
	for _, mu := range byModel {
		cost := "?"
		if c, ok := llm.LookupCost(mu.Model); ok {
			usd := c.Cost(mu.InputTokens, mu.OutputTokens)
			total += usd
			cost = formatCost(usd)
		} else {
			unpriced = append(unpriced, mu.Model)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t\n", truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, cost)
	}
	label := "total"
	if len(unpriced) > 0 {
		label = "total (partial)"
	}
	fmt.Fprintf(w, "%s\t\t\t\t%s\t\n", label, formatCost(total))
	w.Flush()

	if len(unpriced) > 0 {
		fmt.Fprintf(out, "\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (quiz-gen, connectivity-test)")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd, llmTestCmd)
}
