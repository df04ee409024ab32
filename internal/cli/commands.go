package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazypower/verdict/internal/engine"
	"github.com/lazypower/verdict/internal/transcript"
)

const commandTimeout = 30 * time.Second

func init() {
	processCmd.Flags().StringVarP(&processSession, "session", "s", "", "Session ID the text belongs to")
	processCmd.Flags().StringVarP(&processRole, "role", "r", "user", "Speaker role")

	ingestCmd.Flags().StringVarP(&ingestSession, "session", "s", "", "Session ID (default: from transcript, else file name)")
	ingestCmd.Flags().StringSliceVar(&ingestRoles, "roles", []string{"user", "assistant"}, "Roles to ingest")

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum number of decisions (default from config)")
	searchCmd.Flags().StringVarP(&searchSession, "session", "s", "", "Filter by session ID")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "Include superseded decisions")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the full search response as JSON")
}

// --- process command ---

var (
	processSession string
	processRole    string
)

var processCmd = &cobra.Command{
	Use:   "process [text]",
	Short: "Extract and record decisions from text",
	Long:  "Extract decisions from the given text (or stdin when no text is given), record them and resolve conflicts.",
	RunE:  runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(b)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	keys, err := a.engine.Process(ctx, text, processSession, processRole)
	out := cmd.OutOrStdout()
	for _, k := range keys {
		fmt.Fprintln(out, k)
	}
	if errors.Is(err, engine.ErrResolutionPending) {
		return fmt.Errorf("%w (retry with: verdict resolve %s)", err, strings.Join(keys, " "))
	}
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no decisions found")
	}
	return nil
}

// --- ingest command ---

var (
	ingestSession string
	ingestRoles   []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <transcript.jsonl>",
	Short: "Process every message of a JSONL transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	msgs, stats, err := transcript.ParseFile(path)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	roles := make(map[string]bool, len(ingestRoles))
	for _, r := range ingestRoles {
		roles[strings.ToLower(r)] = true
	}
	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var recorded, failed int
	for _, m := range msgs {
		if !roles[strings.ToLower(m.Role)] {
			continue
		}
		session := ingestSession
		if session == "" {
			session = m.SessionID
		}
		if session == "" {
			session = fallback
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		keys, err := a.engine.Process(ctx, m.Text, session, m.Role)
		cancel()
		recorded += len(keys)
		if err != nil {
			failed++
			a.logger.Warn("ingest: message not recorded",
				zap.String("file", path),
				zap.Int("line", m.Line),
				zap.String("session_id", session),
				zap.Error(err))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d lines, %d messages, %d decisions recorded, %d malformed, %d failed\n",
		stats.Lines, stats.Messages, recorded, stats.Malformed, failed)
	if failed > 0 {
		return fmt.Errorf("%d messages: %w", failed, engine.ErrNotRecorded)
	}
	return nil
}

// --- search command ---

var (
	searchLimit   int
	searchSession string
	searchAll     bool
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search decisions, ranked decision-first",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	resp, err := a.engine.Search(ctx, query, engine.SearchOpts{
		Limit:             searchLimit,
		SessionID:         searchSession,
		IncludeSuperseded: searchAll,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if len(resp.Decisions) == 0 {
		fmt.Fprintln(out, "No decisions found.")
		return nil
	}
	fmt.Fprintf(out, "## Decisions (%d)\n\n", len(resp.Decisions))
	for i, d := range resp.Decisions {
		suffix := ""
		if d.Superseded {
			suffix = " [superseded]"
		}
		fmt.Fprintf(out, "%d. [%.3f] %s%s\n", i+1, d.FinalScore, d.Head, suffix)
		fmt.Fprintf(out, "   %s  %s  confidence %.2f  %s\n", d.Key, d.PatternType, d.Confidence,
			d.Timestamp.Format(time.RFC3339))
	}
	return nil
}

// --- show command ---

var showCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show a decision and its supersedence history",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	key := args[0]

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	d, err := a.db.GetDecision(ctx, key)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("decision %s not found", key)
	}

	out := cmd.OutOrStdout()
	status := "active"
	if d.Superseded {
		status = "superseded"
	}
	fmt.Fprintf(out, "%s\n", d.Head)
	fmt.Fprintf(out, "  key:        %s\n", d.Key)
	fmt.Fprintf(out, "  status:     %s\n", status)
	fmt.Fprintf(out, "  confidence: %.2f\n", d.Confidence)
	fmt.Fprintf(out, "  pattern:    %s\n", d.PatternType)
	fmt.Fprintf(out, "  session:    %s\n", d.SessionID)
	fmt.Fprintf(out, "  role:       %s\n", d.Role)
	fmt.Fprintf(out, "  recorded:   %s\n", d.Timestamp.Format(time.RFC3339))
	if d.Rationale != "" {
		fmt.Fprintf(out, "  rationale:  %s\n", d.Rationale)
	}

	hist, err := a.db.History(ctx, key)
	if err != nil {
		return err
	}
	if len(hist) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\n## History")
	for _, h := range hist {
		fmt.Fprintf(out, "  %s  %s superseded by %s\n",
			h.Timestamp.Format(time.RFC3339), h.SupersededKey, h.SupersedingKey)
	}
	return nil
}

// --- resolve command ---

var resolveCmd = &cobra.Command{
	Use:   "resolve <key>...",
	Short: "Re-run conflict resolution for stored decisions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	for _, key := range args {
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		superseded, err := a.engine.Resolve(ctx, key)
		cancel()
		if err != nil {
			return fmt.Errorf("resolve %s: %w", key, err)
		}
		for _, s := range superseded {
			fmt.Fprintf(out, "%s superseded by %s\n", s, key)
		}
	}
	return nil
}

// --- stats command ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show decision log counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.db.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "decisions: %d (active %d, superseded %d)\nsupersedences: %d\n",
			s.Decisions, s.Active, s.Superseded, s.Supersedences)
		return nil
	},
}
