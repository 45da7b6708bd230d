package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"scoresim/internal/ranking"
	"scoresim/internal/scoring"
	"scoresim/internal/simulation"
	"scoresim/internal/tui"
)

func runCmd(opts *rootOptions) *cobra.Command {
	var preset string
	cmd := &cobra.Command{
		Use:   "run [query]",
		Short: "Run one simulation and print every stage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, stop, err := setup(opts)
			if err != nil {
				return err
			}
			defer stop()

			req := simulation.Request{Query: strings.Join(args, " ")}
			if preset != "" {
				w, err := scoring.Preset(preset)
				if err != nil {
					return err
				}
				req.Weights = &w
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			final, err := runAndReport(ctx, a.engine, req, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			printRanking(cmd.OutOrStdout(), final)
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "Weight preset ("+strings.Join(scoring.PresetNames(), ", ")+")")
	return cmd
}

// runAndReport starts req and prints each stage as it is entered until the
// run finishes.
func runAndReport(ctx context.Context, engine *simulation.Engine, req simulation.Request, out io.Writer) (simulation.Snapshot, error) {
	updates, unsubscribe := engine.Subscribe()
	defer unsubscribe()

	if _, err := engine.Run(req); err != nil {
		return simulation.Snapshot{}, err
	}
	printed := simulation.StageIdle
	report := func(s simulation.Snapshot) {
		if s.Stage == printed {
			if s.Current != "" {
				if c, ok := s.Candidate(s.Current); ok {
					fmt.Fprintf(out, "    scoring %s\n", c.Name)
				}
			}
			return
		}
		printed = s.Stage
		switch s.Stage {
		case simulation.StageEmbeddingQuery:
			fmt.Fprintf(out, "%-16s %v\n", s.Stage, []float64(s.QueryVector))
			if !s.Advisory.Valid {
				fmt.Fprintf(out, "%-16s weights sum to %.3f, not 1\n", "", s.Advisory.Sum)
			}
		case simulation.StageFiltering:
			fmt.Fprintf(out, "%-16s kept %d of %d by centroid\n", s.Stage, len(s.StageOne), len(s.Candidates))
		default:
			fmt.Fprintf(out, "%s\n", s.Stage)
		}
	}

	done := make(chan struct{})
	var (
		final simulation.Snapshot
		err   error
	)
	go func() {
		defer close(done)
		final, err = engine.Wait(ctx)
	}()
	for {
		select {
		case s := <-updates:
			report(s)
		case <-done:
			for {
				select {
				case s := <-updates:
					report(s)
				default:
					return final, err
				}
			}
		}
	}
}

func printRanking(out io.Writer, s simulation.Snapshot) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tFILE\tMAX\tTOPK\tCENTROID\tBM25\tFINAL")
	for _, c := range s.Ranked {
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n",
			c.Rank, c.Name, c.Components.Max, c.Components.TopKMean, c.Components.Centroid, c.Components.BM25, c.FinalScore)
	}
	_ = tw.Flush()
	for _, c := range s.Ranked {
		fmt.Fprintf(out, "\n#%d %s\n", c.Rank, c.Path)
		for _, ch := range ranking.TopChunks(c, 2) {
			fmt.Fprintf(out, "  [%d-%d] %.3f %s\n", ch.LineStart, ch.LineEnd, ch.Similarity, firstLine(ch.Text))
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

func tuiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive simulation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, stop, err := setup(opts)
			if err != nil {
				return err
			}
			defer stop()
			preset := a.cfg.Scoring.Preset
			if preset == "" {
				preset = "default"
			}
			_, err = tea.NewProgram(tui.New(a.engine, preset), tea.WithAltScreen()).Run()
			return err
		},
	}
}

func pinpointCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pinpoint [query]",
		Short: "Rank files by their single best chunk",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, stop, err := setup(opts)
			if err != nil {
				return err
			}
			defer stop()
			results, err := a.engine.Pinpoint(strings.Join(args, " "))
			if err != nil {
				return err
			}
			printPinpoint(cmd.OutOrStdout(), results)
			return nil
		},
	}
}

func printPinpoint(out io.Writer, results []ranking.PinpointResult) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tFILE\tLINES\tSCORE\tCHUNK")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%s\t%d-%d\t%.3f\t%s\n",
			r.Rank, r.Candidate.Name, r.BestChunk.LineStart, r.BestChunk.LineEnd, r.Score, firstLine(r.BestChunk.Text))
	}
	_ = tw.Flush()
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List weight presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PRESET\tMAX\tTOPK\tCENTROID\tBM25")
			for _, name := range scoring.PresetNames() {
				w, err := scoring.Preset(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\n", name, w.Max, w.TopKMean, w.Centroid, w.BM25)
			}
			return tw.Flush()
		},
	}
}
