// Command dominion runs the Star Dominion turn engine: an HTTP API, a turn
// worker and one-shot admin commands over the same store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/star-dominion/internal/api"
	"github.com/talgya/star-dominion/internal/engine"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:          "dominion",
		Short:        "Star Dominion turn engine",
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newWorkerCmd(),
		newGameCmd(),
		newAdvanceCmd(),
		newStatusCmd(),
		newRestoreCmd(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// withApp wires the process for one command and closes it afterwards.
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

func newServeCmd() *cobra.Command {
	var runWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			ctx := cmd.Context()
			server := api.New(a.svc, api.Config{
				Metrics:  a.metrics,
				DB:       a.db,
				AdminKey: a.cfg.HTTP.AdminKey,
				Logger:   a.logger,
			})
			httpServer := &http.Server{
				Addr:              a.cfg.HTTP.Addr,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       a.cfg.HTTP.ReadTimeout,
				WriteTimeout:      a.cfg.HTTP.WriteTimeout,
			}

			if runWorker {
				w := &engine.Worker{
					Service:     a.svc,
					Interval:    a.cfg.Worker.Interval,
					Concurrency: a.cfg.Worker.Concurrency,
					Logger:      a.logger,
				}
				go w.Run(ctx)
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
			}()

			a.logger.Info("HTTP API starting", "addr", a.cfg.HTTP.Addr, "admin_auth", a.cfg.HTTP.AdminKey != "", "worker", runWorker)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&runWorker, "worker", false, "also advance games on the worker interval")
	return cmd
}

func newWorkerCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Advance every active game on a fixed interval",
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			if once {
				outcomes, err := a.svc.AdvanceAll(cmd.Context(), a.cfg.Worker.Concurrency)
				if err != nil {
					return err
				}
				for _, o := range outcomes {
					printOutcome(cmd, o)
				}
				return nil
			}
			w := &engine.Worker{
				Service:     a.svc,
				Interval:    a.cfg.Worker.Interval,
				Concurrency: a.cfg.Worker.Concurrency,
				Logger:      a.logger,
			}
			return w.Run(cmd.Context())
		}),
	}
	cmd.Flags().BoolVar(&once, "once", false, "advance every game one turn and exit")
	return cmd
}

func newGameCmd() *cobra.Command {
	var req engine.NewGame
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a game",
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			if !cmd.Flags().Changed("empires") {
				req.Empires = a.cfg.Game.Empires
			}
			if !cmd.Flags().Changed("turn-limit") {
				req.TurnLimit = a.cfg.Game.TurnLimit
			}
			if !cmd.Flags().Changed("protection") {
				req.ProtectionTurns = a.cfg.Game.ProtectionTurns
			}
			st, err := a.svc.CreateGame(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created game %s (%s): %d empires, %d regions, seed %d\n",
				st.Game.ID, st.Game.Name, len(st.Empires), len(st.Regions), st.Game.Seed)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "Star Dominion", "game name")
	f.IntVar(&req.Empires, "empires", 10, "number of empires including the player")
	f.IntVar(&req.TurnLimit, "turn-limit", engine.DefaultTurnLimit, "last turn of the game")
	f.IntVar(&req.ProtectionTurns, "protection", engine.DefaultProtectionTurns, "turns during which attacks are refused; negative disables")
	f.Int64Var(&req.Seed, "seed", 0, "galaxy seed; 0 draws a fresh one")
	f.StringVar(&req.PlayerName, "player", "", "name of the player empire")
	return cmd
}

func newAdvanceCmd() *cobra.Command {
	var turns int
	cmd := &cobra.Command{
		Use:   "advance <game-id>",
		Short: "Process turns of one game",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			for range turns {
				res, err := a.svc.AdvanceTurn(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printOutcome(cmd, engine.Outcome{GameID: args[0], Result: res})
				if res.Ended() {
					break
				}
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&turns, "turns", "n", 1, "number of turns to process")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [game-id]",
		Short: "List active games, or show the empires of one game",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer out.Flush()

			if len(args) == 0 {
				games, err := a.svc.ListActiveGames(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "GAME\tNAME\tTURN\tLIMIT\tCREATED")
				for _, g := range games {
					fmt.Fprintf(out, "%s\t%s\t%d\t%d\t%s\n", g.ID, g.Name, g.CurrentTurn, g.TurnLimit, humanize.Time(g.CreatedAt))
				}
				return nil
			}

			st, err := a.svc.GetState(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s  turn %d/%d  %s\n\n", st.Game.Name, st.Game.CurrentTurn, st.Game.TurnLimit, st.Game.Status)
			fmt.Fprintln(out, "EMPIRE\tTYPE\tPOPULATION\tCREDITS\tNETWORTH\tSTATUS")
			for _, e := range st.Empires {
				status := string(e.CivilStatus)
				if e.IsEliminated {
					status = "defeated (" + string(e.DefeatType) + ")"
				}
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Name, e.Type,
					humanize.Comma(e.Population), humanize.Comma(e.Resources.Credits), humanize.Comma(e.Networth), status)
			}
			return nil
		}),
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <game-id>",
		Short: "Replace a game's live state with its last snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			snap, err := a.svc.RestoreSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored game %s to turn %d (%s)\n", snap.GameID, snap.Turn, snap.Version)
			return nil
		}),
	}
}

func printOutcome(cmd *cobra.Command, o engine.Outcome) {
	w := cmd.OutOrStdout()
	if o.Err != nil {
		fmt.Fprintf(w, "%s: %v\n", o.GameID, o.Err)
		return
	}
	res := o.Result
	fmt.Fprintf(w, "%s: turn %d processed, %d combats, %d events\n", o.GameID, res.Turn, len(res.Combats), len(res.Events))
	for _, id := range res.EliminatedEmpires {
		fmt.Fprintf(w, "  empire %s defeated\n", id)
	}
	if res.SnapshotError != "" {
		fmt.Fprintf(w, "  snapshot failed: %s\n", res.SnapshotError)
	}
	if res.Victory != nil {
		fmt.Fprintf(w, "  %s\n", res.Victory.Announcement)
	}
}
