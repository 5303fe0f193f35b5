package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vanshika/separation/internal/dataset"
	"github.com/vanshika/separation/internal/domain"
	"github.com/vanshika/separation/internal/metrics"
	"github.com/vanshika/separation/internal/puzzle"
	"github.com/vanshika/separation/internal/quiz"
	"github.com/vanshika/separation/internal/service"
)

var quizDifficulty string

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Play the hidden-chain quiz in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger := app.cfg, app.logger
		graphClient, err := openGraph(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("create graph client: %w", err)
		}
		defer closeGraph(graphClient, logger)

		m := metrics.New()
		store := dataset.NewStore(buildSource(cfg, logger, graphClient), dataset.WithLogger(logger), dataset.WithMetrics(m))
		game, err := buildGame(cfg, logger, m, store)
		if err != nil {
			return err
		}
		session := quiz.NewSession(uuid.NewString(), cfg.Quiz.MaxHintLevels, nil)
		return runQuiz(cmd.Context(), game, session, cmd.InOrStdin(), cmd.OutOrStdout(), quizDifficulty)
	},
}

func init() {
	quizCmd.Flags().StringVar(&quizDifficulty, "difficulty", domain.DifficultyMedium, "Easy, Medium or Hard")
}

const quizHelp = `commands:
  guess [N] NAME   guess the player at hidden position N (default: first hidden)
  hint [N]         show the next hint for position N
  reveal [N]       give up on position N
  new [LEVEL]      start a new round, optionally at another difficulty
  quit             leave the quiz`

// runQuiz drives one session from line-oriented input until quit or EOF.
func runQuiz(ctx context.Context, game *service.Game, session *quiz.Session, in io.Reader, out io.Writer, difficulty string) error {
	snap, err := game.Load(ctx)
	if err != nil {
		return err
	}
	if err := startRound(ctx, game, session, out, difficulty); err != nil {
		return err
	}
	fmt.Fprintln(out, quizHelp)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		verb, rest, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		rest = strings.TrimSpace(rest)

		switch strings.ToLower(verb) {
		case "":
		case "quit", "exit":
			printScore(out, session.Progress())
			return nil
		case "new":
			if rest != "" {
				difficulty = rest
			}
			if err := startRound(ctx, game, session, out, difficulty); err != nil {
				return err
			}
		case "guess":
			position, name := splitPosition(rest)
			outcome, err := game.Guess(ctx, session, position, name)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			if !outcome.Correct {
				fmt.Fprintln(out, "Not quite, try again.")
				continue
			}
			fmt.Fprintf(out, "Correct! %s\n", displayOf(snap, outcome.GuessedID))
			if outcome.Completed {
				fmt.Fprintln(out, "Chain complete!")
				printScore(out, session.Progress())
				continue
			}
			printChain(out, snap, session.Progress())
		case "hint":
			position, err := positionOrNext(session, rest)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			hint, err := game.Hint(ctx, session, position)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			fmt.Fprintln(out, hint.Header)
			fmt.Fprintln(out, hint.Body())
		case "reveal":
			position, err := positionOrNext(session, rest)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			id, completed, err := session.Reveal(position)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			fmt.Fprintf(out, "It was %s\n", displayOf(snap, id))
			if completed {
				fmt.Fprintln(out, "Chain complete!")
				printScore(out, session.Progress())
				continue
			}
			printChain(out, snap, session.Progress())
		default:
			fmt.Fprintln(out, quizHelp)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	printScore(out, session.Progress())
	return nil
}

func startRound(ctx context.Context, game *service.Game, session *quiz.Session, out io.Writer, difficulty string) error {
	p, err := game.StartRound(ctx, session, difficulty)
	if errors.Is(err, puzzle.ErrExhausted) {
		fmt.Fprintln(out, "Could not generate a puzzle at this difficulty, try again.")
		return nil
	}
	if err != nil {
		return err
	}
	snap, err := game.Load(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "New %s puzzle: %d degrees of separation\n", p.Difficulty, p.Degrees())
	printChain(out, snap, session.Progress())
	return nil
}

func printChain(w io.Writer, snap *dataset.Snapshot, prog quiz.Progress) {
	for i, id := range prog.Path {
		if prog.Revealed[i] {
			fmt.Fprintf(w, "  %d. %s\n", i, displayOf(snap, id))
		} else {
			fmt.Fprintf(w, "  %d. ???\n", i)
		}
	}
}

func printScore(w io.Writer, prog quiz.Progress) {
	fmt.Fprintf(w, "Score: %d / %d\n", prog.Score, prog.Total)
}

// splitPosition reads an optional leading position from "2 Some Name".
func splitPosition(s string) (int, string) {
	head, tail, found := strings.Cut(s, " ")
	if !found {
		return -1, s
	}
	if n, err := strconv.Atoi(head); err == nil {
		return n, strings.TrimSpace(tail)
	}
	return -1, s
}

func positionOrNext(session *quiz.Session, arg string) (int, error) {
	if arg == "" {
		next, ok := session.NextHidden()
		if !ok {
			return 0, quiz.ErrNotActive
		}
		return next, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("position %q is not a number", arg)
	}
	return n, nil
}

func displayOf(snap *dataset.Snapshot, id domain.PlayerID) string {
	if display, ok := snap.IDToDisplay[id]; ok {
		return display
	}
	return snap.Name(id)
}
