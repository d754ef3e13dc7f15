package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/park285/chess960-arena/internal/apiclient"
	"github.com/park285/chess960-arena/internal/board"
	"github.com/park285/chess960-arena/internal/engine"
	"github.com/park285/chess960-arena/internal/msgcat"
	"github.com/park285/chess960-arena/pkg/chessdto"
)

const helpText = `Enter a square ("e2") or file and rank ("4 2", files 0-7).
Select a piece, then one of its target squares.
Commands: board, reset, resign (server only), help, quit.`

// command is one parsed input line.
type command struct {
	verb string // "select", "board", "reset", "resign", "help", "quit"

	square     string
	file, rank int
	byIndex    bool
}

func parseLine(line string) (command, error) {
	f := strings.Fields(strings.ToLower(line))
	switch {
	case len(f) == 0:
		return command{}, errors.New("empty input")
	case len(f) == 1:
		switch f[0] {
		case "board", "reset", "resign", "help", "quit", "exit":
			if f[0] == "exit" {
				return command{verb: "quit"}, nil
			}
			return command{verb: f[0]}, nil
		}
		return command{verb: "select", square: f[0]}, nil
	case len(f) == 2:
		file, ferr := strconv.Atoi(f[0])
		rank, rerr := strconv.Atoi(f[1])
		if ferr != nil || rerr != nil {
			return command{}, fmt.Errorf("expected two numbers, got %q", line)
		}
		return command{verb: "select", file: file, rank: rank, byIndex: true}, nil
	}
	return command{}, fmt.Errorf("cannot read %q", line)
}

// playLocal runs a hot-seat game on g until EOF or quit.
func playLocal(in io.Reader, out io.Writer, g *engine.Game, cat *msgcat.Catalog) error {
	fmt.Fprintln(out, cat.Text("notice.reset", map[string]any{"BackRank": g.BackRank()}))
	printBoard(out, g)

	sc := bufio.NewScanner(in)
	for prompt(out, g, cat); sc.Scan(); prompt(out, g, cat) {
		cmd, err := parseLine(sc.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		switch cmd.verb {
		case "quit":
			return nil
		case "help":
			fmt.Fprintln(out, helpText)
		case "board":
			printBoard(out, g)
		case "reset":
			g.Reset()
			fmt.Fprintln(out, cat.Text("notice.reset", map[string]any{"BackRank": g.BackRank()}))
			printBoard(out, g)
		case "resign":
			fmt.Fprintln(out, "resign is only available against a server")
		case "select":
			if err := selectLocal(out, g, cat, cmd); err != nil {
				return err
			}
		}
	}
	return sc.Err()
}

func selectLocal(out io.Writer, g *engine.Game, cat *msgcat.Catalog, cmd command) error {
	var (
		ev  engine.Event
		err error
	)
	if cmd.byIndex {
		ev, err = g.SelectSquare(cmd.file, cmd.rank)
	} else {
		sq, perr := board.ParseSquare(cmd.square)
		if perr != nil {
			fmt.Fprintln(out, perr)
			return nil
		}
		ev, err = g.Select(sq)
	}
	switch {
	case errors.Is(err, engine.ErrOutOfRange):
		fmt.Fprintln(out, err)
		return nil
	case err != nil:
		return err
	}

	b := g.BoardSnapshot()
	switch ev.Kind {
	case engine.Selected:
		data := map[string]any{"Piece": b.At(ev.Square).String(), "Square": ev.Square.String()}
		if len(ev.Moves) == 0 {
			fmt.Fprintln(out, cat.Text("notice.no_moves", data))
			return nil
		}
		names := make([]string, len(ev.Moves))
		for i, sq := range ev.Moves {
			names[i] = sq.String()
		}
		data["Moves"] = strings.Join(names, ", ")
		fmt.Fprintln(out, cat.Text("notice.selected", data))
	case engine.Moved:
		mv := ev.Move
		data := map[string]any{"Piece": mv.Piece.String(), "From": mv.From.String(), "To": mv.To.String()}
		key := "move.line"
		if !mv.Captured.IsEmpty() {
			key = "move.capture"
			data["Captured"] = mv.Captured.String()
		}
		fmt.Fprintln(out, cat.Text(key, data))
		printBoard(out, g)
		if ev.Check && !g.GameResult().Terminal() {
			fmt.Fprintln(out, cat.Text("turn.check", map[string]any{"Color": g.CurrentTurn().Title()}))
		}
	default:
		if g.GameResult().Terminal() {
			fmt.Fprintln(out, cat.Text("notice.finished", nil))
			return nil
		}
		fmt.Fprintln(out, cat.Text("notice.ignored", map[string]any{"Square": ev.Square.String()}))
	}
	return nil
}

func prompt(out io.Writer, g *engine.Game, cat *msgcat.Catalog) {
	if r := g.GameResult(); r.Terminal() {
		fmt.Fprintln(out, resultText(g, cat))
	} else {
		fmt.Fprintln(out, cat.Text("turn.banner", map[string]any{"Color": g.CurrentTurn().Title()}))
	}
	fmt.Fprint(out, "> ")
}

func resultText(g *engine.Game, cat *msgcat.Catalog) string {
	w, ok := g.GameResult().Winner()
	if !ok {
		return cat.Text("result.stalemate", nil)
	}
	data := map[string]any{"Winner": w.Title(), "Loser": w.Opposite().Title()}
	if g.Method() == engine.MethodKingCapture {
		return cat.Text("result.king_capture", data)
	}
	return cat.Text("result.checkmate", data)
}

func printBoard(out io.Writer, g *engine.Game) {
	b := g.BoardSnapshot()
	printRows(out, b.Rows())
}

func printRows(out io.Writer, rows []string) {
	for i, row := range rows {
		fmt.Fprintf(out, "%d  %s\n", board.Size-i, strings.Join(strings.Split(row, ""), " "))
	}
	fmt.Fprintln(out, "   a b c d e f g h")
}

func printState(out io.Writer, st *chessdto.SessionState) {
	if st == nil {
		return
	}
	printRows(out, st.Rows)
	if st.Selected != "" {
		fmt.Fprintf(out, "selected %s: %s\n", st.Selected, strings.Join(st.Moves, ", "))
	}
	fmt.Fprintln(out, st.Banner)
}

// playRemote drives the game gameID on a server as userID.
func playRemote(ctx context.Context, in io.Reader, out io.Writer, c *apiclient.Client, gameID, userID string) error {
	st, err := c.Game(ctx, gameID)
	if err != nil {
		return err
	}
	printState(out, st)

	sc := bufio.NewScanner(in)
	for fmt.Fprint(out, "> "); sc.Scan(); fmt.Fprint(out, "> ") {
		cmd, err := parseLine(sc.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		var res *chessdto.ActionResponse
		switch cmd.verb {
		case "quit":
			return nil
		case "help":
			fmt.Fprintln(out, helpText)
			continue
		case "board":
			st, err = c.Game(ctx, gameID)
			if err == nil {
				printState(out, st)
			}
		case "reset":
			res, err = c.Reset(ctx, gameID, userID)
		case "resign":
			res, err = c.Resign(ctx, gameID, userID)
		case "select":
			sq := cmd.square
			if cmd.byIndex {
				s, ok := board.SquareOf(cmd.file, cmd.rank)
				if !ok {
					fmt.Fprintln(out, engine.ErrOutOfRange)
					continue
				}
				sq = s.String()
			}
			res, err = c.Select(ctx, gameID, userID, sq)
		}
		var apiErr *apiclient.APIError
		switch {
		case errors.As(err, &apiErr):
			fmt.Fprintln(out, apiErr.Message)
		case err != nil:
			return err
		case res != nil:
			printState(out, res.Game)
			if res.Message != "" {
				fmt.Fprintln(out, res.Message)
			}
		}
	}
	return sc.Err()
}
