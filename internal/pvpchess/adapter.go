package pvpchess

import (
	"github.com/park285/chess960-arena/internal/board"
	"github.com/park285/chess960-arena/internal/engine"
	"github.com/park285/chess960-arena/pkg/chessdto"
)

// ToDTO converts the record for presenters. The move list of a pending
// selection is recomputed by restoring the engine.
func (m *Manager) ToDTO(g *Game) (*chessdto.SessionState, error) {
	if m == nil || g == nil {
		return nil, nil
	}
	eg, err := engine.Restore(g.State, m.engineOpts...)
	if err != nil {
		return nil, err
	}

	b := g.State.Board
	st := &chessdto.SessionState{
		SessionUUID: g.ID,
		Round:       g.Round,
		Status:      string(g.Status),
		Result:      g.State.Result.String(),
		Method:      g.Method,
		Turn:        g.Turn.String(),
		Check:       g.Status.Live() && eg.InCheck(),
		Rows:        b.Rows(),
		FEN:         g.FEN,
		BackRank:    g.State.BackRank,
		Moves:       squareNames(eg.CurrentMoves()),
		Captured:    make([]string, 0, len(g.State.Captured)),
		History:     make([]chessdto.MoveInfo, 0, len(g.History)),
		White:       chessdto.Player{ID: g.WhiteID, Name: g.NameOf(board.White)},
		Black:       chessdto.Player{ID: g.BlackID, Name: g.NameOf(board.Black)},
		Winner:      g.Winner,
		Banner:      m.ResultText(g),
		UpdatedAt:   g.UpdatedAt,
	}
	if sq, ok := eg.Selected(); ok {
		st.Selected = sq.String()
	}
	for _, p := range g.State.Captured {
		st.Captured = append(st.Captured, p.String())
	}
	for _, mv := range g.History {
		st.History = append(st.History, moveInfo(mv))
	}
	if mv, ok := eg.LastMove(); ok {
		info := moveInfo(mv)
		st.LastMove = &info
	}
	return st, nil
}

func moveInfo(mv engine.Move) chessdto.MoveInfo {
	info := chessdto.MoveInfo{From: mv.From.String(), To: mv.To.String(), Piece: mv.Piece.String()}
	if !mv.Captured.IsEmpty() {
		info.Captured = mv.Captured.String()
	}
	return info
}

func squareNames(sqs []board.Square) []string {
	out := make([]string, len(sqs))
	for i, sq := range sqs {
		out[i] = sq.String()
	}
	return out
}
