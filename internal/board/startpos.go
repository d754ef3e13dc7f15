package board

import "strings"

// Source is the randomness used to draw a starting position. *rand.Rand from
// math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// BackRank draws a Chess960 back-rank arrangement indexed by file: bishops on
// opposite-coloured files, queen and knights on random free files, and the
// three files left over receive rook, king, rook in ascending order.
func BackRank(r Source) [Size]Kind {
	var rank [Size]Kind

	rank[2*r.IntN(4)] = Bishop
	rank[2*r.IntN(4)+1] = Bishop

	free := freeFiles(&rank)
	rank[free[r.IntN(len(free))]] = Queen

	free = freeFiles(&rank)
	i := r.IntN(len(free))
	j := r.IntN(len(free) - 1)
	if j >= i {
		j++
	}
	rank[free[i]] = Knight
	rank[free[j]] = Knight

	free = freeFiles(&rank)
	rank[free[0]] = Rook
	rank[free[1]] = King
	rank[free[2]] = Rook
	return rank
}

func freeFiles(rank *[Size]Kind) []int {
	free := make([]int, 0, Size)
	for f, k := range rank {
		if k == NoKind {
			free = append(free, f)
		}
	}
	return free
}

// Setup places the given back rank for both sides: white on ranks 1 and 2,
// black mirrored on ranks 8 and 7. Ranks 3 to 6 stay empty.
func Setup(rank [Size]Kind) Board {
	var b Board
	for f, k := range rank {
		b.Set(Square{X: f, Y: Size - 1}, NewPiece(White, k))
		b.Set(Square{X: f, Y: Size - 2}, NewPiece(White, Pawn))
		b.Set(Square{X: f, Y: 0}, NewPiece(Black, k))
		b.Set(Square{X: f, Y: 1}, NewPiece(Black, Pawn))
	}
	return b
}

// Chess960 returns a freshly drawn randomized starting board.
func Chess960(r Source) Board { return Setup(BackRank(r)) }

// Standard is the classical arrangement, one of the 960.
var Standard = [Size]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// BackRankString renders a back rank as upper-case letters, e.g. "RNBQKBNR".
func BackRankString(rank [Size]Kind) string {
	var sb strings.Builder
	for _, k := range rank {
		sb.WriteByte(k.Letter() - 'a' + 'A')
	}
	return sb.String()
}
