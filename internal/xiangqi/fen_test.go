package xiangqi

import (
	"errors"
	"testing"
)

func TestInitialPositionRoundTrip(t *testing.T) {
	pos := NewInitialPosition()
	enc := pos.Encode()
	if enc != InitialFEN {
		t.Fatalf("encode: got %q want %q", enc, InitialFEN)
	}
	back, err := DecodePosition(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Board != pos.Board || back.SideToMove != pos.SideToMove || back.Hash != pos.Hash {
		t.Fatalf("round trip changed the position")
	}
	if pos.TotalPieces() != 32 {
		t.Fatalf("initial position has %d pieces", pos.TotalPieces())
	}
}

func TestInitialPlacement(t *testing.T) {
	pos := NewInitialPosition()
	cases := []struct {
		row, col int
		want     Piece
	}{
		{0, 4, MakePiece(Black, PieceGeneral)},
		{9, 4, MakePiece(Red, PieceGeneral)},
		{7, 1, MakePiece(Red, PieceCannon)},
		{2, 7, MakePiece(Black, PieceCannon)},
		{6, 0, MakePiece(Red, PieceSoldier)},
		{3, 8, MakePiece(Black, PieceSoldier)},
		{9, 1, MakePiece(Red, PieceHorse)},
		{0, 2, MakePiece(Black, PieceElephant)},
		{5, 4, 0},
	}
	for _, c := range cases {
		if got := pos.PieceAt(c.row, c.col); got != c.want {
			t.Errorf("(%d,%d): got %v want %v", c.row, c.col, got, c.want)
		}
	}
}

func TestDecodeSideChar(t *testing.T) {
	cases := map[string]Side{
		"4k4/9/9/9/9/9/9/9/9/3K5":   Red,
		"4k4/9/9/9/9/9/9/9/9/3K5 w": Red,
		"4k4/9/9/9/9/9/9/9/9/3K5 r": Red,
		"4k4/9/9/9/9/9/9/9/9/3K5 b": Black,
	}
	for fen, want := range cases {
		pos, err := DecodePosition(fen)
		if err != nil {
			t.Fatalf("%q: %v", fen, err)
		}
		if pos.SideToMove != want {
			t.Errorf("%q: side %v want %v", fen, pos.SideToMove, want)
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"rnbakabnr/9/1c5c1",
		"rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR/9 w",
		"rnbakabnx/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w",
		"rnbakabnr1/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w",
		"rnbakabn/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w",
		"rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR x",
		"rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w extra",
		"4k4/9/9/9/9/9/9/9/4K4/3K5 w",
	}
	for _, fen := range bad {
		pos, err := DecodePosition(fen)
		if err == nil {
			t.Errorf("%q: expected error, got %v", fen, pos.Encode())
			continue
		}
		if !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("%q: error %v does not wrap ErrInvalidFEN", fen, err)
		}
	}
}

func TestBoardKeyOmitsSide(t *testing.T) {
	pos := NewInitialPosition()
	if got, want := pos.BoardKey()+" w", pos.Encode(); got != want {
		t.Fatalf("board key %q does not prefix encoding %q", got, want)
	}
}
