package tictactoe

// The eight winning triples: three rows, three columns, two diagonals.
var winningTriples = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// checkWinner returns the outcome for the board: the mark of the first
// triple holding three identical marks, DRAW when the board is full with
// no triple, nil while the game is still open. A triple win is always
// detected before a draw is considered.
func checkWinner(board [9]*Mark) *Outcome {
	for _, t := range winningTriples {
		a, b, c := board[t[0]], board[t[1]], board[t[2]]
		if a != nil && b != nil && c != nil && *a == *b && *a == *c {
			out := Outcome(*a)
			return &out
		}
	}
	for _, cell := range board {
		if cell == nil {
			return nil
		}
	}
	draw := OutcomeDraw
	return &draw
}
