package domain

// WinLength is the run length that wins a game. Longer runs also win.
const WinLength = 5

// Run is a straight line of cells given by its two endpoints.
type Run struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// horizontal, vertical, diagonal, anti-diagonal
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// CheckWin looks for a run of at least WinLength stones through (r, c) in
// the colour of that cell. Start is the endpoint reached by walking against
// the direction vector, End the one reached by walking along it. The first
// qualifying direction is returned.
func CheckWin(b *Board, r, c int) (Run, bool) {
	if !b.InBounds(r, c) {
		return Run{}, false
	}
	player := b.at(r, c)
	if player == Empty {
		return Run{}, false
	}
	for _, d := range directions {
		count := 1
		end := Point{Row: r, Col: c}
		nr, nc := r+d[0], c+d[1]
		for b.InBounds(nr, nc) && b.at(nr, nc) == player {
			count++
			end = Point{Row: nr, Col: nc}
			nr += d[0]
			nc += d[1]
		}
		start := Point{Row: r, Col: c}
		nr, nc = r-d[0], c-d[1]
		for b.InBounds(nr, nc) && b.at(nr, nc) == player {
			count++
			start = Point{Row: nr, Col: nc}
			nr -= d[0]
			nc -= d[1]
		}
		if count >= WinLength {
			return Run{Start: start, End: end}, true
		}
	}
	return Run{}, false
}

// resignRun is the line shown for a win by resignation. No stones back it:
// it is the centre row, WinLength cells centred on the middle column.
func resignRun(size int) Run {
	mid := size / 2
	half := WinLength / 2
	return Run{
		Start: Point{Row: mid, Col: mid - half},
		End:   Point{Row: mid, Col: mid + half},
	}
}
