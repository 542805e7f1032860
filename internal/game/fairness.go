package game

// alphabetSize is the number of callable letters.
const alphabetSize = 26

// RoundsPerPlayer is how many full turns each admitted participant gets
// before the letter pool can no longer be divided evenly.
func RoundsPerPlayer(admitted int) int {
	if admitted <= 0 {
		return 0
	}
	return alphabetSize / admitted
}

// MaxFairRounds is the round ceiling: the largest multiple of the admitted
// count that fits into the 26 letters, so every player calls the same number
// of rounds.
func MaxFairRounds(admitted int) int {
	return RoundsPerPlayer(admitted) * admitted
}
