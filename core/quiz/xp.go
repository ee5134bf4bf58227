package quiz

const (
	xpPerCorrect   = 10
	xpPerfectBonus = 50
	xpPerLevel     = 500
)

// ComputeXP returns the XP earned by a quiz attempt: 10 per correct answer,
// plus 50 when every answer is correct.
func ComputeXP(correct, total int) int {
	xp := correct * xpPerCorrect
	if total > 0 && correct == total {
		xp += xpPerfectBonus
	}
	return xp
}

// Level is the gamification level reached with some amount of XP.
type Level struct {
	Level               int `json:"level"`
	NextLevelThreshold  int `json:"nextLevelThreshold"`
	ProgressWithinLevel int `json:"progressWithinLevel"`
}

// ComputeLevel derives the level reached with totalXP.
func ComputeLevel(totalXP int) Level {
	if totalXP < 0 {
		totalXP = 0
	}
	lvl := totalXP/xpPerLevel + 1
	return Level{
		Level:               lvl,
		NextLevelThreshold:  lvl * xpPerLevel,
		ProgressWithinLevel: totalXP - (lvl-1)*xpPerLevel,
	}
}

// TotalXP sums the XP earned over attempts.
func TotalXP(attempts []Attempt) int {
	var total int
	for _, a := range attempts {
		total += a.XPEarned
	}
	return total
}
