package points

import "math"

// Level-curve parameters: the cost of reaching level n from n-1 is
// floor(levelBase * levelGrowth^(n-1)).
const (
	levelBase   = 100
	levelGrowth = 1.2
)

// LevelCost returns the points needed to advance from level n-1 to n.
func LevelCost(n int) int {
	if n < 1 {
		return 0
	}
	return int(math.Floor(levelBase * math.Pow(levelGrowth, float64(n-1))))
}

// LevelInfo describes a user's level derived from cumulative points.
// Level is never stored as ground truth; it is always recomputed from
// the point total.
type LevelInfo struct {
	Level           int     `json:"level"`
	PointsIntoLevel int     `json:"points_into_level"`
	NextLevelCost   int     `json:"next_level_cost"`
	Progress        float64 `json:"progress"`
}

// LevelForPoints walks the exponential curve, accumulating level costs
// until the next level would exceed totalPoints.
func LevelForPoints(totalPoints int) LevelInfo {
	level := 1
	remaining := totalPoints
	for {
		cost := LevelCost(level)
		if remaining < cost {
			return LevelInfo{
				Level:           level,
				PointsIntoLevel: remaining,
				NextLevelCost:   cost,
				Progress:        float64(remaining) / float64(cost),
			}
		}
		remaining -= cost
		level++
	}
}
