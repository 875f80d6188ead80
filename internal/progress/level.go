package progress

// PointsPerLevel is the width of every level band.
const PointsPerLevel = 100

// LevelFor returns the level for a point total: 1 + points/100.
func LevelFor(points int) int {
	if points < 0 {
		return 1
	}
	return 1 + points/PointsPerLevel
}

// PointsToNextLevel returns how many points remain until the next level.
func PointsToNextLevel(points int) int {
	if points < 0 {
		return PointsPerLevel
	}
	return PointsPerLevel - points%PointsPerLevel
}

// LevelProgress returns the fraction of the current level band already earned.
func LevelProgress(points int) float64 {
	if points < 0 {
		return 0
	}
	return float64(points%PointsPerLevel) / PointsPerLevel
}
