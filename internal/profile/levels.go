package profile

import (
	"math"
	"sort"
	"time"
)

// MaxLevel is the highest reachable level
const MaxLevel = 100

// Level titles for each level range
var LevelTitles = map[int]string{
	1:   "Color Novice",
	11:  "Palette Apprentice",
	21:  "Hue Hunter",
	36:  "Shade Artisan",
	51:  "Chroma Master",
	71:  "Spectrum Virtuoso",
	86:  "Prism Sage",
	100: "Living Rainbow",
}

// TitleForLevel returns the title for a given level
func TitleForLevel(level int) string {
	title := LevelTitles[1]

	keys := make([]int, 0, len(LevelTitles))
	for lvl := range LevelTitles {
		keys = append(keys, lvl)
	}
	sort.Ints(keys)

	// Highest key that is <= level
	for _, lvl := range keys {
		if level < lvl {
			break
		}
		title = LevelTitles[lvl]
	}

	return title
}

// XPForLevel returns the total XP needed to reach level.
// Uses an exponential curve: XP = 100 * (level^1.5)
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return int(100 * math.Pow(float64(level), 1.5))
}

// XPForNextLevel returns XP needed to reach the next level from current
func XPForNextLevel(currentLevel int) int {
	return XPForLevel(currentLevel+1) - XPForLevel(currentLevel)
}

// LevelFromTotalXP calculates level from total XP
func LevelFromTotalXP(totalXP int) int {
	level := 1
	for level < MaxLevel && XPForLevel(level+1) <= totalXP {
		level++
	}
	return level
}

// XPProgressInLevel returns progress towards the next level (0.0 to 1.0)
func XPProgressInLevel(totalXP int, currentLevel int) float64 {
	if currentLevel >= MaxLevel {
		return 1.0
	}
	currentLevelXP := XPForLevel(currentLevel)
	xpNeeded := XPForLevel(currentLevel+1) - currentLevelXP
	if xpNeeded <= 0 {
		return 1.0
	}
	return float64(totalXP-currentLevelXP) / float64(xpNeeded)
}

// LevelUpInfo describes a level change caused by an XP award
type LevelUpInfo struct {
	OldLevel int
	NewLevel int
	OldTitle string
	NewTitle string
	XPToNext int
}

// CheckLevelUp returns level-up info, or nil if the level did not change
func CheckLevelUp(oldTotalXP, newTotalXP int) *LevelUpInfo {
	oldLevel := LevelFromTotalXP(oldTotalXP)
	newLevel := LevelFromTotalXP(newTotalXP)

	if newLevel <= oldLevel {
		return nil
	}

	return &LevelUpInfo{
		OldLevel: oldLevel,
		NewLevel: newLevel,
		OldTitle: TitleForLevel(oldLevel),
		NewTitle: TitleForLevel(newLevel),
		XPToNext: XPForNextLevel(newLevel),
	}
}

// daysBetween counts calendar days from one date to another. Walking the
// calendar keeps DST days (23h and 25h) counted as one.
func daysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, from.Location())

	days := 0
	for d := fromDay; d.Before(toDay); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// NextPlayStreak returns the daily play streak after playing at now
func NextPlayStreak(current int, lastPlayed, now time.Time) int {
	if lastPlayed.IsZero() {
		return 1
	}

	switch daysBetween(lastPlayed, now) {
	case 0:
		if current < 1 {
			return 1
		}
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}
