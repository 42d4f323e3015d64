package presentation

import (
	"fmt"
	"strings"
	"time"

	"github.com/atinylittleshell/matchcolor/internal/achievements"
	"github.com/atinylittleshell/matchcolor/internal/powerups"
	"github.com/atinylittleshell/matchcolor/internal/profile"
	"github.com/dustin/go-humanize"
)

// AchievementView is the read side of the achievement tracker
type AchievementView interface {
	ByCategory(category achievements.Category) []achievements.Definition
	IsUnlocked(id string) bool
	ProgressPercent(id string) float64
	Totals() achievements.Totals
}

var categoryNames = map[achievements.Category]string{
	achievements.CategoryScore:      "🏆 SCORE",
	achievements.CategoryStreak:     "🔥 STREAK",
	achievements.CategoryLevel:      "📈 LEVEL",
	achievements.CategoryMode:       "🎮 MODES",
	achievements.CategorySpeed:      "⚡ SPEED",
	achievements.CategorySpecial:    "🎪 SPECIAL",
	achievements.CategoryCollection: "📚 COLLECTION",
}

// RenderAchievements lists achievements grouped by category. An empty
// category lists all of them. Secret achievements stay hidden until
// unlocked unless showSecret is set.
func (t *Terminal) RenderAchievements(view AchievementView, only achievements.Category, showSecret bool) string {
	var sb strings.Builder

	totals := view.Totals()
	sb.WriteString(t.styles.heading.Render("ACHIEVEMENTS"))
	sb.WriteString(fmt.Sprintf("  %d / %d unlocked (%.0f%%)\n\n", totals.Unlocked, totals.Total, totals.Percent))

	nameWidth := 22
	descWidth := t.width - nameWidth - 20
	if descWidth < 10 {
		descWidth = 10
	}

	for _, category := range achievements.Categories {
		if only != "" && category != only {
			continue
		}
		defs := view.ByCategory(category)
		if len(defs) == 0 {
			continue
		}

		unlocked := 0
		for _, def := range defs {
			if view.IsUnlocked(def.ID) {
				unlocked++
			}
		}
		sb.WriteString(fmt.Sprintf("%s (%d/%d)\n", categoryNames[category], unlocked, len(defs)))

		for _, def := range defs {
			done := view.IsUnlocked(def.ID)
			if def.Secret && !done && !showSecret {
				sb.WriteString(t.styles.locked.Render(fmt.Sprintf("│ 🔒 %s", padRight("???", nameWidth))))
				sb.WriteString("\n")
				continue
			}

			name := padRight(fmt.Sprintf("%s %s", def.Icon, truncate(def.Name, nameWidth-3)), nameWidth)
			desc := padRight(truncate(def.Description, descWidth), descWidth)
			if done {
				sb.WriteString(fmt.Sprintf("│ ✨ %s %s %s\n", name, desc, t.styles.done.Render("UNLOCKED")))
				continue
			}
			pct := view.ProgressPercent(def.ID)
			sb.WriteString(fmt.Sprintf("│ ⏳ %s %s %s %3.0f%%\n", name, desc, renderProgressBar(pct/100, 10), pct))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderPowerUps lists the power-up catalog with prices and what is running
func (t *Terminal) RenderPowerUps(defs []powerups.Definition, coins int64, active []powerups.ActivePowerUp, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(t.styles.heading.Render("POWER-UPS"))
	sb.WriteString(fmt.Sprintf("  balance: %s coins\n\n", humanize.Comma(coins)))

	running := make(map[string]powerups.ActivePowerUp, len(active))
	for _, a := range active {
		running[a.ID] = a
	}

	for _, def := range defs {
		affordable := "  "
		if coins >= def.Cost {
			affordable = "💰"
		}
		name := padRight(fmt.Sprintf("%s %s", def.Icon, def.Name), 22)
		sb.WriteString(fmt.Sprintf("%s %s %s %6s  %s\n",
			affordable,
			t.styles.rarity(def.Rarity).Render(name),
			padRight(string(def.Rarity), 10),
			humanize.Comma(def.Cost),
			truncate(def.Description, max(t.width-46, 10))))

		if a, ok := running[def.ID]; ok {
			sb.WriteString(t.styles.hint.Render("     ↳ " + activeStatus(a, now)))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func activeStatus(a powerups.ActivePowerUp, now time.Time) string {
	if a.RemainingUses > 0 {
		return fmt.Sprintf("active, %d uses left", a.RemainingUses)
	}
	if !a.ExpiresAt.IsZero() {
		return fmt.Sprintf("active, %s left", formatSeconds(a.ExpiresAt.Sub(now).Seconds()))
	}
	return "active"
}

// RenderStatus summarizes the player profile, wallet and progress
func (t *Terminal) RenderStatus(stats profile.Stats, coins int64, totals achievements.Totals, active []powerups.ActivePowerUp, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(t.styles.heading.Render(fmt.Sprintf("LEVEL %d  %s", stats.Level, stats.Title)))
	sb.WriteString("\n")

	xpCurrent := stats.TotalXP - profile.XPForLevel(stats.Level)
	xpNeeded := profile.XPForNextLevel(stats.Level)
	if stats.Level >= profile.MaxLevel {
		xpNeeded = 0
	}
	sb.WriteString(fmt.Sprintf("%s %.1f%%  ⭐ %s / %s XP\n",
		renderProgressBar(stats.LevelProgress, 30),
		stats.LevelProgress*100,
		humanize.Comma(int64(xpCurrent)),
		humanize.Comma(int64(xpNeeded))))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("├── Coins: %s (%s earned)\n", humanize.Comma(coins), humanize.Comma(stats.CoinsEarned)))
	sb.WriteString(fmt.Sprintf("├── Achievements: %d / %d\n", totals.Unlocked, totals.Total))
	sb.WriteString(fmt.Sprintf("├── Games played: %s\n", humanize.Comma(int64(stats.GamesPlayed))))
	if stats.PlayStreak > 1 {
		sb.WriteString(fmt.Sprintf("├── Play streak: 🔥 %d days\n", stats.PlayStreak))
	}
	if !stats.LastPlayed.IsZero() {
		sb.WriteString(fmt.Sprintf("├── Last played: %s\n", humanize.RelTime(stats.LastPlayed, now, "ago", "from now")))
	}

	if len(active) == 0 {
		sb.WriteString("└── Active power-ups: none\n")
		return sb.String()
	}
	sb.WriteString("└── Active power-ups:\n")
	for i, a := range active {
		branch := "├──"
		if i == len(active)-1 {
			branch = "└──"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s (%s)\n", branch, a.Icon, a.Name, activeStatus(a, now)))
	}

	return sb.String()
}

// RenderSession shows the session fields power-ups act on
func (t *Terminal) RenderSession(st powerups.State) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("⏱  time %s", formatSeconds(st.TimeRemaining)))
	if st.TimerFrozen {
		sb.WriteString(" (frozen)")
	}
	sb.WriteString(fmt.Sprintf("   ❤️  lives %d   score x%.2f   combo x%.2f\n", st.Lives, st.ScoreMultiplier, st.ComboMultiplier))

	guards := make([]string, 0, 3)
	if st.ShieldActive {
		guards = append(guards, fmt.Sprintf("🛡️  shield %d", st.ShieldCount))
	}
	if st.SecondChanceActive {
		guards = append(guards, fmt.Sprintf("🔄 second chance %d", st.SecondChanceCount))
	}
	if st.LuckyStreakActive {
		guards = append(guards, fmt.Sprintf("🍀 lucky streak %d", st.LuckyStreakCount))
	}
	if len(guards) > 0 {
		sb.WriteString(strings.Join(guards, "   "))
		sb.WriteString("\n")
	}

	return sb.String()
}
