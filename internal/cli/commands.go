package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/atinylittleshell/matchcolor/internal/achievements"
	"github.com/atinylittleshell/matchcolor/internal/game"
	"github.com/atinylittleshell/matchcolor/internal/powerups"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show level, coins and achievement totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := app.Player
			fmt.Fprint(cmd.OutOrStdout(), app.Terminal.RenderStatus(
				p.Profile.Stats(),
				p.PowerUps.Coins(),
				p.Achievements.Totals(),
				p.PowerUps.Active(),
				p.Clock().Now(),
			))
			return nil
		},
	}
}

func newAchievementsCmd(app *App) *cobra.Command {
	var category string
	var all bool

	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "List achievements and progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			only := achievements.Category(category)
			if category != "" && !lo.Contains(achievements.Categories, only) {
				names := lo.Map(achievements.Categories, func(c achievements.Category, _ int) string {
					return string(c)
				})
				return unknownError("category", category, names)
			}

			fmt.Fprint(cmd.OutOrStdout(), app.Terminal.RenderAchievements(app.Player.Achievements, only, all))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list one category")
	cmd.Flags().BoolVar(&all, "all", false, "Reveal secret achievements")

	return cmd
}

func newPowerUpsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "powerups",
		Aliases: []string{"shop"},
		Short:   "List power-ups, prices and what is running",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := app.Player.PowerUps
			fmt.Fprint(cmd.OutOrStdout(), app.Terminal.RenderPowerUps(
				m.Catalog().ByCost(),
				m.Coins(),
				m.Active(),
				app.Player.Clock().Now(),
			))
			return nil
		},
	}
}

func newCoinsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coins",
		Short: "Show the coin balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s coins\n", humanize.Comma(app.Player.PowerUps.Coins()))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add N",
		Short: "Add coins to the balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("invalid amount %q: must be a positive whole number", args[0])
			}

			m := app.Player.PowerUps
			m.AddCoins(amount)
			fmt.Fprintf(cmd.OutOrStdout(), "%s coins\n", humanize.Comma(m.Coins()))
			return nil
		},
	})

	return cmd
}

func newBuyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "buy ID",
		Short: "Buy a power-up and activate it on a practice session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			m := app.Player.PowerUps
			session := app.Player.NewSession(nil)

			err := m.PurchaseAndActivate(id, session)
			switch {
			case errors.Is(err, powerups.ErrUnknownPowerUp):
				return unknownError("power-up", id, m.Catalog().IDs())
			case errors.Is(err, powerups.ErrInsufficientFunds):
				def, _ := m.Definition(id)
				return fmt.Errorf("%s costs %d coins, you have %d", def.Name, def.Cost, m.Coins())
			case err != nil:
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), app.Terminal.RenderSession(session.Snapshot()))
			return nil
		},
	}
}

func newPlayCmd(app *App) *cobra.Command {
	var result game.GameResult

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Record a finished game and show what it unlocked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if result.Lives < 0 {
				return fmt.Errorf("invalid lives %d", result.Lives)
			}

			app.Terminal.SetTitle("matchcolor: " + result.Mode)
			app.Player.FinishGame(result)
			if app.Player.FlushNotifications() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No new achievements.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&result.Mode, "mode", "classic", "Game mode")
	cmd.Flags().Float64Var(&result.Score, "score", 0, "Final score")
	cmd.Flags().Float64Var(&result.Streak, "streak", 0, "Best streak")
	cmd.Flags().Float64Var(&result.Level, "level", 0, "Highest level reached")
	cmd.Flags().IntVar(&result.Lives, "lives", 0, "Lives left at the end")
	cmd.Flags().Float64SliceVar(&result.RoundTimes, "round", nil, "Seconds taken by a cleared round (repeatable)")

	return cmd
}

func newResetCmd(app *App) *cobra.Command {
	var resetAchievements, resetCoins, resetAll bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget saved progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !resetAchievements && !resetCoins && !resetAll {
				return errors.New("nothing to reset: pass --achievements, --coins or --all")
			}

			out := cmd.OutOrStdout()
			if resetAchievements || resetAll {
				app.Player.ResetAchievements()
				fmt.Fprintln(out, "Achievements and profile reset.")
			}
			if resetCoins || resetAll {
				app.Player.ResetCoins()
				fmt.Fprintln(out, "Coins and power-ups reset.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&resetAchievements, "achievements", false, "Reset achievements and the player profile")
	cmd.Flags().BoolVar(&resetCoins, "coins", false, "Reset coins and running power-ups")
	cmd.Flags().BoolVar(&resetAll, "all", false, "Reset everything")

	return cmd
}
