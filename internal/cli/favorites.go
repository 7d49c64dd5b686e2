package cli

import (
	"context"
	"fmt"

	"github.com/existflow/edugo/internal/favorites"
	"github.com/spf13/cobra"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "List favorite courses",
	RunE:    runFavoritesList,
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <course-id>",
	Short: "Add or remove a course from favorites",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesToggle,
}

func init() {
	favoritesCmd.AddCommand(favoritesToggleCmd)
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if _, err := a.requireSession(); err != nil {
			return err
		}

		courses, err := a.accounts.Favorites(ctx)
		if err != nil {
			return fmt.Errorf("failed to list favorites: %s", describeError(err))
		}
		if len(courses) == 0 {
			fmt.Println("No favorites yet. Add one with: edugo favorites toggle <course-id>")
			return nil
		}
		printCourses(courses)
		return nil
	})
}

func runFavoritesToggle(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		sess, err := a.requireSession()
		if err != nil {
			return err
		}

		t := favorites.New(a.gw, args[0])
		t.Load(ctx, sess)

		var failed error
		t.OnRollback(func(_ bool, err error) {
			failed = err
		})

		now, err := t.Toggle(ctx, sess)
		if err != nil {
			return err
		}
		t.Wait()

		if failed != nil {
			return fmt.Errorf("failed to update favorite: %s", describeError(failed))
		}
		if now {
			fmt.Println("❤️  Added to favorites.")
		} else {
			fmt.Println("🤍 Removed from favorites.")
		}
		return nil
	})
}
