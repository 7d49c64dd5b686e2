package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/existflow/edugo/internal/checkout"
	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/notify"
	"github.com/spf13/cobra"
)

var buyCmd = &cobra.Command{
	Use:   "buy <course-id>",
	Short: "Buy a course with one of your simulated cards",
	Long: `Buy a course. The first card is used unless --card is given.

Examples:
  edugo buy 5f0c...
  edugo buy 5f0c... --card 9a1e...`,
	Args: cobra.ExactArgs(1),
	RunE: runBuy,
}

var buyCard string

func init() {
	buyCmd.Flags().StringVar(&buyCard, "card", "", "Card ID to pay with")
}

func runBuy(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		sess, err := a.requireSession()
		if err != nil {
			return err
		}

		orch := checkout.New(a.gw)
		fmt.Println("🔄 Loading checkout...")
		if err := orch.Load(ctx, sess, args[0]); err != nil {
			return fmt.Errorf("failed to load checkout: %s", describeError(err))
		}

		state := orch.Snapshot()
		if len(state.Cards) == 0 {
			fmt.Println("No cards on file. Add one with: edugo cards add")
			return nil
		}
		if buyCard != "" {
			if err := orch.SelectCard(buyCard); err != nil {
				return fmt.Errorf("card %s: %w", buyCard, err)
			}
			state = orch.Snapshot()
		}

		fmt.Printf("📘 %s  $%s\n", state.Course.Title, state.Course.Price.StringFixed(2))
		fmt.Printf("💳 %s  (balance $%s)\n", state.Selected.Masked(), state.Selected.Balance.StringFixed(2))

		var delivered <-chan struct{}
		err = orch.Purchase(ctx, sess, func(c model.Course) {
			delivered = notify.Fire(a.notifier, notify.NoticeFor(c))
		})
		switch {
		case errors.Is(err, checkout.ErrInsufficientFunds):
			fmt.Println("❌ Insufficient balance on this card. Pick another with --card.")
			return nil
		case err != nil:
			return fmt.Errorf("purchase failed: %s", describeError(err))
		}

		fmt.Println("✅ Purchase complete! Start learning with: edugo play " + state.Course.ID)
		if delivered != nil {
			<-delivered
		}
		return nil
	})
}
