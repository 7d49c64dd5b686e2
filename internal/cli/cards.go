package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/existflow/edugo/internal/validate"
	"github.com/spf13/cobra"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Manage simulated payment cards",
	RunE:  runCardsList,
}

var cardsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a simulated card",
	Long: `Add a simulated card. Every new card starts with a $500.00 balance.

Missing values are prompted for.`,
	RunE: runCardsAdd,
}

var cardsRemoveCmd = &cobra.Command{
	Use:     "rm <card-id>",
	Aliases: []string{"delete"},
	Short:   "Remove a card",
	Args:    cobra.ExactArgs(1),
	RunE:    runCardsRemove,
}

var cardInput validate.CardInput

func init() {
	cardsCmd.AddCommand(cardsAddCmd)
	cardsCmd.AddCommand(cardsRemoveCmd)

	cardsAddCmd.Flags().StringVar(&cardInput.Number, "number", "", "Card number (16 digits)")
	cardsAddCmd.Flags().StringVar(&cardInput.Holder, "holder", "", "Card holder name")
	cardsAddCmd.Flags().StringVar(&cardInput.Expiry, "expiry", "", "Expiry date (MM/YY)")
}

func runCardsList(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if _, err := a.requireSession(); err != nil {
			return err
		}

		cards, err := a.accounts.Cards(ctx)
		if err != nil {
			return fmt.Errorf("failed to list cards: %s", describeError(err))
		}
		if len(cards) == 0 {
			fmt.Println("No cards found. Add one with: edugo cards add")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %-20s  %-6s  %10s\n", "ID", "CARD", "HOLDER", "EXP", "BALANCE")
		fmt.Println(strings.Repeat("─", 100))
		for _, c := range cards {
			fmt.Printf("%-36s  %-20s  %-20s  %-6s  %10s\n",
				c.ID, c.Masked(), truncate(c.Holder, 20), c.Expiry, "$"+c.Balance.StringFixed(2))
		}
		return nil
	})
}

func runCardsAdd(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if _, err := a.requireSession(); err != nil {
			return err
		}

		reader := bufio.NewReader(os.Stdin)
		in := cardInput
		if in.Number == "" {
			in.Number = prompt(reader, "Card number: ")
		}
		if in.Holder == "" {
			in.Holder = prompt(reader, "Holder: ")
		}
		if in.Expiry == "" {
			in.Expiry = prompt(reader, "Expiry (MM/YY): ")
		}
		in.CVV = promptPassword("CVV: ")

		if err := a.accounts.AddCard(ctx, in); err != nil {
			return fmt.Errorf("failed to add card: %s", describeError(err))
		}

		fmt.Println("✅ Card added.")
		return nil
	})
}

func runCardsRemove(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if _, err := a.requireSession(); err != nil {
			return err
		}
		if err := a.accounts.DeleteCard(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to remove card: %s", describeError(err))
		}
		fmt.Println("🗑️  Card removed.")
		return nil
	})
}
