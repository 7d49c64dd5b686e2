package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/existflow/edugo/internal/course"
	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:     "mine",
	Aliases: []string{"library"},
	Short:   "List the courses you bought",
	RunE:    runMine,
}

var playCmd = &cobra.Command{
	Use:   "play <course-id>",
	Short: "Show the video and attachments of a course task",
	Long: `Show the content of an enrolled course. The first task is shown
unless --task is given.

Examples:
  edugo play 5f0c...
  edugo play 5f0c... --task 77b2...`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

var receiptsCmd = &cobra.Command{
	Use:   "receipts",
	Short: "List purchase receipts recorded on this device",
	RunE:  runReceipts,
}

var playTask string

func init() {
	playCmd.Flags().StringVarP(&playTask, "task", "t", "", "Task ID to show")
}

func runMine(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if _, err := a.requireSession(); err != nil {
			return err
		}

		courses, err := a.accounts.MyCourses(ctx)
		if err != nil {
			return fmt.Errorf("failed to list your courses: %s", describeError(err))
		}
		if len(courses) == 0 {
			fmt.Println("You have not bought any course yet. Browse with: edugo courses")
			return nil
		}
		printCourses(courses)
		return nil
	})
}

func runPlay(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		sess, err := a.requireSession()
		if err != nil {
			return err
		}

		player, err := course.OpenPlayer(ctx, a.gw, sess, args[0])
		if errors.Is(err, course.ErrNotEnrolled) {
			return fmt.Errorf("%w, buy it with: edugo buy %s", err, args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to open course: %s", describeError(err))
		}

		if playTask != "" {
			if err := player.Select(playTask); err != nil {
				return fmt.Errorf("task %s: %w", playTask, err)
			}
		}

		task, ok := player.Selected()
		if !ok {
			fmt.Println("This course has no content yet.")
			return nil
		}

		fmt.Printf("▶️  %s / %s\n", player.Course().Title, task.Title)
		fmt.Println(strings.Repeat("─", 60))
		if task.Instructions != "" {
			fmt.Printf("%s\n\n", task.Instructions)
		}

		if url, ok := player.VideoURL(); ok {
			fmt.Printf("🎬 Video: %s\n", url)
		} else {
			fmt.Println("🎬 No video for this task.")
		}

		for _, r := range player.Attachments() {
			fmt.Printf("📎 %s: %s\n", r.Label(), r.Target())
		}
		return nil
	})
}

func runReceipts(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		receipts, err := a.db.ListReceipts(ctx)
		if err != nil {
			return err
		}
		if len(receipts) == 0 {
			fmt.Println("No purchases recorded on this device.")
			return nil
		}

		for _, r := range receipts {
			fmt.Printf("🧾 %s  %-40s  $%s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(r.CourseTitle, 40), r.Price)
		}
		return nil
	})
}
