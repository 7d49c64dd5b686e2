package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/existflow/edugo/internal/catalog"
	"github.com/existflow/edugo/internal/course"
	"github.com/existflow/edugo/internal/gateway"
	"github.com/existflow/edugo/internal/model"
	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:     "courses",
	Aliases: []string{"ls", "list"},
	Short:   "List catalog courses",
	Long: `List the course catalog, optionally filtered by title and category.

Examples:
  edugo courses
  edugo courses --search go
  edugo courses --category "Artes y diseño"`,
	RunE: runCourses,
}

var coursesShowCmd = &cobra.Command{
	Use:   "show <course-id>",
	Short: "Show a course with its sections and tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoursesShow,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List catalog categories",
	RunE:  runCategories,
}

var (
	coursesSearch   string
	coursesCategory string
)

func init() {
	coursesCmd.Flags().StringVarP(&coursesSearch, "search", "s", "", "Filter by title (case-insensitive)")
	coursesCmd.Flags().StringVarP(&coursesCategory, "category", "c", model.AllCategories, "Filter by category")

	coursesCmd.AddCommand(coursesShowCmd)
	coursesCmd.AddCommand(categoriesCmd)
}

func loadCatalog(ctx context.Context, a *app) (*catalog.Catalog, error) {
	sess, err := a.requireSession()
	if err != nil {
		return nil, err
	}

	c := catalog.New(a.gw)
	if _, err := c.Refresh(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %s", describeError(err))
	}
	return c, nil
}

func runCourses(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		c, err := loadCatalog(ctx, a)
		if err != nil {
			return err
		}

		c.SetSearch(coursesSearch)
		c.SetCategory(coursesCategory)
		courses := c.Visible()

		if len(courses) == 0 {
			fmt.Println("No courses found.")
			return nil
		}

		printCourses(courses)
		return nil
	})
}

func printCourses(courses []model.Course) {
	fmt.Printf("%-36s  %-28s  %-18s  %10s\n", "ID", "TITLE", "CATEGORY", "PRICE")
	fmt.Println(strings.Repeat("─", 98))
	for _, c := range courses {
		fmt.Printf("%-36s  %-28s  %-18s  %10s\n",
			c.ID, truncate(c.Title, 28), truncate(c.Category, 18), "$"+c.Price.StringFixed(2))
	}
	fmt.Printf("\n%d course(s)\n", len(courses))
}

func runCategories(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		c, err := loadCatalog(ctx, a)
		if err != nil {
			return err
		}
		for _, name := range c.Categories() {
			fmt.Println(name)
		}
		return nil
	})
}

func runCoursesShow(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		sess, err := a.requireSession()
		if err != nil {
			return err
		}

		d, err := course.LoadDetail(ctx, a.gw, sess, args[0])
		if errors.Is(err, gateway.ErrNotFound) {
			return fmt.Errorf("course %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to load course: %s", describeError(err))
		}

		c := d.Course
		fmt.Printf("📘 %s\n", c.Title)
		fmt.Println(strings.Repeat("─", 60))
		fmt.Printf("Category:   %s\n", c.Category)
		fmt.Printf("Price:      $%s\n", c.Price.StringFixed(2))
		fmt.Printf("Instructor: %s\n", c.AuthorName())
		if c.Description != "" {
			fmt.Printf("\n%s\n", c.Description)
		}

		status := "not enrolled, buy with: edugo buy " + c.ID
		if d.Enrolled {
			status = "✅ enrolled, play with: edugo play " + c.ID
		}
		fmt.Printf("\nStatus:     %s\n", status)
		if d.Favorite {
			fmt.Println("Favorite:   ❤️")
		}

		if len(c.Sections) > 0 {
			fmt.Println()
			for _, s := range c.Sections {
				fmt.Printf("📂 %s\n", s.Name)
				for _, t := range s.Tasks {
					fmt.Printf("   • %s  (%s)\n", t.Title, t.ID)
				}
			}
		}
		return nil
	})
}

// truncate shortens s to n runes with an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
