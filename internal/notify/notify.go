// Package notify delivers purchase notices. Delivery is fire-and-forget.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/existflow/edugo/internal/db"
	"github.com/existflow/edugo/internal/logger"
	"github.com/existflow/edugo/internal/model"
	"github.com/shopspring/decimal"
)

// Notice describes a completed purchase
type Notice struct {
	CourseID    string
	CourseTitle string
	Price       decimal.Decimal
}

// NoticeFor builds the notice for a purchased course
func NoticeFor(c model.Course) Notice {
	return Notice{CourseID: c.ID, CourseTitle: c.Title, Price: c.Price}
}

// Title is the notice headline
func (n Notice) Title() string {
	return "Purchase successful!"
}

// Body is the notice text, with the price to two decimals
func (n Notice) Body() string {
	return fmt.Sprintf("You paid $%s for the course: %s", n.Price.StringFixed(2), n.CourseTitle)
}

// Notifier delivers a notice
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// LogNotifier writes notices to the log
type LogNotifier struct{}

// Notify logs the notice
func (LogNotifier) Notify(_ context.Context, n Notice) error {
	logger.Info(n.Title(), logger.F("course", n.CourseID), logger.F("price", n.Price.StringFixed(2)))
	return nil
}

// ReceiptNotifier records each notice as a local receipt and prints it
type ReceiptNotifier struct {
	db  *db.DB
	out io.Writer
	mu  sync.Mutex
}

// NewReceiptNotifier creates a notifier over the local database. out may be nil.
func NewReceiptNotifier(database *db.DB, out io.Writer) *ReceiptNotifier {
	return &ReceiptNotifier{db: database, out: out}
}

// Notify stores and prints the notice
func (r *ReceiptNotifier) Notify(ctx context.Context, n Notice) error {
	if _, err := r.db.AddReceipt(ctx, n.CourseID, n.CourseTitle, n.Price.StringFixed(2)); err != nil {
		return fmt.Errorf("failed to record receipt: %w", err)
	}

	if r.out != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		_, _ = fmt.Fprintf(r.out, "🔔 %s\n   %s\n", n.Title(), n.Body())
	}
	return nil
}

// Multi fans a notice out to several notifiers, returning the first error
type Multi []Notifier

// Notify delivers to every notifier
func (m Multi) Notify(ctx context.Context, n Notice) error {
	var first error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Fire delivers n in the background. Failures are logged, never returned.
// The returned channel closes when delivery finishes.
func Fire(nt Notifier, n Notice) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := nt.Notify(ctx, n); err != nil {
			logger.Warn("Purchase notice not delivered", logger.F("course", n.CourseID), logger.F("error", err))
		}
	}()
	return done
}
