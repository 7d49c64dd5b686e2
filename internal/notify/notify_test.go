package notify

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/existflow/edugo/internal/db"
	"github.com/existflow/edugo/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{ calls int }

func (f *failing) Notify(context.Context, Notice) error {
	f.calls++
	return errors.New("nope")
}

func TestNoticeText(t *testing.T) {
	n := NoticeFor(model.Course{ID: "c1", Title: "Intro to Go", Price: decimal.NewFromInt(10)})
	assert.Equal(t, "You paid $10.00 for the course: Intro to Go", n.Body())
	assert.NotEmpty(t, n.Title())
}

func TestReceiptNotifierRecordsAndPrints(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "edugo.db"))
	require.NoError(t, err)
	defer database.Close()

	var out bytes.Buffer
	rn := NewReceiptNotifier(database, &out)
	n := Notice{CourseID: "c1", CourseTitle: "Intro to Go", Price: decimal.RequireFromString("9.5")}

	<-Fire(rn, n)

	receipts, err := database.ListReceipts(context.Background())
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "9.50", receipts[0].Price)
	assert.Contains(t, out.String(), "Intro to Go")
}

func TestMultiDeliversToAll(t *testing.T) {
	f1, f2 := &failing{}, &failing{}
	err := Multi{f1, LogNotifier{}, f2}.Notify(context.Background(), Notice{})
	assert.Error(t, err)
	assert.Equal(t, 1, f1.calls)
	assert.Equal(t, 1, f2.calls)
}

func TestFireSwallowsErrors(t *testing.T) {
	f := &failing{}
	<-Fire(f, Notice{CourseID: "c1"})
	assert.Equal(t, 1, f.calls)
}
