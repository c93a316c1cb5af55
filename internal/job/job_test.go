package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCanceled.Terminal())
	assert.False(t, Status("processing").Terminal())
}

func TestSettings_BackendString(t *testing.T) {
	s := Settings{
		Printer:     "HP LaserJet",
		ColorMode:   "color",
		Orientation: "portrait",
		PaperSize:   "A4",
	}

	// Order and the trailing comma are part of the backend contract.
	assert.Equal(t, "color,portrait,paper=A4,", s.BackendString())
}

func TestRecord_FieldsRoundTrip(t *testing.T) {
	rec := Record{
		ID:      "j1",
		FileURL: "http://x/a.pdf",
		FileKey: "a",
		Settings: Settings{
			Printer:     "Office-Color",
			ColorMode:   "monochrome",
			Orientation: "landscape",
			PaperSize:   "letter",
		},
		Status:    StatusPending,
		Timestamp: "2026-09-01T10:00:00Z",
	}

	got := FromFields("j1", rec.Fields())
	assert.Equal(t, rec, got)
}

func TestFromFields_MissingFields(t *testing.T) {
	rec := FromFields("j2", map[string]string{
		FieldStatus: "pending",
	})

	assert.Equal(t, "j2", rec.ID)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Empty(t, rec.FileURL)
	assert.Empty(t, rec.Settings.Printer)
}
