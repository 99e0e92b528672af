package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/condo-notify/internal/apperr"
	"github.com/stanstork/condo-notify/internal/models"
)

func newNotification() *models.Notification {
	created := models.NewTimestamp(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return &models.Notification{
		ID:        7,
		Title:     "Vazamento",
		Message:   "Cano vazando na garagem",
		Type:      models.TypeRepairRequest,
		Status:    models.StatusSent,
		CreatedAt: created,
		UpdatedAt: created,
		Recipients: []models.Recipient{
			{UserID: 10, Name: "Ana"},
			{UserID: 11, Name: "Bruno", Read: true},
		},
	}
}

func TestTransitionGraph(t *testing.T) {
	legal := map[models.NotificationStatus][]models.NotificationStatus{
		models.StatusSent:       {models.StatusApproved, models.StatusRejected},
		models.StatusApproved:   {models.StatusInProgress},
		models.StatusInProgress: {models.StatusCompleted},
		models.StatusRejected:   nil,
		models.StatusCompleted:  nil,
	}
	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			expected := false
			for _, l := range legal[from] {
				if l == to {
					expected = true
				}
			}
			assert.Equal(t, expected, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesHaveNoNext(t *testing.T) {
	assert.Empty(t, Next(models.StatusRejected))
	assert.Empty(t, Next(models.StatusCompleted))
	assert.True(t, models.StatusRejected.IsTerminal())
	assert.True(t, models.StatusCompleted.IsTerminal())
}

func TestNextReturnsCopy(t *testing.T) {
	next := Next(models.StatusSent)
	next[0] = models.StatusCompleted
	assert.Equal(t, []models.NotificationStatus{models.StatusApproved, models.StatusRejected}, Next(models.StatusSent))
}

func TestAdvanceFullPath(t *testing.T) {
	n := newNotification()
	at := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	for i, target := range []models.NotificationStatus{models.StatusApproved, models.StatusInProgress, models.StatusCompleted} {
		require.NoError(t, Advance(n, target, at.Add(time.Duration(i)*time.Hour)))
		assert.Equal(t, target, n.Status)
		assert.Len(t, n.History, i+1)
	}

	assert.Equal(t, "Notificação concluída", n.History[2].Action)
	assert.Equal(t, at.Add(2*time.Hour), n.UpdatedAt.Time)
	assert.NoError(t, ValidateHistory(n.History))

	err := Advance(n, models.StatusApproved, at)
	assert.True(t, apperr.IsTransition(err))
	assert.Len(t, n.History, 3)
}

func TestAdvanceRejectsShortcuts(t *testing.T) {
	n := newNotification()
	before := n.UpdatedAt

	err := Advance(n, models.StatusCompleted, time.Now())
	require.Error(t, err)
	assert.True(t, apperr.IsTransition(err))
	assert.Equal(t, models.StatusSent, n.Status)
	assert.Empty(t, n.History)
	assert.Equal(t, before, n.UpdatedAt)

	err = Advance(n, models.StatusInProgress, time.Now())
	assert.True(t, apperr.IsTransition(err))

	require.NoError(t, Advance(n, models.StatusApproved, time.Now()))
	err = Advance(n, models.StatusCompleted, time.Now())
	assert.True(t, apperr.IsTransition(err))
}

func TestAdvanceFromRejectedFails(t *testing.T) {
	n := newNotification()
	require.NoError(t, Advance(n, models.StatusRejected, time.Now()))
	for _, target := range models.AllStatuses {
		assert.Error(t, Advance(n, target, time.Now()))
	}
	assert.Len(t, n.History, 1)
}

func TestAdvanceInvalidTarget(t *testing.T) {
	n := newNotification()
	err := Advance(n, models.NotificationStatus(9), time.Now())
	assert.True(t, apperr.IsValidation(err))
}

func TestAuthorize(t *testing.T) {
	n := newNotification()
	resident := models.Actor{UserID: 10, Role: models.RoleResident}
	outsider := models.Actor{UserID: 99, Role: models.RoleResident}
	manager := models.Actor{UserID: 1, Role: models.RoleManager}
	staff := models.Actor{UserID: 2, Role: models.RoleStaff}

	assert.NoError(t, Authorize(manager, n, models.StatusApproved))
	assert.NoError(t, Authorize(staff, n, models.StatusRejected))
	assert.True(t, apperr.IsForbidden(Authorize(resident, n, models.StatusApproved)))
	assert.True(t, apperr.IsForbidden(Authorize(resident, n, models.StatusRejected)))
	assert.NoError(t, Authorize(resident, n, models.StatusInProgress))
	assert.NoError(t, Authorize(resident, n, models.StatusCompleted))
	assert.True(t, apperr.IsForbidden(Authorize(outsider, n, models.StatusCompleted)))
}

func TestMarkReadIsIdempotent(t *testing.T) {
	n := newNotification()

	changed, err := MarkRead(n, 10)
	require.NoError(t, err)
	assert.True(t, changed)
	once := append([]models.Recipient(nil), n.Recipients...)

	changed, err = MarkRead(n, 10)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, once, n.Recipients)
	assert.Equal(t, 0, n.UnreadCount())
}

func TestMarkReadUnknownRecipient(t *testing.T) {
	n := newNotification()
	_, err := MarkRead(n, 42)
	assert.True(t, apperr.IsNotFound(err))
}

func TestAddCommentPrepends(t *testing.T) {
	var comments []models.Comment
	var err error

	comments, err = AddComment(comments, models.Comment{ID: "a", Text: "primeiro"})
	require.NoError(t, err)
	comments, err = AddComment(comments, models.Comment{ID: "b", Text: "  segundo  "})
	require.NoError(t, err)

	require.Len(t, comments, 2)
	assert.Equal(t, "b", comments[0].ID)
	assert.Equal(t, "segundo", comments[0].Text)
	assert.Equal(t, "a", comments[1].ID)
}

func TestAddCommentRejectsEmpty(t *testing.T) {
	existing := []models.Comment{{ID: "a", Text: "oi"}}
	out, err := AddComment(existing, models.Comment{Text: "   "})
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, existing, out)
}

func TestValidateDraft(t *testing.T) {
	resident := models.Actor{UserID: 5, Role: models.RoleResident}
	manager := models.Actor{UserID: 1, Role: models.RoleManager}

	t.Run("noise complaint needs apartment", func(t *testing.T) {
		d := &models.NotificationDraft{Title: "Barulho", Message: "Festa até 3h", Type: models.TypeNoiseComplaint}
		assert.True(t, apperr.IsValidation(ValidateDraft(resident, d)))

		d.Apartment = &models.Apartment{Block: "A"}
		assert.True(t, apperr.IsValidation(ValidateDraft(resident, d)))

		d.Apartment = &models.Apartment{Block: " A ", Number: "101"}
		require.NoError(t, ValidateDraft(resident, d))
		assert.Equal(t, "A", d.Apartment.Block)
		assert.Equal(t, 5, d.OriginID)
		assert.False(t, d.CreatedByStaff)
	})

	t.Run("other types drop apartment", func(t *testing.T) {
		d := &models.NotificationDraft{Title: "Ideia", Message: "Horta", Type: models.TypeSuggestion, Apartment: &models.Apartment{Block: "B"}}
		require.NoError(t, ValidateDraft(resident, d))
		assert.Nil(t, d.Apartment)
	})

	t.Run("required fields", func(t *testing.T) {
		assert.True(t, apperr.IsValidation(ValidateDraft(resident, &models.NotificationDraft{Message: "x", Type: models.TypeOther})))
		assert.True(t, apperr.IsValidation(ValidateDraft(resident, &models.NotificationDraft{Title: "x", Message: "  ", Type: models.TypeOther})))
		assert.True(t, apperr.IsValidation(ValidateDraft(resident, &models.NotificationDraft{Title: "x", Message: "y"})))
	})

	t.Run("general notice is staff only", func(t *testing.T) {
		d := &models.NotificationDraft{Title: "Assembleia", Message: "Dia 10", Type: models.TypeGeneralNotice}
		assert.True(t, apperr.IsForbidden(ValidateDraft(resident, d)))
		require.NoError(t, ValidateDraft(manager, d))
		assert.True(t, d.CreatedByStaff)
	})
}

func TestValidateHistory(t *testing.T) {
	at := models.NewTimestamp(time.Now())
	ok := []models.HistoryEntry{
		{NewStatus: models.StatusApproved, At: at},
		{NewStatus: models.StatusInProgress, At: at},
	}
	assert.NoError(t, ValidateHistory(ok))
	assert.NoError(t, ValidateHistory(nil))

	bad := []models.HistoryEntry{
		{NewStatus: models.StatusRejected, At: at},
		{NewStatus: models.StatusInProgress, At: at},
	}
	assert.True(t, apperr.IsTransition(ValidateHistory(bad)))
}
