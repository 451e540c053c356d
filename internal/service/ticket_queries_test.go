package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func ids(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

// createAt opens a ticket with a fixed opened-at so list order is deterministic.
func (f *fixture) createAt(t *testing.T, id *domain.Identity, at time.Time) *domain.Ticket {
	t.Helper()
	f.svc.now = frozenClock(at)
	defer func() { f.svc.now = time.Now }()
	return f.create(t, id)
}

func TestListScopesByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	first := f.createAt(t, f.requester, base)
	second := f.createAt(t, f.other, base.Add(time.Minute))
	third := f.createAt(t, f.requester, base.Add(2*time.Minute))

	all, err := f.svc.List(ctx, f.technician, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(all))

	own, err := f.svc.List(ctx, f.requester, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, first.ID}, ids(own))

	paged, err := f.svc.List(ctx, f.technician, Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, ids(paged))

	_, err = f.svc.List(ctx, nil, Page{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestDetailAndTimeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.create(t, f.requester)
	_, err := f.svc.Accept(ctx, f.technician, ticket.ID)
	require.NoError(t, err)
	_, _, err = f.svc.AddComment(ctx, f.technician, ticket.ID, "first")
	require.NoError(t, err)
	_, _, err = f.svc.AddComment(ctx, f.technician, ticket.ID, "second")
	require.NoError(t, err)

	detail, err := f.svc.Detail(ctx, f.requester, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, detail.Ticket.ID)
	require.Len(t, detail.Comments, 2)
	assert.Equal(t, "first", detail.Comments[0].Body)
	assert.Empty(t, detail.Attachments)
	assert.Nil(t, detail.Evaluation)
	require.Len(t, detail.Timeline, 4)
	assert.Equal(t, domain.ActionCommented, detail.Timeline[0].ActionType)
	assert.Equal(t, domain.ActionCreated, detail.Timeline[3].ActionType)

	timeline, err := f.svc.Timeline(ctx, f.second, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, timeline, 4)

	_, err = f.svc.Detail(ctx, f.other, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.svc.Timeline(ctx, f.requester, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestHistoryListsClosedTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	firstResolved := f.resolved(t, f.requester)
	secondResolved := f.resolved(t, f.other)
	f.create(t, f.requester)

	_, _, err := f.svc.Evaluate(ctx, f.requester, firstResolved.ID, 5, "")
	require.NoError(t, err)
	_, _, err = f.svc.Evaluate(ctx, f.other, secondResolved.ID, 3, "")
	require.NoError(t, err)

	all, err := f.svc.History(ctx, f.technician, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{secondResolved.ID, firstResolved.ID}, ids(all))

	own, err := f.svc.History(ctx, f.requester, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{firstResolved.ID}, ids(own))
}

func TestDashboards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	older := f.createAt(t, f.requester, base)
	newer := f.createAt(t, f.other, base.Add(time.Minute))
	mine := f.createAt(t, f.requester, base.Add(2*time.Minute))
	done := f.createAt(t, f.requester, base.Add(3*time.Minute))

	_, err := f.svc.Accept(ctx, f.technician, mine.ID)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, f.technician, done.ID)
	require.NoError(t, err)
	_, err = f.svc.Resolve(ctx, f.technician, done.ID)
	require.NoError(t, err)
	_, _, err = f.svc.Evaluate(ctx, f.requester, done.ID, 4, "")
	require.NoError(t, err)

	board, err := f.svc.TechnicianDashboard(ctx, f.technician)
	require.NoError(t, err)
	assert.Equal(t, []string{older.ID, newer.ID}, ids(board.Queue))
	assert.Equal(t, []string{mine.ID}, ids(board.Mine))

	other, err := f.svc.TechnicianDashboard(ctx, f.second)
	require.NoError(t, err)
	assert.Empty(t, other.Mine)

	_, err = f.svc.TechnicianDashboard(ctx, f.requester)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	user, err := f.svc.UserDashboard(ctx, f.requester)
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ID, older.ID}, ids(user))
}
