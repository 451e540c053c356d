package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/sqlite"
)

var testPolicyConfig = config.HelpdeskConfig{
	TechnicianGroup:        "CPD",
	CommentLogGroup:        "CPD",
	PrivilegedGroups:       []string{"Diretoria"},
	CriticalCategories:     []string{"Parada Geral"},
	PendingEvaluationLimit: 3,
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store      repository.Store
	svc        *TicketService
	recorder   *recorder
	requester  *domain.Identity
	other      *domain.Identity
	technician *domain.Identity
	second     *domain.Identity
	sub        *domain.Subcategory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := sqlite.NewTestStore(t)
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorder{}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, rec.handle)
	}
	svc := NewTicketService(TicketDependencies{
		Store:      store,
		Policy:     lifecycle.NewPolicy(testPolicyConfig),
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(prometheus.NewRegistry()),
	})
	f := &fixture{store: store, svc: svc, recorder: rec}
	f.requester = newIdentity(t, store, "rita")
	f.other = newIdentity(t, store, "otto")
	f.technician = newIdentity(t, store, "tiago", "CPD")
	f.second = newIdentity(t, store, "tania", "CPD")
	f.sub = newSubcategory(t, store, "Hardware", "Impressora")
	return f
}

func newIdentity(t *testing.T, store repository.Store, username string, groups ...string) *domain.Identity {
	t.Helper()
	ctx := context.Background()
	repos := store.Repos()
	user := &domain.User{Username: username, Name: username, Source: domain.UserSourceLocal, Active: true}
	require.NoError(t, repos.Users.Upsert(ctx, user))
	require.NoError(t, repos.Users.ReplaceGroups(ctx, user.ID, groups))
	if groups == nil {
		groups = []string{}
	}
	return &domain.Identity{User: user, Groups: groups}
}

func newSubcategory(t *testing.T, store repository.Store, category, name string) *domain.Subcategory {
	t.Helper()
	ctx := context.Background()
	repos := store.Repos()
	cat, _, err := repos.Categories.UpsertCategory(ctx, category)
	require.NoError(t, err)
	sub, _, err := repos.Categories.UpsertSubcategory(ctx, cat.ID, name)
	require.NoError(t, err)
	return sub
}

func (f *fixture) create(t *testing.T, id *domain.Identity) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.Create(context.Background(), id, TicketCreateInput{SubcategoryID: f.sub.ID, Note: "printer jammed"})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) resolved(t *testing.T, id *domain.Identity) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	ticket := f.create(t, id)
	_, err := f.svc.Accept(ctx, f.technician, ticket.ID)
	require.NoError(t, err)
	ticket, err = f.svc.Resolve(ctx, f.technician, ticket.ID)
	require.NoError(t, err)
	return ticket
}

func (f *fixture) logTypes(t *testing.T, ticketID string) []domain.ActionType {
	t.Helper()
	entries, err := f.store.Repos().ActionLogs.ListByTicket(context.Background(), ticketID)
	require.NoError(t, err)
	out := make([]domain.ActionType, 0, len(entries))
	// oldest first reads better in assertions
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i].ActionType)
	}
	return out
}

func frozenClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
