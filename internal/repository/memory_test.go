package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazardwatch/ticket-engine/internal/domain"
)

func seededStore(t *testing.T) (*MemoryStore, *domain.Ticket) {
	t.Helper()
	store := NewMemoryStore()
	store.SetClock(func() time.Time {
		return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	})

	ticket := &domain.Ticket{
		ExternalKey: "HZT-TEST0001",
		Title:       "Flooded underpass",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityHigh,
		ReporterID:  "rep-1",
	}
	require.NoError(t, store.Tickets().Create(context.Background(), ticket))
	return store, ticket
}

func TestMemoryTicketsVersionCheck(t *testing.T) {
	store, ticket := seededStore(t)
	ctx := context.Background()
	repo := store.Tickets()

	assert.Equal(t, int64(1), ticket.Version)

	// Two readers hold the same version; only the first write lands.
	first, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)

	first.Status = domain.TicketStatusInProgress
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Status = domain.TicketStatusAssigned
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, ErrVersionConflict)

	got, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, got.Status)
}

func TestMemoryTicketsUpdateMissing(t *testing.T) {
	store, _ := seededStore(t)
	err := store.Tickets().Update(context.Background(), &domain.Ticket{ID: "missing", Version: 1})
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	_, err = store.Tickets().GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemoryTicketsCloneIsolation(t *testing.T) {
	store, ticket := seededStore(t)
	ctx := context.Background()
	repo := store.Tickets()

	got, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	got.Title = "mutated locally"
	got.Participants = append(got.Participants, domain.Participant{UserID: "x", IsActive: true})

	fresh, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flooded underpass", fresh.Title)
	assert.Empty(t, fresh.Participants)
}

func TestMemoryTicketsListFilters(t *testing.T) {
	store, _ := seededStore(t)
	ctx := context.Background()
	repo := store.Tickets()

	analystID := "ana-1"
	other := &domain.Ticket{
		ExternalKey:       "HZT-TEST0002",
		Title:             "Gas leak",
		Status:            domain.TicketStatusResolved,
		Priority:          domain.TicketPriorityCritical,
		ReporterID:        "rep-2",
		AssignedAnalystID: &analystID,
	}
	require.NoError(t, repo.Create(ctx, other))

	reporter := "rep-1"
	byReporter, err := repo.ListWithFilter(ctx, TicketFilter{ReporterID: &reporter})
	require.NoError(t, err)
	require.Len(t, byReporter, 1)
	assert.Equal(t, "rep-1", byReporter[0].ReporterID)

	byAssignee, err := repo.ListWithFilter(ctx, TicketFilter{AssigneeID: &analystID})
	require.NoError(t, err)
	require.Len(t, byAssignee, 1)
	assert.Equal(t, "Gas leak", byAssignee[0].Title)

	byStatus, err := repo.ListWithFilter(ctx, TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusOpen},
	})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)

	// Resolved tickets leave the monitor's working set.
	unresolved, err := repo.ListUnresolved(ctx)
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, domain.TicketStatusOpen, unresolved[0].Status)
}

func TestMemoryMessagesThreadFilterAndOrder(t *testing.T) {
	store, ticket := seededStore(t)
	ctx := context.Background()
	msgs := store.Messages()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	entries := []domain.Message{
		{TicketID: ticket.ID, Thread: domain.ThreadAll, Content: "first", CreatedAt: base},
		{TicketID: ticket.ID, Thread: domain.ThreadInternal, Content: "second", CreatedAt: base.Add(time.Minute)},
		{TicketID: ticket.ID, Thread: domain.ThreadAll, Content: "third", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range entries {
		require.NoError(t, msgs.Create(ctx, &entries[i]))
	}

	all, err := msgs.ListByTicket(ctx, ticket.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Content)
	assert.Equal(t, "third", all[2].Content)

	filtered, err := msgs.ListByTicket(ctx, ticket.ID, []domain.Thread{domain.ThreadAll})
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, m := range filtered {
		assert.Equal(t, domain.ThreadAll, m.Thread)
	}
}

func TestMemoryUsersLookup(t *testing.T) {
	store, _ := seededStore(t)
	ctx := context.Background()
	users := store.Users()

	user := &domain.User{
		Name:   "Dana",
		Email:  "dana@example.org",
		Role:   domain.RoleAnalyst,
		Status: domain.UserStatusActive,
	}
	require.NoError(t, users.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	byEmail, err := users.GetByEmail(ctx, "DANA@example.org")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = users.GetByEmail(ctx, "nobody@example.org")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
