package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hazardwatch/ticket-engine/internal/domain"
)

// MemoryStore is an in-process implementation of the repositories, used when
// no POSTGRES_DSN is configured and by the test suite. It mirrors the
// Postgres semantics exactly, including the version check on ticket updates.
type MemoryStore struct {
	mu       sync.RWMutex
	tickets  map[string]*domain.Ticket
	messages map[string][]domain.Message
	users    map[string]*domain.User
	now      func() time.Time
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets:  make(map[string]*domain.Ticket),
		messages: make(map[string][]domain.Message),
		users:    make(map[string]*domain.User),
		now:      time.Now,
	}
}

// SetClock overrides the store's clock; tests use it to pin timestamps.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

// Tickets returns the store as a TicketRepository.
func (s *MemoryStore) Tickets() TicketRepository { return (*memoryTickets)(s) }

// Messages returns the store as a MessageRepository.
func (s *MemoryStore) Messages() MessageRepository { return (*memoryMessages)(s) }

// Users returns the store as a UserRepository.
func (s *MemoryStore) Users() UserRepository { return (*memoryUsers)(s) }

type memoryTickets MemoryStore

func (s *memoryTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	now := s.now()
	ticket.Version = 1
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	stored := cloneTicket(ticket)
	s.tickets[ticket.ID] = &stored
	return nil
}

func (s *memoryTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if current.Version != ticket.Version {
		return ErrVersionConflict
	}
	ticket.Version++
	ticket.UpdatedAt = s.now()
	stored := cloneTicket(ticket)
	s.tickets[ticket.ID] = &stored
	return nil
}

func (s *memoryTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := cloneTicket(ticket)
	return &copied, nil
}

func (s *memoryTickets) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ticket := range s.tickets {
		if ticket.ExternalKey == key {
			copied := cloneTicket(ticket)
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memoryTickets) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if !matchesFilter(ticket, filter) {
			continue
		}
		result = append(result, cloneTicket(ticket))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (s *memoryTickets) ListUnresolved(_ context.Context) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.Status == domain.TicketStatusResolved || ticket.Status == domain.TicketStatusClosed {
			continue
		}
		result = append(result, cloneTicket(ticket))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func matchesFilter(ticket *domain.Ticket, filter TicketFilter) bool {
	if filter.ReporterID != nil && ticket.ReporterID != *filter.ReporterID {
		return false
	}
	if filter.AssigneeID != nil &&
		!ticket.IsAssignedAnalyst(*filter.AssigneeID) && !ticket.IsAssignedAuthority(*filter.AssigneeID) {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
		return false
	}
	if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	return true
}

func containsStatus(list []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, priority domain.TicketPriority) bool {
	for _, p := range list {
		if p == priority {
			return true
		}
	}
	return false
}

func cloneTicket(ticket *domain.Ticket) domain.Ticket {
	copied := *ticket
	copied.Participants = append([]domain.Participant(nil), ticket.Participants...)
	return copied
}

type memoryMessages MemoryStore

func (s *memoryMessages) Create(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	s.messages[msg.TicketID] = append(s.messages[msg.TicketID], *msg)
	return nil
}

func (s *memoryMessages) ListByTicket(_ context.Context, ticketID string, threads []domain.Thread) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Message
	for _, msg := range s.messages[ticketID] {
		if len(threads) > 0 && !containsThread(threads, msg.Thread) {
			continue
		}
		result = append(result, msg)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func containsThread(list []domain.Thread, thread domain.Thread) bool {
	for _, t := range list {
		if t == thread {
			return true
		}
	}
	return false
}

type memoryUsers MemoryStore

func (s *memoryUsers) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *memoryUsers) Update(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = s.now()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (s *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}
