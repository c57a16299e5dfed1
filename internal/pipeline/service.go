package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"loanpipe-backend/internal/cache"
	"loanpipe-backend/internal/crm"
)

const boardCacheKey = "pipeline:board"

// Board is the kanban view: one column per stage, in pipeline order.
// Partial marks a board assembled from an incomplete contact listing;
// Degraded marks a last-known-good snapshot served after a failed fetch.
type Board struct {
	Columns   []Column  `json:"columns"`
	Partial   bool      `json:"partial,omitempty"`
	Degraded  bool      `json:"degraded,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
}

type Column struct {
	Stage Stage  `json:"stage"`
	Leads []Lead `json:"leads"`
}

type Service struct {
	crm      *crm.Client
	cache    cache.Cache
	boardTTL time.Duration
	log      *slog.Logger
}

func NewService(client *crm.Client, store cache.Cache, boardTTL time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		crm:      client,
		cache:    store,
		boardTTL: boardTTL,
		log:      log,
	}
}

// Board assembles the kanban board from the full contact listing. On a
// total fetch failure the last successful snapshot is served, marked
// degraded; there is no fabricated placeholder data.
func (s *Service) Board(ctx context.Context) (Board, error) {
	if s.boardTTL > 0 {
		if snapshot, ok := s.lastKnownGood(ctx); ok && time.Since(snapshot.FetchedAt) < s.boardTTL {
			return snapshot, nil
		}
	}

	listing, err := s.crm.ListAllContacts(ctx)
	if err != nil {
		s.log.Error("board: contact listing failed", slog.String("error", err.Error()))
		if snapshot, ok := s.lastKnownGood(ctx); ok {
			snapshot.Degraded = true
			return snapshot, nil
		}
		return Board{}, err
	}

	board := buildBoard(listing)
	s.storeSnapshot(ctx, board)
	return board, nil
}

func buildBoard(listing crm.ContactList) Board {
	byStage := make(map[Stage][]Lead, len(StageOrder))
	for _, contact := range listing.Contacts {
		lead := LeadFromContact(contact)
		byStage[lead.Stage] = append(byStage[lead.Stage], lead)
	}

	board := Board{
		Columns:   make([]Column, 0, len(StageOrder)),
		Partial:   listing.Partial,
		FetchedAt: time.Now().UTC(),
	}
	for _, stage := range StageOrder {
		leads := byStage[stage]
		if leads == nil {
			leads = []Lead{}
		}
		board.Columns = append(board.Columns, Column{Stage: stage, Leads: leads})
	}
	return board
}

// MoveStage transitions a lead: read the contact, recompute its tag set
// for the target stage, write it back, and return the updated lead. The
// board snapshot is invalidated so the next read refetches.
func (s *Service) MoveStage(ctx context.Context, contactID string, next Stage) (Lead, error) {
	contact, err := s.crm.GetContact(ctx, contactID)
	if err != nil {
		return Lead{}, err
	}

	from := ResolveStage(contact.CustomFields, contact.Tags)
	if StageIndex(next) < StageIndex(from) {
		s.log.Warn("stage move: regression",
			slog.String("contact_id", contactID),
			slog.String("from", string(from)),
			slog.String("to", string(next)))
	}

	newTags := RetagForStage(contact.Tags, next)
	updated, err := s.crm.UpdateContactTags(ctx, contactID, newTags)
	if err != nil {
		return Lead{}, err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, boardCacheKey)
	}

	// The remote echo can lag the write. The returned lead reflects the
	// tag set just written, not whatever stale copy came back.
	updated.ID = contactID
	updated.Tags = newTags
	for _, key := range stageFieldKeys {
		delete(updated.CustomFields, key)
	}
	if updated.Email == "" {
		updated.Email = contact.Email
	}
	if updated.FirstName == "" && updated.LastName == "" {
		updated.FirstName = contact.FirstName
		updated.LastName = contact.LastName
	}
	return LeadFromContact(updated), nil
}

// LeadStage reads the current stage, reconciled from the live remote
// record.
func (s *Service) LeadStage(ctx context.Context, contactID string) (Stage, error) {
	contact, err := s.crm.GetContact(ctx, contactID)
	if err != nil {
		return "", err
	}
	return ResolveStage(contact.CustomFields, contact.Tags), nil
}

func (s *Service) storeSnapshot(ctx context.Context, board Board) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(board)
	if err != nil {
		return
	}
	// Snapshot lives longer than the serve-TTL so it can back a degraded
	// response well after expiry of the hot path.
	if err := s.cache.Set(ctx, boardCacheKey, payload, 24*time.Hour); err != nil {
		s.log.Warn("board: snapshot store failed", slog.String("error", err.Error()))
	}
}

func (s *Service) lastKnownGood(ctx context.Context) (Board, bool) {
	if s.cache == nil {
		return Board{}, false
	}
	payload, ok, err := s.cache.Get(ctx, boardCacheKey)
	if err != nil || !ok {
		return Board{}, false
	}
	var board Board
	if err := json.Unmarshal(payload, &board); err != nil {
		return Board{}, false
	}
	return board, true
}
