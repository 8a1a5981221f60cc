package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/repository"
)

const (
	noteTitleMax   = 255
	noteContentMax = 5000
)

type NoteInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type NoteService struct {
	noteRepo  repository.NoteRepository
	stats     *StatsService
	publisher *ActivityPublisher
	logger    *slog.Logger
}

func NewNoteService(noteRepo repository.NoteRepository, stats *StatsService, publisher *ActivityPublisher, logger *slog.Logger) *NoteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteService{noteRepo: noteRepo, stats: stats, publisher: publisher, logger: logger}
}

func (s *NoteService) List(ctx context.Context, identity domain.Identity) ([]domain.Note, error) {
	return s.noteRepo.ListForUser(ctx, identity.Username)
}

func (s *NoteService) Get(ctx context.Context, identity domain.Identity, id uint) (*domain.Note, error) {
	return s.noteRepo.FindForUser(ctx, identity.Username, id)
}

func (s *NoteService) Create(ctx context.Context, identity domain.Identity, in NoteInput) (*domain.Note, error) {
	note := &domain.Note{Username: identity.Username}
	applyNoteInput(note, in, true)
	if err := validateNote(note); err != nil {
		return nil, err
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	bg := context.WithoutCancel(ctx)
	if err := s.stats.ObserveNoteCreated(bg, identity.Username); err != nil {
		s.logger.ErrorContext(ctx, "note stats update failed", "op", "note.create", "note_id", note.ID, "error", err)
	}
	s.publish(bg, identity, note, "post")
	return note, nil
}

func (s *NoteService) Replace(ctx context.Context, identity domain.Identity, id uint, in NoteInput) (*domain.Note, error) {
	return s.update(ctx, identity, id, in, true, "put")
}

func (s *NoteService) Patch(ctx context.Context, identity domain.Identity, id uint, in NoteInput) (*domain.Note, error) {
	return s.update(ctx, identity, id, in, false, "patch")
}

func (s *NoteService) update(ctx context.Context, identity domain.Identity, id uint, in NoteInput, replace bool, method string) (*domain.Note, error) {
	note, err := s.noteRepo.FindForUser(ctx, identity.Username, id)
	if err != nil {
		return nil, err
	}
	applyNoteInput(note, in, replace)
	if err := validateNote(note); err != nil {
		return nil, err
	}
	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	s.publish(context.WithoutCancel(ctx), identity, note, method)
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, identity domain.Identity, id uint) error {
	note, err := s.noteRepo.FindForUser(ctx, identity.Username, id)
	if err != nil {
		return err
	}
	if err := s.noteRepo.DeleteForUser(ctx, identity.Username, id); err != nil {
		return err
	}
	s.publish(context.WithoutCancel(ctx), identity, note, "delete")
	return nil
}

func (s *NoteService) publish(ctx context.Context, identity domain.Identity, note *domain.Note, method string) {
	if s.publisher == nil {
		return
	}
	activity := NewResourceActivity(identity.Username, "note", method, note.ID, note.Title, map[string]any{
		"content": note.Content,
	})
	if _, err := s.publisher.Publish(ctx, activity); err != nil {
		s.logger.ErrorContext(ctx, "note activity publish failed", "op", "note."+method, "note_id", note.ID, "error", err)
	}
}

func applyNoteInput(note *domain.Note, in NoteInput, replace bool) {
	if in.Title != nil {
		note.Title = strings.TrimSpace(*in.Title)
	} else if replace {
		note.Title = ""
	}
	if in.Content != nil {
		note.Content = *in.Content
	} else if replace {
		note.Content = ""
	}
}

func validateNote(note *domain.Note) error {
	var c fieldChecker
	c.length("title", note.Title, 1, noteTitleMax, "title")
	c.length("content", note.Content, 1, noteContentMax, "content")
	return c.err()
}
