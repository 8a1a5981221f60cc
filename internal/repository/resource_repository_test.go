package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
)

func TestTaskRepositoryScopesByUsername(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	mine := &domain.Task{Title: "write tests", Username: "NobleEagle321"}
	theirs := &domain.Task{Title: "other", Username: "GentleShark654"}
	if err := repo.Create(ctx, mine); err != nil {
		t.Fatalf("create mine: %v", err)
	}
	if err := repo.Create(ctx, theirs); err != nil {
		t.Fatalf("create theirs: %v", err)
	}

	if _, err := repo.FindForUser(ctx, "NobleEagle321", theirs.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected foreign task to be not found, got %v", err)
	}
	tasks, err := repo.ListForUser(ctx, "NobleEagle321")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != mine.ID {
		t.Fatalf("unexpected task list: %+v", tasks)
	}

	mine.Description = "table tests"
	done, err := repo.Complete(ctx, mine)
	if err != nil || !done {
		t.Fatalf("expected first complete to transition, done=%v err=%v", done, err)
	}
	done, err = repo.Complete(ctx, mine)
	if err != nil || done {
		t.Fatalf("expected second complete to be a no-op transition, done=%v err=%v", done, err)
	}
	got, err := repo.FindForUser(ctx, "NobleEagle321", mine.ID)
	if err != nil || !got.Completed || got.Description != "table tests" {
		t.Fatalf("expected completed task with description, got %+v err=%v", got, err)
	}

	stolen := *theirs
	stolen.Username = "NobleEagle321"
	stolen.Title = "hijacked"
	if err := repo.Update(ctx, &stolen); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected update of foreign task to be not found, got %v", err)
	}

	if err := repo.DeleteForUser(ctx, "NobleEagle321", theirs.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected delete of foreign task to be not found, got %v", err)
	}
	if err := repo.DeleteForUser(ctx, "NobleEagle321", mine.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestNoteRepositoryLifecycle(t *testing.T) {
	repo := NewNoteRepository(newTestDB(t))
	ctx := context.Background()

	n := &domain.Note{Title: "idea", Content: "body", Username: "FreeRaven909"}
	if err := repo.Create(ctx, n); err != nil {
		t.Fatalf("create: %v", err)
	}
	n.Content = "edited"
	if err := repo.Update(ctx, n); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.FindForUser(ctx, "FreeRaven909", n.ID)
	if err != nil || got.Content != "edited" {
		t.Fatalf("expected edited note, got %+v err=%v", got, err)
	}
	if err := repo.DeleteForUser(ctx, "FreeRaven909", n.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindForUser(ctx, "FreeRaven909", n.ID); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound after delete, got %v", err)
	}
	n.Content = "late write"
	if err := repo.Update(ctx, n); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected update after delete to be not found, got %v", err)
	}
	if _, err := repo.FindForUser(ctx, "FreeRaven909", n.ID); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("update after delete must not recreate the note, got %v", err)
	}
}
