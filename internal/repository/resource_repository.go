package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrNoteNotFound = errors.New("note not found")
)

// Every lookup below is scoped to the owning username; rows of other users
// behave as missing.

type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) error
	FindForUser(ctx context.Context, username string, id uint) (*domain.Task, error)
	ListForUser(ctx context.Context, username string) ([]domain.Task, error)
	// Update rewrites the mutable fields of an existing row and never
	// inserts; a missing row is ErrTaskNotFound.
	Update(ctx context.Context, t *domain.Task) error
	// Complete applies t only if the stored row is still incomplete and
	// reports whether this call made the transition. When another writer
	// completed it first the fields are still applied and false is returned.
	Complete(ctx context.Context, t *domain.Task) (bool, error)
	DeleteForUser(ctx context.Context, username string, id uint) error
}

type NoteRepository interface {
	Create(ctx context.Context, n *domain.Note) error
	FindForUser(ctx context.Context, username string, id uint) (*domain.Note, error)
	ListForUser(ctx context.Context, username string) ([]domain.Note, error)
	Update(ctx context.Context, n *domain.Note) error
	DeleteForUser(ctx context.Context, username string, id uint) error
}

type GormTaskRepository struct{ db *gorm.DB }

func NewTaskRepository(db *gorm.DB) TaskRepository { return &GormTaskRepository{db: db} }

func (r *GormTaskRepository) Create(ctx context.Context, t *domain.Task) error {
	return recordWrite(ctx, "task", "create", r.db.WithContext(ctx).Create(t).Error)
}

func (r *GormTaskRepository) FindForUser(ctx context.Context, username string, id uint) (*domain.Task, error) {
	var t domain.Task
	err := r.db.WithContext(ctx).Where("username = ? AND id = ?", username, id).First(&t).Error
	if err := recordFind(ctx, "task", err, ErrTaskNotFound); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormTaskRepository) ListForUser(ctx context.Context, username string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).Where("username = ?", username).Order("id ASC").Find(&tasks).Error
	if err := recordWrite(ctx, "task", "list_for_user", err); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *GormTaskRepository) Update(ctx context.Context, t *domain.Task) error {
	res := r.ownedTask(ctx, t).Updates(taskColumns(t))
	return recordUpdate(ctx, "task", "update", res, ErrTaskNotFound)
}

func (r *GormTaskRepository) Complete(ctx context.Context, t *domain.Task) (bool, error) {
	t.Completed = true
	res := r.ownedTask(ctx, t).Where("completed = ?", false).Updates(taskColumns(t))
	if res.Error != nil {
		return false, recordWrite(ctx, "task", "complete", res.Error)
	}
	if res.RowsAffected == 1 {
		observability.RecordRepositoryOperation(ctx, "task", "complete", "success")
		return true, nil
	}
	observability.RecordRepositoryOperation(ctx, "task", "complete", "already_completed")
	return false, r.Update(ctx, t)
}

func (r *GormTaskRepository) ownedTask(ctx context.Context, t *domain.Task) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.Task{}).Where("username = ? AND id = ?", t.Username, t.ID)
}

func taskColumns(t *domain.Task) map[string]any {
	t.UpdatedAt = time.Now().UTC()
	return map[string]any{
		"title":       t.Title,
		"description": t.Description,
		"completed":   t.Completed,
		"updated_at":  t.UpdatedAt,
	}
}

func (r *GormTaskRepository) DeleteForUser(ctx context.Context, username string, id uint) error {
	res := r.db.WithContext(ctx).Where("username = ? AND id = ?", username, id).Delete(&domain.Task{})
	return recordDelete(ctx, "task", res, ErrTaskNotFound)
}

type GormNoteRepository struct{ db *gorm.DB }

func NewNoteRepository(db *gorm.DB) NoteRepository { return &GormNoteRepository{db: db} }

func (r *GormNoteRepository) Create(ctx context.Context, n *domain.Note) error {
	return recordWrite(ctx, "note", "create", r.db.WithContext(ctx).Create(n).Error)
}

func (r *GormNoteRepository) FindForUser(ctx context.Context, username string, id uint) (*domain.Note, error) {
	var n domain.Note
	err := r.db.WithContext(ctx).Where("username = ? AND id = ?", username, id).First(&n).Error
	if err := recordFind(ctx, "note", err, ErrNoteNotFound); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *GormNoteRepository) ListForUser(ctx context.Context, username string) ([]domain.Note, error) {
	var notes []domain.Note
	err := r.db.WithContext(ctx).Where("username = ?", username).Order("id ASC").Find(&notes).Error
	if err := recordWrite(ctx, "note", "list_for_user", err); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *GormNoteRepository) Update(ctx context.Context, n *domain.Note) error {
	n.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.Note{}).
		Where("username = ? AND id = ?", n.Username, n.ID).
		Updates(map[string]any{
			"title":      n.Title,
			"content":    n.Content,
			"updated_at": n.UpdatedAt,
		})
	return recordUpdate(ctx, "note", "update", res, ErrNoteNotFound)
}

func (r *GormNoteRepository) DeleteForUser(ctx context.Context, username string, id uint) error {
	res := r.db.WithContext(ctx).Where("username = ? AND id = ?", username, id).Delete(&domain.Note{})
	return recordDelete(ctx, "note", res, ErrNoteNotFound)
}

func recordWrite(ctx context.Context, repo, op string, err error) error {
	if err != nil {
		observability.RecordRepositoryOperation(ctx, repo, op, "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, repo, op, "success")
	return nil
}

func recordFind(ctx context.Context, repo string, err error, notFound error) error {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, repo, "find_for_user", "not_found")
			return notFound
		}
		observability.RecordRepositoryOperation(ctx, repo, "find_for_user", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, repo, "find_for_user", "success")
	return nil
}

func recordUpdate(ctx context.Context, repo, op string, res *gorm.DB, notFound error) error {
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, repo, op, "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, repo, op, "not_found")
		return notFound
	}
	observability.RecordRepositoryOperation(ctx, repo, op, "success")
	return nil
}

func recordDelete(ctx context.Context, repo string, res *gorm.DB, notFound error) error {
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, repo, "delete_for_user", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, repo, "delete_for_user", "not_found")
		return notFound
	}
	observability.RecordRepositoryOperation(ctx, repo, "delete_for_user", "success")
	return nil
}
