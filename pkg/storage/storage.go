package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/kmills-dev/storyloom/pkg/story"
)

// Storage is the document-store contract the authoring core depends on:
// create (assigns an id), read-by-id, read-by-foreign-key, update and
// delete per entity type. Read-by-id returns (nil, nil) when the document
// does not exist. List operations return entities sorted by their Order
// field where one exists; stored order values are never trusted blindly.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Projects
	CreateProject(ctx context.Context, p *story.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*story.Project, error)
	ListProjectsByUser(ctx context.Context, userID string) ([]story.Project, error)
	UpdateProject(ctx context.Context, p *story.Project) error
	DeleteProject(ctx context.Context, id uuid.UUID) error

	// Chapters
	CreateChapter(ctx context.Context, c *story.Chapter) error
	GetChapter(ctx context.Context, id uuid.UUID) (*story.Chapter, error)
	ListChaptersByProject(ctx context.Context, projectID uuid.UUID) ([]story.Chapter, error)
	UpdateChapter(ctx context.Context, c *story.Chapter) error
	DeleteChapter(ctx context.Context, id uuid.UUID) error

	// Screens
	CreateScreen(ctx context.Context, s *story.Screen) error
	GetScreen(ctx context.Context, id uuid.UUID) (*story.Screen, error)
	ListScreensByChapter(ctx context.Context, chapterID uuid.UUID) ([]story.Screen, error)
	ListScreensByProject(ctx context.Context, projectID uuid.UUID) ([]story.Screen, error)
	UpdateScreen(ctx context.Context, s *story.Screen) error
	DeleteScreen(ctx context.Context, id uuid.UUID) error

	// Replies
	CreateReply(ctx context.Context, r *story.Reply) error
	GetReply(ctx context.Context, id uuid.UUID) (*story.Reply, error)
	ListRepliesByScreen(ctx context.Context, screenID uuid.UUID) ([]story.Reply, error)
	UpdateReply(ctx context.Context, r *story.Reply) error
	DeleteReply(ctx context.Context, id uuid.UUID) error

	// Currencies
	CreateCurrency(ctx context.Context, c *story.Currency) error
	GetCurrency(ctx context.Context, id uuid.UUID) (*story.Currency, error)
	ListCurrenciesByProject(ctx context.Context, projectID uuid.UUID) ([]story.Currency, error)
	UpdateCurrency(ctx context.Context, c *story.Currency) error
	DeleteCurrency(ctx context.Context, id uuid.UUID) error

	// References
	CreateReference(ctx context.Context, r *story.Reference) error
	GetReference(ctx context.Context, id uuid.UUID) (*story.Reference, error)
	ListReferencesByProject(ctx context.Context, projectID uuid.UUID) ([]story.Reference, error)
	UpdateReference(ctx context.Context, r *story.Reference) error
	DeleteReference(ctx context.Context, id uuid.UUID) error

	// Settings
	CreateSetting(ctx context.Context, s *story.Setting) error
	GetSetting(ctx context.Context, id uuid.UUID) (*story.Setting, error)
	ListSettingsByProject(ctx context.Context, projectID uuid.UUID) ([]story.Setting, error)
	UpdateSetting(ctx context.Context, s *story.Setting) error
	DeleteSetting(ctx context.Context, id uuid.UUID) error
}
