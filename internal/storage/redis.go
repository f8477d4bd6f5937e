package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kmills-dev/storyloom/pkg/storage"
	"github.com/kmills-dev/storyloom/pkg/story"
)

const keyPrefix = "storyloom:"

// RedisStorage implements the Storage interface over Redis: one JSON
// document per entity, plus a Redis set per foreign-key index so that
// "screens where chapterId = X" style queries stay cheap.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a Redis storage instance from a redis:// URL.
func NewRedisStorage(redisURL string, logger *slog.Logger) (*RedisStorage, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return &RedisStorage{
		client: redis.NewClient(opts),
		logger: logger,
	}, nil
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Key layout

func docKey(kind string, id uuid.UUID) string {
	return keyPrefix + kind + ":" + id.String()
}

func idxKey(kind, field, value string) string {
	return keyPrefix + kind + ":idx:" + field + ":" + value
}

// Generic document plumbing. Every entity round-trips as JSON; index sets
// hold member document IDs.

func (r *RedisStorage) saveDoc(ctx context.Context, kind string, id uuid.UUID, doc any, indexes []string) error {
	data, err := json.Marshal(doc)
	if err != nil {
		r.logger.Error("Failed to marshal document", "kind", kind, "id", id, "error", err)
		return fmt.Errorf("failed to marshal %s: %w", kind, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, docKey(kind, id), data, 0)
	for _, idx := range indexes {
		pipe.SAdd(ctx, idx, id.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save document", "kind", kind, "id", id, "error", err)
		return fmt.Errorf("failed to save %s: %w", kind, err)
	}
	return nil
}

func (r *RedisStorage) deleteDoc(ctx context.Context, kind string, id uuid.UUID, indexes []string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, docKey(kind, id))
	for _, idx := range indexes {
		pipe.SRem(ctx, idx, id.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete document", "kind", kind, "id", id, "error", err)
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	return nil
}

func getDoc[T any](ctx context.Context, r *RedisStorage, kind string, id uuid.UUID) (*T, error) {
	data, err := r.client.Get(ctx, docKey(kind, id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load document", "kind", kind, "id", id, "error", err)
		return nil, fmt.Errorf("failed to load %s: %w", kind, err)
	}

	var doc T
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		r.logger.Error("Failed to unmarshal document", "kind", kind, "id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal %s: %w", kind, err)
	}
	return &doc, nil
}

func listDocs[T any](ctx context.Context, r *RedisStorage, kind string, index string) ([]T, error) {
	ids, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		r.logger.Error("Failed to read index", "index", index, "error", err)
		return nil, fmt.Errorf("failed to read index %s: %w", index, err)
	}

	out := make([]T, 0, len(ids))
	for _, idStr := range ids {
		id, err := uuid.Parse(idStr)
		if err != nil {
			r.logger.Warn("Skipping malformed index member", "index", index, "member", idStr)
			continue
		}
		doc, err := getDoc[T](ctx, r, kind, id)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			// Stale index member left by a partial delete; drop it.
			r.client.SRem(ctx, index, idStr)
			continue
		}
		out = append(out, *doc)
	}
	return out, nil
}

// Projects

func (r *RedisStorage) CreateProject(ctx context.Context, p *story.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.saveDoc(ctx, "project", p.ID, p, []string{idxKey("project", "user", p.UserID)})
}

func (r *RedisStorage) GetProject(ctx context.Context, id uuid.UUID) (*story.Project, error) {
	return getDoc[story.Project](ctx, r, "project", id)
}

func (r *RedisStorage) ListProjectsByUser(ctx context.Context, userID string) ([]story.Project, error) {
	return listDocs[story.Project](ctx, r, "project", idxKey("project", "user", userID))
}

func (r *RedisStorage) UpdateProject(ctx context.Context, p *story.Project) error {
	return r.saveDoc(ctx, "project", p.ID, p, []string{idxKey("project", "user", p.UserID)})
}

func (r *RedisStorage) DeleteProject(ctx context.Context, id uuid.UUID) error {
	p, err := r.GetProject(ctx, id)
	if err != nil {
		return err
	}
	var indexes []string
	if p != nil {
		indexes = append(indexes, idxKey("project", "user", p.UserID))
	}
	return r.deleteDoc(ctx, "project", id, indexes)
}

// Chapters

func chapterIndexes(c *story.Chapter) []string {
	return []string{idxKey("chapter", "project", c.ProjectID.String())}
}

func (r *RedisStorage) CreateChapter(ctx context.Context, c *story.Chapter) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return r.saveDoc(ctx, "chapter", c.ID, c, chapterIndexes(c))
}

func (r *RedisStorage) GetChapter(ctx context.Context, id uuid.UUID) (*story.Chapter, error) {
	return getDoc[story.Chapter](ctx, r, "chapter", id)
}

func (r *RedisStorage) ListChaptersByProject(ctx context.Context, projectID uuid.UUID) ([]story.Chapter, error) {
	chapters, err := listDocs[story.Chapter](ctx, r, "chapter", idxKey("chapter", "project", projectID.String()))
	if err != nil {
		return nil, err
	}
	story.SortChapters(chapters)
	return chapters, nil
}

func (r *RedisStorage) UpdateChapter(ctx context.Context, c *story.Chapter) error {
	return r.saveDoc(ctx, "chapter", c.ID, c, chapterIndexes(c))
}

func (r *RedisStorage) DeleteChapter(ctx context.Context, id uuid.UUID) error {
	c, err := r.GetChapter(ctx, id)
	if err != nil {
		return err
	}
	var indexes []string
	if c != nil {
		indexes = chapterIndexes(c)
	}
	return r.deleteDoc(ctx, "chapter", id, indexes)
}

// Screens

func screenIndexes(s *story.Screen) []string {
	return []string{
		idxKey("screen", "chapter", s.ChapterID.String()),
		idxKey("screen", "project", s.ProjectID.String()),
	}
}

func (r *RedisStorage) CreateScreen(ctx context.Context, s *story.Screen) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return r.saveDoc(ctx, "screen", s.ID, s, screenIndexes(s))
}

func (r *RedisStorage) GetScreen(ctx context.Context, id uuid.UUID) (*story.Screen, error) {
	return getDoc[story.Screen](ctx, r, "screen", id)
}

func (r *RedisStorage) ListScreensByChapter(ctx context.Context, chapterID uuid.UUID) ([]story.Screen, error) {
	screens, err := listDocs[story.Screen](ctx, r, "screen", idxKey("screen", "chapter", chapterID.String()))
	if err != nil {
		return nil, err
	}
	story.SortScreens(screens)
	return screens, nil
}

func (r *RedisStorage) ListScreensByProject(ctx context.Context, projectID uuid.UUID) ([]story.Screen, error) {
	screens, err := listDocs[story.Screen](ctx, r, "screen", idxKey("screen", "project", projectID.String()))
	if err != nil {
		return nil, err
	}
	story.SortScreens(screens)
	return screens, nil
}

func (r *RedisStorage) UpdateScreen(ctx context.Context, s *story.Screen) error {
	return r.saveDoc(ctx, "screen", s.ID, s, screenIndexes(s))
}

func (r *RedisStorage) DeleteScreen(ctx context.Context, id uuid.UUID) error {
	s, err := r.GetScreen(ctx, id)
	if err != nil {
		return err
	}
	var indexes []string
	if s != nil {
		indexes = screenIndexes(s)
	}
	return r.deleteDoc(ctx, "screen", id, indexes)
}

// Replies

func replyIndexes(rep *story.Reply) []string {
	return []string{idxKey("reply", "screen", rep.ScreenID.String())}
}

func (r *RedisStorage) CreateReply(ctx context.Context, rep *story.Reply) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	return r.saveDoc(ctx, "reply", rep.ID, rep, replyIndexes(rep))
}

func (r *RedisStorage) GetReply(ctx context.Context, id uuid.UUID) (*story.Reply, error) {
	return getDoc[story.Reply](ctx, r, "reply", id)
}

func (r *RedisStorage) ListRepliesByScreen(ctx context.Context, screenID uuid.UUID) ([]story.Reply, error) {
	replies, err := listDocs[story.Reply](ctx, r, "reply", idxKey("reply", "screen", screenID.String()))
	if err != nil {
		return nil, err
	}
	story.SortReplies(replies)
	return replies, nil
}

func (r *RedisStorage) UpdateReply(ctx context.Context, rep *story.Reply) error {
	return r.saveDoc(ctx, "reply", rep.ID, rep, replyIndexes(rep))
}

func (r *RedisStorage) DeleteReply(ctx context.Context, id uuid.UUID) error {
	rep, err := r.GetReply(ctx, id)
	if err != nil {
		return err
	}
	var indexes []string
	if rep != nil {
		indexes = replyIndexes(rep)
	}
	return r.deleteDoc(ctx, "reply", id, indexes)
}

// Currencies

func currencyIndexes(c *story.Currency) []string {
	return []string{idxKey("currency", "project", c.ProjectID.String())}
}

func (r *RedisStorage) CreateCurrency(ctx context.Context, c *story.Currency) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return r.saveDoc(ctx, "currency", c.ID, c, currencyIndexes(c))
}

func (r *RedisStorage) GetCurrency(ctx context.Context, id uuid.UUID) (*story.Currency, error) {
	return getDoc[story.Currency](ctx, r, "currency", id)
}

func (r *RedisStorage) ListCurrenciesByProject(ctx context.Context, projectID uuid.UUID) ([]story.Currency, error) {
	return listDocs[story.Currency](ctx, r, "currency", idxKey("currency", "project", projectID.String()))
}

func (r *RedisStorage) UpdateCurrency(ctx context.Context, c *story.Currency) error {
	return r.saveDoc(ctx, "currency", c.ID, c, currencyIndexes(c))
}

func (r *RedisStorage) DeleteCurrency(ctx context.Context, id uuid.UUID) error {
	c, err := r.GetCurrency(ctx, id)
	if err != nil {
		return err
	}
	var indexes []string
	if c != nil {
		indexes = currencyIndexes(c)
	}
	return r.deleteDoc(ctx, "currency", id, indexes)
}

// References

func referenceIndexes(ref *story.Reference) []string {
	return []string{idxKey("reference", "project", ref.ProjectID.String())}
}

func (r *RedisStorage) CreateReference(ctx context.Context, ref *story.Reference) error {
	if ref.ID == uuid.Nil {
		ref.ID = uuid.New()
	}
	return r.saveDoc(ctx, "reference", ref.ID, ref, referenceIndexes(ref))
}

func (r *RedisStorage) GetReference(ctx context.Context, id uuid.UUID) (*story.Reference, error) {
	return getDoc[story.Reference](ctx, r, "reference", id)
}

func (r *RedisStorage) ListReferencesByProject(ctx context.Context, projectID uuid.UUID) ([]story.Reference, error) {
	return listDocs[story.Reference](ctx, r, "reference", idxKey("reference", "project", projectID.String()))
}

func (r *RedisStorage) UpdateReference(ctx context.Context, ref *story.Reference) error {
	return r.saveDoc(ctx, "reference", ref.ID, ref, referenceIndexes(ref))
}

func (r *RedisStorage) DeleteReference(ctx context.Context, id uuid.UUID) error {
	ref, err := r.GetReference(ctx, id)
	if err != nil {
		return err
	}
	var indexes []string
	if ref != nil {
		indexes = referenceIndexes(ref)
	}
	return r.deleteDoc(ctx, "reference", id, indexes)
}

// Settings

func settingIndexes(s *story.Setting) []string {
	return []string{idxKey("setting", "project", s.ProjectID.String())}
}

func (r *RedisStorage) CreateSetting(ctx context.Context, s *story.Setting) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return r.saveDoc(ctx, "setting", s.ID, s, settingIndexes(s))
}

func (r *RedisStorage) GetSetting(ctx context.Context, id uuid.UUID) (*story.Setting, error) {
	return getDoc[story.Setting](ctx, r, "setting", id)
}

func (r *RedisStorage) ListSettingsByProject(ctx context.Context, projectID uuid.UUID) ([]story.Setting, error) {
	return listDocs[story.Setting](ctx, r, "setting", idxKey("setting", "project", projectID.String()))
}

func (r *RedisStorage) UpdateSetting(ctx context.Context, s *story.Setting) error {
	return r.saveDoc(ctx, "setting", s.ID, s, settingIndexes(s))
}

func (r *RedisStorage) DeleteSetting(ctx context.Context, id uuid.UUID) error {
	s, err := r.GetSetting(ctx, id)
	if err != nil {
		return err
	}
	var indexes []string
	if s != nil {
		indexes = settingIndexes(s)
	}
	return r.deleteDoc(ctx, "setting", id, indexes)
}
