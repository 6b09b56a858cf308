package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/oskporuba/club-backend/models"
	"github.com/oskporuba/club-backend/repositories"
	"github.com/oskporuba/club-backend/storage"
)

var coverContentTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type BlogService interface {
	List(ctx context.Context) ([]models.BlogPost, error)
	ListManaged(ctx context.Context, viewer models.Identity) ([]models.BlogPost, error)
	Get(ctx context.Context, viewer *models.Identity, postID int) (*models.BlogPost, error)
	Create(ctx context.Context, author models.Identity, input CreateBlogPostInput) (*models.BlogPost, error)
	UploadCover(ctx context.Context, actor models.Identity, postID int, contentType string, body io.Reader) (*models.BlogPost, error)
	Delete(ctx context.Context, actor models.Identity, postID int) error
}

type CreateBlogPostInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

type blogService struct {
	blogRepo repositories.BlogRepository
	uploader storage.FileUploader
	audit    AuditLogger
}

func NewBlogService(blogRepo repositories.BlogRepository, uploader storage.FileUploader, audit AuditLogger) BlogService {
	return &blogService{
		blogRepo: blogRepo,
		uploader: uploader,
		audit:    audit,
	}
}

// postVisibleTo: published posts are public; drafts are visible to admins and
// to the author. viewer is nil for anonymous readers.
func postVisibleTo(post *models.BlogPost, viewer *models.Identity) bool {
	if post.Published {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.Role == models.RoleAdmin || post.CreatedByID == viewer.ID
}

// List is the public feed: published posts only, drafts live under the manage
// view.
func (s *blogService) List(ctx context.Context) ([]models.BlogPost, error) {
	posts, err := s.blogRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	published := make([]models.BlogPost, 0, len(posts))
	for i := range posts {
		if posts[i].Published {
			published = append(published, posts[i])
		}
	}
	return published, nil
}

// ListManaged is the editing view: an admin manages every post, a blogger
// their own, drafts included.
func (s *blogService) ListManaged(ctx context.Context, viewer models.Identity) ([]models.BlogPost, error) {
	posts, err := s.blogRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if viewer.Role == models.RoleAdmin {
		return posts, nil
	}

	own := make([]models.BlogPost, 0, len(posts))
	for i := range posts {
		if posts[i].CreatedByID == viewer.ID {
			own = append(own, posts[i])
		}
	}
	return own, nil
}

func (s *blogService) Get(ctx context.Context, viewer *models.Identity, postID int) (*models.BlogPost, error) {
	post, err := s.blogRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !postVisibleTo(post, viewer) {
		return nil, repositories.ErrBlogPostNotFound
	}
	return post, nil
}

func (s *blogService) Create(ctx context.Context, author models.Identity, input CreateBlogPostInput) (*models.BlogPost, error) {
	fields := map[string]string{}
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if len(title) < 3 || len(title) > 200 {
		fields["title"] = "must be between 3 and 200 characters"
	}
	if len(content) < 10 {
		fields["content"] = "must be at least 10 characters"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	post := &models.BlogPost{
		Title:             title,
		Content:           content,
		Published:         input.Published,
		CreatedByID:       author.ID,
		CreatedByUsername: author.Username,
	}
	if err := s.blogRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, author.ID, "blog_post_created", "blog_post", fmt.Sprint(post.ID), map[string]any{
		"title":     post.Title,
		"published": post.Published,
	})
	return post, nil
}

// UploadCover stores the image in the object store and records its public URL
// on the post. A replaced cover's old object is removed best-effort.
func (s *blogService) UploadCover(ctx context.Context, actor models.Identity, postID int, contentType string, body io.Reader) (*models.BlogPost, error) {
	if s.uploader == nil {
		return nil, ErrUpstreamNotConfigured
	}

	ext, ok := coverContentTypes[contentType]
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"cover": "must be a jpeg, png or webp image"}}
	}

	post, err := s.blogRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && post.CreatedByID != actor.ID {
		return nil, ErrForbiddenOperation
	}

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return nil, fmt.Errorf("failed to generate cover key: %w", err)
	}
	key := fmt.Sprintf("blog-covers/%d-%s.%s", post.ID, hex.EncodeToString(suffix), ext)

	result, err := s.uploader.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("cover upload failed: %w", err)
	}

	oldCover := post.CoverURL
	updated, err := s.blogRepo.SetCoverURL(ctx, post.ID, result.Location)
	if err != nil {
		return nil, err
	}

	if oldCover != nil {
		if oldKey, ok := coverKeyFromURL(*oldCover); ok {
			_ = s.uploader.Delete(ctx, oldKey)
		}
	}

	s.audit.Log(ctx, actor.ID, "blog_cover_uploaded", "blog_post", fmt.Sprint(post.ID), map[string]any{
		"key": key,
	})
	return updated, nil
}

func (s *blogService) Delete(ctx context.Context, actor models.Identity, postID int) error {
	post, err := s.blogRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleAdmin && post.CreatedByID != actor.ID {
		return ErrForbiddenOperation
	}

	if err := s.blogRepo.Delete(ctx, post.ID); err != nil {
		return err
	}

	if post.CoverURL != nil && s.uploader != nil {
		if key, ok := coverKeyFromURL(*post.CoverURL); ok {
			_ = s.uploader.Delete(ctx, key)
		}
	}

	s.audit.Log(ctx, actor.ID, "blog_post_deleted", "blog_post", fmt.Sprint(post.ID), nil)
	return nil
}

func coverKeyFromURL(coverURL string) (string, bool) {
	idx := strings.Index(coverURL, "blog-covers/")
	if idx < 0 {
		return "", false
	}
	return coverURL[idx:], true
}
