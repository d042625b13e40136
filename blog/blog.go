package blog

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"driftwood/cache"
	"driftwood/images"
	"driftwood/models"
	"driftwood/response"
)

// DefaultAuthor is used when a post is created without an author.
const DefaultAuthor = "Admin"

type BlogModule struct {
	db     *gorm.DB
	images images.Store
	pages  cache.Store
	log    *zap.Logger
}

func NewBlogModule(db *gorm.DB, store images.Store, pages cache.Store, log *zap.Logger) *BlogModule {
	return &BlogModule{
		db:     db,
		images: store,
		pages:  pages,
		log:    log,
	}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine, requireAuth gin.HandlerFunc) {
	api := router.Group("/api/blog")
	{
		api.GET("", b.list)
		api.GET("/:id", b.get)
		api.POST("", requireAuth, b.create)
		api.PUT("/:id", requireAuth, b.update)
		api.DELETE("/:id", requireAuth, b.remove)
	}

	router.POST("/api/admin/cache/clear", requireAuth, b.clearCache)
}

func (b *BlogModule) list(c *gin.Context) {
	posts := make([]models.Post, 0)
	if err := b.db.WithContext(c.Request.Context()).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		b.log.Error("listing posts failed", zap.Error(err))
		response.Internal(c)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (b *BlogModule) get(c *gin.Context) {
	id, ok := b.postID(c)
	if !ok {
		return
	}

	var post models.Post
	err := b.db.WithContext(c.Request.Context()).Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "post not found")
		return
	}
	if err != nil {
		b.log.Error("fetching post failed", zap.String("id", id), zap.Error(err))
		response.Internal(c)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (b *BlogModule) create(c *gin.Context) {
	form, err := b.parseForm(c)
	if err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if form.Title == nil || strings.TrimSpace(*form.Title) == "" {
		response.BadRequest(c, "title is required")
		return
	}
	if form.Content == nil || strings.TrimSpace(*form.Content) == "" {
		response.BadRequest(c, "content is required")
		return
	}

	author := DefaultAuthor
	if form.Author != nil && strings.TrimSpace(*form.Author) != "" {
		author = *form.Author
	}

	urls, ok := b.uploadAll(c, form.Files)
	if !ok {
		return
	}

	post := models.Post{
		ID:      uuid.NewString(),
		Title:   *form.Title,
		Content: *form.Content,
		Author:  author,
		Images:  models.StringList(urls),
	}

	if err := b.db.WithContext(c.Request.Context()).Create(&post).Error; err != nil {
		b.log.Error("creating post failed", zap.Error(err))
		b.compensateUploads(c.Request.Context(), urls)
		response.Internal(c)
		return
	}

	b.invalidatePages(c.Request.Context())
	c.JSON(http.StatusCreated, post)
}

func (b *BlogModule) update(c *gin.Context) {
	id, ok := b.postID(c)
	if !ok {
		return
	}

	var post models.Post
	err := b.db.WithContext(c.Request.Context()).Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "post not found")
		return
	}
	if err != nil {
		b.log.Error("fetching post failed", zap.String("id", id), zap.Error(err))
		response.Internal(c)
		return
	}

	form, err := b.parseForm(c)
	if err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	// Supplied fields overwrite, omitted fields stay untouched.
	if form.Title != nil && strings.TrimSpace(*form.Title) != "" {
		post.Title = *form.Title
	}
	if form.Content != nil && strings.TrimSpace(*form.Content) != "" {
		post.Content = *form.Content
	}
	if form.Author != nil && strings.TrimSpace(*form.Author) != "" {
		post.Author = *form.Author
	}

	urls, ok := b.uploadAll(c, form.Files)
	if !ok {
		return
	}

	// New uploads append; existing entries are never removed here.
	post.Images = append(post.Images, urls...)

	if err := b.db.WithContext(c.Request.Context()).Save(&post).Error; err != nil {
		b.log.Error("updating post failed", zap.String("id", id), zap.Error(err))
		b.compensateUploads(c.Request.Context(), urls)
		response.Internal(c)
		return
	}

	b.invalidatePages(c.Request.Context())
	c.JSON(http.StatusOK, post)
}

func (b *BlogModule) remove(c *gin.Context) {
	id, ok := b.postID(c)
	if !ok {
		return
	}

	result := b.db.WithContext(c.Request.Context()).Where("id = ?", id).Delete(&models.Post{})
	if result.Error != nil {
		b.log.Error("deleting post failed", zap.String("id", id), zap.Error(result.Error))
		response.Internal(c)
		return
	}
	if result.RowsAffected == 0 {
		response.NotFound(c, "post not found")
		return
	}

	b.invalidatePages(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (b *BlogModule) clearCache(c *gin.Context) {
	if b.pages == nil {
		c.JSON(http.StatusOK, gin.H{"message": "cache disabled"})
		return
	}
	if err := cache.ClearPages(c.Request.Context(), b.pages); err != nil {
		b.log.Error("clearing page cache failed", zap.Error(err))
		response.Internal(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}

// postID validates the :id path parameter and replies on failure.
func (b *BlogModule) postID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.BadRequest(c, "invalid post id")
		return "", false
	}
	return id, true
}

// postForm carries the fields of a create/update request. Pointers keep
// "omitted" distinguishable from "empty" so partial updates work.
type postForm struct {
	Title   *string
	Content *string
	Author  *string
	Files   []*multipart.FileHeader
}

// parseForm accepts both JSON bodies (the admin dashboard without
// images) and multipart forms (with images).
func (b *BlogModule) parseForm(c *gin.Context) (postForm, error) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req struct {
			Title   *string `json:"title"`
			Content *string `json:"content"`
			Author  *string `json:"author"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return postForm{}, err
		}
		return postForm{Title: req.Title, Content: req.Content, Author: req.Author}, nil
	}

	var form postForm
	if v, ok := c.GetPostForm("title"); ok {
		form.Title = &v
	}
	if v, ok := c.GetPostForm("content"); ok {
		form.Content = &v
	}
	if v, ok := c.GetPostForm("author"); ok {
		form.Author = &v
	}

	if mpForm, err := c.MultipartForm(); err == nil && mpForm != nil {
		form.Files = mpForm.File["images"]
	}

	return form, nil
}

// uploadAll pushes every file to the image store and returns the public
// URLs. On failure it replies to the client and reports !ok.
func (b *BlogModule) uploadAll(c *gin.Context, files []*multipart.FileHeader) ([]string, bool) {
	urls := make([]string, 0, len(files))

	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			b.log.Error("opening uploaded file failed", zap.String("filename", header.Filename), zap.Error(err))
			b.compensateUploads(c.Request.Context(), urls)
			response.Internal(c)
			return nil, false
		}

		url, err := b.images.Upload(c.Request.Context(), header.Filename, file)
		file.Close()
		if err != nil {
			b.compensateUploads(c.Request.Context(), urls)
			if errors.Is(err, images.ErrDisallowedType) {
				response.BadRequest(c, "image format not allowed (jpg, jpeg, png, webp)")
				return nil, false
			}
			b.log.Error("image upload failed", zap.String("filename", header.Filename), zap.Error(err))
			response.Internal(c)
			return nil, false
		}

		urls = append(urls, url)
	}

	return urls, true
}

// compensateUploads best-effort deletes uploads orphaned by a failed
// write. Failures here are logged and swallowed; the request already
// failed.
func (b *BlogModule) compensateUploads(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := b.images.Delete(ctx, url); err != nil {
			b.log.Warn("orphaned upload could not be removed", zap.String("url", url), zap.Error(err))
		}
	}
}

func (b *BlogModule) invalidatePages(ctx context.Context) {
	if b.pages == nil {
		return
	}
	if err := cache.ClearPages(ctx, b.pages); err != nil {
		b.log.Warn("page cache invalidation failed", zap.Error(err))
	}
}
