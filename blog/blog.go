package blog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gorm.io/gorm"

	"travelblog/accounts"
	"travelblog/cache"
	"travelblog/email"
	"travelblog/forms"
	"travelblog/models"
)

// Notifier is told about every stored comment.
type Notifier interface {
	NotifyNewComment(ctx context.Context, comment *models.Comment, post *models.Post) error
}

type BlogModule struct {
	posts     *PostService
	comments  *CommentService
	notifier  Notifier
	pageCache cache.Store
	cacheTTL  time.Duration
	logger    *slog.Logger
}

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
)

// NewBlogModule wires the public pages. A nil pageCache serves the detail
// page uncached.
func NewBlogModule(db *gorm.DB, notifier Notifier, pageCache cache.Store, cacheTTL time.Duration, logger *slog.Logger) *BlogModule {
	return &BlogModule{
		posts:     NewPostService(db),
		comments:  NewCommentService(db),
		notifier:  notifier,
		pageCache: pageCache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/", cache.Never(), b.index)
	router.GET("/post/:id/", cache.Page(b.pageCache, b.cacheTTL, detailKey, b.logger), b.post)
	router.POST("/post/:id/", b.addComment)
}

// detailKey separates cached detail pages by post, query string and viewer.
func detailKey(c *gin.Context) (cache.Key, bool) {
	id, ok := postID(c)
	if !ok {
		return cache.Key{}, false
	}

	viewer := "anon"
	if user := accounts.CurrentUser(c); user != nil {
		viewer = fmt.Sprintf("user-%d", user.ID)
	}

	return cache.Key{
		Scope:   PageScope(id),
		Variant: viewer + "?" + c.Request.URL.RawQuery,
	}, true
}

// PageScope is the cache scope holding every rendering of one post.
func PageScope(id uint) string {
	return fmt.Sprintf("post-%d", id)
}

func postID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (b *BlogModule) index(c *gin.Context) {
	posts, err := b.posts.List(c.Request.Context())
	if err != nil {
		b.serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"posts": posts,
		"user":  accounts.CurrentUser(c),
	})
}

func (b *BlogModule) post(c *gin.Context) {
	post, ok := b.loadPost(c)
	if !ok {
		return
	}

	b.renderDetail(c, http.StatusOK, post, forms.NewCommentForm(accounts.CurrentUser(c)), nil)
}

func (b *BlogModule) addComment(c *gin.Context) {
	post, ok := b.loadPost(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	user := accounts.CurrentUser(c)

	var submitted forms.CommentForm
	if err := c.ShouldBind(&submitted); err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"error": "Invalid form submission.", "user": user})
		return
	}

	form, errs := forms.CleanComment(submitted, user)
	if !errs.OK() {
		if user != nil {
			submitted.Author = user.Username
		}
		b.renderDetail(c, http.StatusBadRequest, post, submitted, errs)
		return
	}

	comment, err := b.comments.Create(ctx, post, form.Author, form.Text)
	if err != nil {
		b.serverError(c, err)
		return
	}

	if err := b.notifier.NotifyNewComment(ctx, comment, post); err != nil {
		var transportErr *email.TransportError
		if errors.As(err, &transportErr) {
			b.logger.WarnContext(ctx, "comment notification not delivered",
				slog.Any("comment_id", comment.ID), slog.Any("error", err))
		} else {
			b.logger.ErrorContext(ctx, "comment notification failed",
				slog.Any("comment_id", comment.ID), slog.Any("error", err))
		}
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d/", post.ID))
}

// loadPost resolves the :id parameter and renders the 404 or 500 page itself
// when it cannot.
func (b *BlogModule) loadPost(c *gin.Context) (*models.Post, bool) {
	id, ok := postID(c)
	if !ok {
		b.notFound(c)
		return nil, false
	}

	post, err := b.posts.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		b.notFound(c)
		return nil, false
	}
	if err != nil {
		b.serverError(c, err)
		return nil, false
	}
	return post, true
}

func (b *BlogModule) renderDetail(c *gin.Context, status int, post *models.Post, form forms.CommentForm, errs forms.Errors) {
	comments, err := b.comments.Published(c.Request.Context(), post.ID)
	if err != nil {
		b.serverError(c, err)
		return
	}

	c.HTML(status, "post_detail.html", gin.H{
		"title":    post.Title,
		"post":     post,
		"content":  template.HTML(renderMarkdown(post.Content)),
		"comments": comments,
		"form":     form,
		"errors":   errs,
		"user":     accounts.CurrentUser(c),
	})
}

func (b *BlogModule) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "error.html", gin.H{
		"title": "Not found",
		"error": "The post you are looking for does not exist.",
		"user":  accounts.CurrentUser(c),
	})
}

func (b *BlogModule) serverError(c *gin.Context, err error) {
	b.logger.ErrorContext(c.Request.Context(), "blog request failed", slog.Any("error", err))
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"error": "Something went wrong. Please try again later.",
		"user":  accounts.CurrentUser(c),
	})
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return template.HTMLEscapeString(content)
	}
	return buf.String()
}
