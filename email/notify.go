package email

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"travelblog/models"
)

// TransportError wraps a failed delivery of a notification.
type TransportError struct {
	To  []string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("notify %s: %v", strings.Join(e.To, ","), e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

var commentBody = template.Must(template.New("comment").Parse(`New comment from {{.Author}}:

{{.Text}}

Post: {{.PostTitle}}
Date: {{.Date}}

Link to post: {{.Link}}`))

// CommentNotifier emails the site administrator about every new comment.
type CommentNotifier struct {
	sender   Sender
	from     string
	to       string
	siteURL  string
	location *time.Location
}

// NewCommentNotifier builds a notifier that sends from `from` to the single
// admin address `to`. Links are built under siteURL and dates are shown in loc.
func NewCommentNotifier(sender Sender, from, to, siteURL string, loc *time.Location) *CommentNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &CommentNotifier{
		sender:   sender,
		from:     from,
		to:       to,
		siteURL:  strings.TrimSuffix(siteURL, "/"),
		location: loc,
	}
}

// Message builds the notification for comment on post without sending it.
func (n *CommentNotifier) Message(comment *models.Comment, post *models.Post) (Message, error) {
	var body strings.Builder
	err := commentBody.Execute(&body, map[string]string{
		"Author":    comment.Author,
		"Text":      strings.TrimSpace(comment.Text),
		"PostTitle": post.Title,
		"Date":      comment.CreatedAt.In(n.location).Format("02.01.2006 15:04"),
		"Link":      fmt.Sprintf("%s/post/%d/", n.siteURL, post.ID),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render comment notification: %w", err)
	}

	return Message{
		Subject: fmt.Sprintf("New comment on post \"%s\"", post.Title),
		Body:    body.String(),
		From:    n.from,
		To:      []string{n.to},
	}, nil
}

// NotifyNewComment makes exactly one delivery attempt. Delivery failures come
// back as *TransportError.
func (n *CommentNotifier) NotifyNewComment(ctx context.Context, comment *models.Comment, post *models.Post) error {
	msg, err := n.Message(comment, post)
	if err != nil {
		return err
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		return &TransportError{To: msg.To, Err: err}
	}
	return nil
}
