package forms

import (
	"strings"

	"travelblog/models"
)

type CommentForm struct {
	Author string `form:"author" validate:"required,max=100"`
	Text   string `form:"text" validate:"required,max=500"`
}

var commentMessages = messages{
	"text.required": {Kind: KindEmptyContent, Message: "Comment cannot be empty."},
	"text.max":      {Kind: KindTooLong, Message: "Comment must not exceed 500 characters."},
}

// NewCommentForm returns the initial form shown under a post. A signed-in
// reader gets their username pre-filled.
func NewCommentForm(user *models.User) CommentForm {
	if user != nil {
		return CommentForm{Author: user.Username}
	}
	return CommentForm{}
}

// CleanComment trims the submitted values and validates them. When user is
// not nil the author is always the user's username, whatever was submitted.
func CleanComment(form CommentForm, user *models.User) (CommentForm, Errors) {
	form.Author = strings.TrimSpace(form.Author)
	form.Text = strings.TrimSpace(form.Text)
	if user != nil {
		form.Author = user.Username
	}

	return form, check(form, commentMessages)
}
