package forms

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"travelblog/models"
)

func TestCleanCommentProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1974)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("text accepted iff 0 < len(trim) <= 500", prop.ForAll(
		func(body string, pad int) bool {
			text := strings.Repeat(" ", pad) + body + strings.Repeat("\n", pad)
			_, errs := CleanComment(CommentForm{Author: "Maria", Text: text}, nil)

			n := utf8.RuneCountInString(strings.TrimSpace(body))
			want := n > 0 && n <= 500
			return errs.OK() == want
		},
		gen.AnyString(),
		gen.IntRange(0, 5),
	))

	properties.Property("oversized text is always TooLong", prop.ForAll(
		func(extra int) bool {
			_, errs := CleanComment(CommentForm{Author: "Maria", Text: strings.Repeat("x", 500+extra)}, nil)
			return errs.Has("text", KindTooLong) && !errs.Has("text", KindEmptyContent)
		},
		gen.IntRange(1, 1000),
	))

	properties.Property("authenticated author always wins", prop.ForAll(
		func(submitted, username string) bool {
			user := &models.User{Username: username}
			form, _ := CleanComment(CommentForm{Author: submitted, Text: "Nice trip"}, user)
			return form.Author == username
		},
		gen.AnyString(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
