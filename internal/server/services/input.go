package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/ogpblog/internal/common"
)

const (
	MaxTitleLength       = 32
	MaxDescriptionLength = 1000
)

// CreatePostInput is the payload accepted when creating a post.
type CreatePostInput struct {
	Title       string  `json:"title" validate:"required,max=32"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// Normalize trims both fields and drops a blank description.
func (in CreatePostInput) Normalize() CreatePostInput {
	return CreatePostInput{
		Title:       strings.TrimSpace(in.Title),
		Description: trimOrNil(in.Description),
	}
}

var fieldMessages = map[string]map[string]string{
	"Title": {
		"required": "Title is required",
		"max":      "Title must be 32 characters or less",
	},
	"Description": {
		"max": "Description must be 1000 characters or less",
	},
}

type inputValidator struct {
	v *validator.Validate
}

func newInputValidator() *inputValidator {
	return &inputValidator{v: validator.New()}
}

// Validate returns a Validation error listing every failed field rule.
func (iv *inputValidator) Validate(in CreatePostInput) error {
	err := iv.v.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.Unknown("posts.validate", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		msgs = append(msgs, msg)
	}
	return common.Validation("posts.create", strings.Join(msgs, "; "))
}
