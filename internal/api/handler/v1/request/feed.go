package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreatePostRequest struct {
	Body string `json:"body"`
}

func (req *CreatePostRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Body, validation.Required, validation.Length(1, 1000)),
	)
}
