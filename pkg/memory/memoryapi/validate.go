package memoryapi

import (
	"fmt"

	"github.com/cohesivestack/valgo"
	"github.com/memorai/memorai/pkg/errx"
	"github.com/memorai/memorai/pkg/memory"
)

// createBody decodes POST /memories keeping absent message fields distinguishable from empty ones
type createBody struct {
	memory.CreateRequest
	Messages []messageBody `json:"messages"`
}

type messageBody struct {
	Role    *string `json:"role"`
	Content *string `json:"content"`
	Name    string  `json:"name,omitempty"`
}

// request converts a validated body into the engine request
func (b createBody) request() memory.CreateRequest {
	req := b.CreateRequest
	req.Messages = make([]memory.Message, len(b.Messages))
	for i, m := range b.Messages {
		req.Messages[i] = memory.Message{Name: m.Name}
		if m.Role != nil {
			req.Messages[i].Role = *m.Role
		}
		if m.Content != nil {
			req.Messages[i].Content = *m.Content
		}
	}
	return req
}

func validateCreate(body createBody) *errx.Error {
	v := valgo.Is(valgo.Int(len(body.Messages), "messages").GreaterThan(0))
	for i, m := range body.Messages {
		v = v.Is(
			valgo.StringP(m.Role, fmt.Sprintf("messages[%d].role", i)).Not().Nil(),
			valgo.StringP(m.Content, fmt.Sprintf("messages[%d].content", i)).Not().Nil(),
		)
	}
	return checked(v)
}

func validateUpdate(req memory.UpdateRequest) *errx.Error {
	return checked(valgo.Is(
		valgo.String(req.Data, "data").Not().Empty(),
	))
}

func validateSearch(req memory.SearchRequest) *errx.Error {
	return checked(valgo.Is(
		valgo.String(req.Query, "query").Not().Empty(),
		valgo.Int(req.EffectiveLimit(), "limit").Between(1, memory.MaxSearchLimit),
	))
}

func validateListLimit(limit int) *errx.Error {
	return checked(valgo.Is(
		valgo.Int(limit, "limit").GreaterThan(0),
	))
}

// checked turns a failed validation into a 422 carrying the messages per field
func checked(v *valgo.Validation) *errx.Error {
	if v.Valid() {
		return nil
	}
	fields := make(map[string]any, len(v.Errors()))
	for name, fieldErr := range v.Errors() {
		fields[name] = fieldErr.Messages()
	}
	return memory.ErrInvalidRequest().WithDetails(fields)
}

func invalidBody(err error) *errx.Error {
	return memory.ErrInvalidRequest().WithMessage("Invalid request body").WithDetail("body", err.Error())
}
