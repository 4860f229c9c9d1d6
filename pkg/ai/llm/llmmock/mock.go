// Package llmmock provides a scripted LLM for tests.
package llmmock

import (
	"context"
	"errors"
	"sync"

	"github.com/memorai/memorai/pkg/ai/llm"
)

// ErrExhausted is returned once every scripted reply has been consumed
var ErrExhausted = errors.New("llmmock: no scripted reply left")

// Scripted replies with queued contents in order and records every call
type Scripted struct {
	mu      sync.Mutex
	replies []reply
	calls   []Call
}

type reply struct {
	content string
	err     error
}

// Call is one recorded Chat invocation
type Call struct {
	Messages []llm.Message
	Options  llm.ChatOptions
}

var _ llm.LLM = (*Scripted)(nil)

func New(contents ...string) *Scripted {
	s := &Scripted{}
	for _, c := range contents {
		s.Reply(c)
	}
	return s
}

func (s *Scripted) Reply(content string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, reply{content: content})
	return s
}

func (s *Scripted) Fail(err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, reply{err: err})
	return s
}

func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Scripted) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	options := llm.DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Messages: messages, Options: *options})

	if len(s.replies) == 0 {
		return llm.Response{}, ErrExhausted
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	if r.err != nil {
		return llm.Response{}, r.err
	}
	return llm.Response{Message: llm.NewAssistantMessage(r.content)}, nil
}
