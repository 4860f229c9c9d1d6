package memorysrv

import (
	"context"
	"strconv"

	"github.com/memorai/memorai/pkg/ai/llm"
	"github.com/memorai/memorai/pkg/errx"
	"github.com/memorai/memorai/pkg/logx"
	"github.com/memorai/memorai/pkg/memory"
	"golang.org/x/sync/errgroup"
)

const roleSystem = "system"

func (s *MemoryService) Add(ctx context.Context, messages []memory.Message, opts ...memory.Option) (*memory.AddResult, error) {
	o := memory.NewOptions(opts...)
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}

	if !o.Infer {
		return s.addRaw(ctx, messages, o)
	}
	return s.addInferred(ctx, messages, o)
}

// addRaw stores every non-system message verbatim as one memory
func (s *MemoryService) addRaw(ctx context.Context, messages []memory.Message, o *memory.Options) (*memory.AddResult, error) {
	result := &memory.AddResult{Results: []memory.AddResultItem{}}
	for _, m := range messages {
		if m.Role == roleSystem || m.Content == "" {
			continue
		}
		emb, err := s.embedder.EmbedQuery(ctx, m.Content)
		if err != nil {
			return nil, errx.Wrap(err, "failed to embed message", errx.TypeExternal)
		}
		id, err := s.createMemory(ctx, newMemory{
			data:     m.Content,
			vector:   emb.Vector,
			metadata: o.Metadata,
			filters:  o.Filters(),
			actorID:  m.Name,
			role:     m.Role,
		})
		if err != nil {
			return nil, err
		}
		result.Results = append(result.Results, memory.AddResultItem{ID: id, Memory: m.Content, Event: memory.EventAdd})
	}
	return result, nil
}

func (s *MemoryService) addInferred(ctx context.Context, messages []memory.Message, o *memory.Options) (*memory.AddResult, error) {
	result := &memory.AddResult{Results: []memory.AddResultItem{}}

	lines := make([][2]string, 0, len(messages))
	for _, m := range messages {
		if m.Role == roleSystem || m.Content == "" {
			continue
		}
		lines = append(lines, [2]string{m.Role, m.Content})
	}
	if len(lines) == 0 {
		return result, nil
	}

	facts, err := s.extractFacts(ctx, formatConversation(lines))
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return result, nil
	}

	filters := o.Filters()
	vectors, existing, err := s.gatherNeighbours(ctx, facts, filters)
	if err != nil {
		return nil, err
	}

	// the model sees short integer ids instead of UUIDs
	aliases := make([]aliasedMemory, len(existing))
	realIDs := make(map[string]string, len(existing))
	for i, e := range existing {
		alias := strconv.Itoa(i)
		aliases[i] = aliasedMemory{ID: alias, Text: e.Text}
		realIDs[alias] = e.ID
	}

	actions, err := s.decideActions(ctx, aliases, facts)
	if err != nil {
		return nil, err
	}

	for _, a := range actions {
		item, err := s.applyAction(ctx, a, realIDs, vectors, o)
		if err != nil {
			return nil, err
		}
		if item != nil {
			result.Results = append(result.Results, *item)
		}
	}
	return result, nil
}

func (s *MemoryService) extractFacts(ctx context.Context, conversation string) ([]string, error) {
	resp, err := s.llm.Chat(ctx, []llm.Message{
		llm.NewSystemMessage(buildFactExtractionPrompt(s.now())),
		llm.NewUserMessage("Input:\n" + conversation),
	}, llm.WithJSONMode())
	if err != nil {
		return nil, errx.Wrap(err, "fact extraction failed", errx.TypeExternal)
	}

	facts, err := parseFacts(resp.Message.Content)
	if err != nil {
		logx.Warn("discarding fact extraction reply", "error", err)
		return nil, nil
	}
	return facts, nil
}

func (s *MemoryService) decideActions(ctx context.Context, existing []aliasedMemory, facts []string) ([]action, error) {
	resp, err := s.llm.Chat(ctx, []llm.Message{
		llm.NewUserMessage(buildUpdatePrompt(existing, facts)),
	}, llm.WithJSONMode())
	if err != nil {
		return nil, errx.Wrap(err, "memory update decision failed", errx.TypeExternal)
	}

	actions, err := parseActions(resp.Message.Content)
	if err != nil {
		logx.Warn("discarding memory update reply", "error", err)
		return nil, nil
	}
	return actions, nil
}

// gatherNeighbours embeds every fact and collects the distinct memories closest to any of them
func (s *MemoryService) gatherNeighbours(ctx context.Context, facts []string, filters memory.Filters) (map[string][]float32, []aliasedMemory, error) {
	vecs := make([][]float32, len(facts))
	hits := make([][]memory.ScoredPoint, len(facts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, fact := range facts {
		g.Go(func() error {
			emb, err := s.embedder.EmbedQuery(gctx, fact)
			if err != nil {
				return errx.Wrap(err, "failed to embed fact", errx.TypeExternal)
			}
			vecs[i] = emb.Vector
			found, err := s.store.Search(gctx, emb.Vector, reconcileSearchLimit, filters)
			if err != nil {
				return errx.Wrap(err, "failed to search memories", errx.TypeExternal)
			}
			hits[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	vectors := make(map[string][]float32, len(facts))
	for i, fact := range facts {
		vectors[fact] = vecs[i]
	}

	seen := map[string]bool{}
	var existing []aliasedMemory
	for _, found := range hits {
		for _, h := range found {
			if seen[h.ID] {
				continue
			}
			seen[h.ID] = true
			text, _ := h.Payload[memory.PayloadData].(string)
			existing = append(existing, aliasedMemory{ID: h.ID, Text: text})
		}
	}
	return vectors, existing, nil
}

func (s *MemoryService) vectorFor(ctx context.Context, text string, vectors map[string][]float32) ([]float32, error) {
	if v, ok := vectors[text]; ok {
		return v, nil
	}
	emb, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, errx.Wrap(err, "failed to embed memory", errx.TypeExternal)
	}
	vectors[text] = emb.Vector
	return emb.Vector, nil
}

// applyAction executes one model decision. Decisions naming unknown ids are skipped.
func (s *MemoryService) applyAction(
	ctx context.Context,
	a action,
	realIDs map[string]string,
	vectors map[string][]float32,
	o *memory.Options,
) (*memory.AddResultItem, error) {
	switch a.Event {
	case memory.EventAdd:
		if a.Text == "" {
			return nil, nil
		}
		vec, err := s.vectorFor(ctx, a.Text, vectors)
		if err != nil {
			return nil, err
		}
		id, err := s.createMemory(ctx, newMemory{
			data:     a.Text,
			vector:   vec,
			metadata: o.Metadata,
			filters:  o.Filters(),
		})
		if err != nil {
			return nil, err
		}
		return &memory.AddResultItem{ID: id, Memory: a.Text, Event: memory.EventAdd}, nil

	case memory.EventUpdate:
		id, ok := realIDs[a.ID]
		if !ok || a.Text == "" {
			logx.Warn("skipping update of unknown memory", "alias", a.ID)
			return nil, nil
		}
		vec, err := s.vectorFor(ctx, a.Text, vectors)
		if err != nil {
			return nil, err
		}
		old, err := s.updateMemory(ctx, id, a.Text, vec)
		if err != nil {
			return nil, err
		}
		return &memory.AddResultItem{ID: id, Memory: a.Text, Event: memory.EventUpdate, PreviousMemory: old}, nil

	case memory.EventDelete:
		id, ok := realIDs[a.ID]
		if !ok {
			logx.Warn("skipping delete of unknown memory", "alias", a.ID)
			return nil, nil
		}
		old, err := s.deleteMemory(ctx, id)
		if err != nil {
			return nil, err
		}
		return &memory.AddResultItem{ID: id, Memory: old, Event: memory.EventDelete}, nil
	}
	return nil, nil
}
