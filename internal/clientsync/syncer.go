package clientsync

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

// Syncer runs each mutation through the optimistic protocol: snapshot the
// affected cache keys, apply the local transformation, call the server, then
// either merge the canonical result or restore the snapshot wholesale. A
// synthetic optimistic entry never outlives settlement on either path.
type Syncer struct {
	cache *Cache
	api   API
	log   *logger.Logger
}

func NewSyncer(cache *Cache, api API, log *logger.Logger) *Syncer {
	return &Syncer{cache: cache, api: api, log: log.With("component", "Syncer")}
}

func (s *Syncer) Cache() *Cache { return s.cache }

func messageList(c *Cache, key string) []*types.Message {
	v, ok := c.Get(key)
	if !ok {
		return nil
	}
	list, _ := v.([]*types.Message)
	return list
}

// SendMessage appends an optimistic user message at the end of the cached
// thread, then replaces it with the server's canonical turns.
func (s *Syncer) SendMessage(ctx context.Context, conversationID uuid.UUID, content string) (*MessageSettlement, error) {
	key := MessagesKey(conversationID)
	snap := s.cache.Snapshot(key, KeyConversations)

	tempID := uuid.New()
	current := messageList(s.cache, key)
	optimistic := make([]*types.Message, 0, len(current)+1)
	optimistic = append(optimistic, current...)
	optimistic = append(optimistic, &types.Message{
		ID:             tempID,
		ConversationID: conversationID,
		Role:           types.RoleUser,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	})
	s.cache.Set(key, optimistic)

	res, err := s.api.SendMessage(ctx, conversationID, content)
	if err != nil {
		s.cache.Restore(snap)
		return nil, err
	}

	settled := make([]*types.Message, 0, len(optimistic)+1)
	for _, m := range optimistic {
		if m.ID == tempID {
			continue
		}
		settled = append(settled, m)
	}
	if res.UserMessage != nil {
		settled = append(settled, res.UserMessage)
	}
	if res.AIMessage != nil {
		settled = append(settled, res.AIMessage)
	}
	s.cache.Set(key, settled)
	s.cache.Invalidate(KeyConversations)
	return res, nil
}

// EditMessage rewrites the target message in place in the cached thread.
// Position never changes; only content does.
func (s *Syncer) EditMessage(ctx context.Context, conversationID, messageID uuid.UUID, content string, regenerate bool) (*MessageSettlement, error) {
	key := MessagesKey(conversationID)
	snap := s.cache.Snapshot(key, KeyConversations)

	current := messageList(s.cache, key)
	optimistic := make([]*types.Message, len(current))
	for i, m := range current {
		if m.ID == messageID {
			edited := *m
			edited.Content = content
			optimistic[i] = &edited
		} else {
			optimistic[i] = m
		}
	}
	s.cache.Set(key, optimistic)

	res, err := s.api.EditMessage(ctx, conversationID, messageID, content, regenerate)
	if err != nil {
		s.cache.Restore(snap)
		return nil, err
	}

	settled := make([]*types.Message, 0, len(optimistic)+1)
	for _, m := range optimistic {
		if res.UserMessage != nil && m.ID == res.UserMessage.ID {
			settled = append(settled, res.UserMessage)
		} else {
			settled = append(settled, m)
		}
	}
	if res.AIMessage != nil {
		settled = append(settled, res.AIMessage)
	}
	s.cache.Set(key, settled)
	s.cache.Invalidate(KeyConversations)
	return res, nil
}

func conversationList(c *Cache) []*types.Conversation {
	v, ok := c.Get(KeyConversations)
	if !ok {
		return nil
	}
	list, _ := v.([]*types.Conversation)
	return list
}

// UpdateConversation maps the patch over the cached list entry and the single
// conversation cache, then merges the canonical row from the server.
func (s *Syncer) UpdateConversation(ctx context.Context, conversationID uuid.UUID, patch ConversationPatch) (*types.Conversation, error) {
	singleKey := ConversationKey(conversationID)
	snap := s.cache.Snapshot(KeyConversations, singleKey)

	apply := func(c *types.Conversation) *types.Conversation {
		out := *c
		if patch.Title != nil {
			out.Title = *patch.Title
		}
		if patch.IsStarred != nil {
			out.IsStarred = *patch.IsStarred
		}
		if patch.IsArchived != nil {
			out.IsArchived = *patch.IsArchived
		}
		if patch.ProjectID != nil {
			if *patch.ProjectID == uuid.Nil {
				out.ProjectID = nil
			} else {
				id := *patch.ProjectID
				out.ProjectID = &id
			}
		}
		return &out
	}

	current := conversationList(s.cache)
	if current != nil {
		optimistic := make([]*types.Conversation, len(current))
		for i, c := range current {
			if c.ID == conversationID {
				optimistic[i] = apply(c)
			} else {
				optimistic[i] = c
			}
		}
		s.cache.Set(KeyConversations, optimistic)
	}
	if v, ok := s.cache.Get(singleKey); ok {
		if c, ok := v.(*types.Conversation); ok {
			s.cache.Set(singleKey, apply(c))
		}
	}

	canonical, err := s.api.UpdateConversation(ctx, conversationID, patch)
	if err != nil {
		s.cache.Restore(snap)
		return nil, err
	}

	if list := conversationList(s.cache); list != nil {
		merged := make([]*types.Conversation, len(list))
		for i, c := range list {
			if c.ID == conversationID {
				merged[i] = canonical
			} else {
				merged[i] = c
			}
		}
		s.cache.Set(KeyConversations, merged)
	}
	if _, ok := s.cache.Get(singleKey); ok {
		s.cache.Set(singleKey, canonical)
	}
	s.cache.Invalidate(KeyConversations)
	return canonical, nil
}

// DeleteConversation filters the entry out optimistically and restores it if
// the server refuses.
func (s *Syncer) DeleteConversation(ctx context.Context, conversationID uuid.UUID) error {
	singleKey := ConversationKey(conversationID)
	messagesKey := MessagesKey(conversationID)
	snap := s.cache.Snapshot(KeyConversations, singleKey, messagesKey)

	if current := conversationList(s.cache); current != nil {
		filtered := make([]*types.Conversation, 0, len(current))
		for _, c := range current {
			if c.ID != conversationID {
				filtered = append(filtered, c)
			}
		}
		s.cache.Set(KeyConversations, filtered)
	}

	if err := s.api.DeleteConversation(ctx, conversationID); err != nil {
		s.cache.Restore(snap)
		return err
	}
	s.cache.Invalidate(KeyConversations)
	return nil
}

func projectList(c *Cache) []*types.Project {
	v, ok := c.Get(KeyProjects)
	if !ok {
		return nil
	}
	list, _ := v.([]*types.Project)
	return list
}

func (s *Syncer) UpdateProject(ctx context.Context, projectID uuid.UUID, patch ProjectPatch) (*types.Project, error) {
	snap := s.cache.Snapshot(KeyProjects)

	current := projectList(s.cache)
	if current != nil {
		optimistic := make([]*types.Project, len(current))
		for i, p := range current {
			if p.ID == projectID {
				out := *p
				if patch.Name != nil {
					out.Name = *patch.Name
				}
				if patch.DisplayName != nil {
					out.DisplayName = *patch.DisplayName
				}
				if patch.IsStarred != nil {
					out.IsStarred = *patch.IsStarred
				}
				if patch.IsArchived != nil {
					out.IsArchived = *patch.IsArchived
				}
				optimistic[i] = &out
			} else {
				optimistic[i] = p
			}
		}
		s.cache.Set(KeyProjects, optimistic)
	}

	canonical, err := s.api.UpdateProject(ctx, projectID, patch)
	if err != nil {
		s.cache.Restore(snap)
		return nil, err
	}

	if list := projectList(s.cache); list != nil {
		merged := make([]*types.Project, len(list))
		for i, p := range list {
			if p.ID == projectID {
				merged[i] = canonical
			} else {
				merged[i] = p
			}
		}
		s.cache.Set(KeyProjects, merged)
	}
	s.cache.Invalidate(KeyProjects)
	return canonical, nil
}

func (s *Syncer) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	snap := s.cache.Snapshot(KeyProjects, KeyConversations)

	if current := projectList(s.cache); current != nil {
		filtered := make([]*types.Project, 0, len(current))
		for _, p := range current {
			if p.ID != projectID {
				filtered = append(filtered, p)
			}
		}
		s.cache.Set(KeyProjects, filtered)
	}

	if err := s.api.DeleteProject(ctx, projectID); err != nil {
		s.cache.Restore(snap)
		return err
	}
	// Conversations keep their rows but lose the project reference, so the
	// cached list is stale either way.
	s.cache.Invalidate(KeyProjects, KeyConversations)
	return nil
}
