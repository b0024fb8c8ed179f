package service

import (
	"context"
	"io"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/internal/media"
	"github.com/artwall/artwall/internal/repository"
	"github.com/artwall/artwall/pkg/log"
)

// messageServiceImpl implements MessageService.
type messageServiceImpl struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	uploader *media.Uploader
	recent   singleflight.Group
}

// NewMessageService creates a new message service.
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, uploader *media.Uploader) MessageService {
	return &messageServiceImpl{
		messages: messages,
		users:    users,
		uploader: uploader,
	}
}

// Send validates, stores, and expands a message.
func (s *messageServiceImpl) Send(ctx context.Context, fromUserID string, req *domain.SendMessageRequest, image io.Reader) (*domain.Message, *domain.MessageEvent, error) {
	l := log.Ctx(ctx)

	text := strings.TrimSpace(req.Text)
	if text == "" && image == nil {
		return nil, nil, ErrEmptyMessage
	}

	msg := &domain.Message{
		FromUserID:  fromUserID,
		ToUserID:    req.ToUserID,
		Text:        text,
		MessageType: domain.MessageTypeText,
	}

	if image != nil {
		url, err := s.uploader.UploadImage(ctx, media.KindChat, fromUserID, image)
		if err != nil {
			l.Error().Err(err).Msg("failed to upload chat image")
			return nil, nil, err
		}
		msg.MessageType = domain.MessageTypeImage
		msg.MediaURL = url
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		l.Error().Err(err).Msg("failed to store message")
		return nil, nil, err
	}

	event, err := s.expand(ctx, msg)
	if err != nil {
		l.Error().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to expand message")
		return nil, nil, err
	}

	l.Info().
		Str(log.FieldMessageID, msg.ID).
		Str(log.FieldFromUserID, msg.FromUserID).
		Str(log.FieldToUserID, msg.ToUserID).
		Str("message_type", msg.MessageType).
		Msg("message stored")

	return msg, event, nil
}

// Conversation returns the full exchange with the other user, sorted by
// creation time with ID as tie-break, and marks inbound messages seen.
func (s *messageServiceImpl) Conversation(ctx context.Context, userID, otherUserID string) ([]*domain.Message, error) {
	msgs, err := s.messages.FindConversation(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})

	if err := s.messages.MarkSeen(ctx, otherUserID, userID); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).
			Str(log.FieldFromUserID, otherUserID).
			Str(log.FieldToUserID, userID).
			Msg("failed to mark messages seen")
	}

	return msgs, nil
}

// Recent returns the user's messages across all counterparts, newest
// first, with participants expanded. Concurrent calls for the same
// user collapse into one query.
func (s *messageServiceImpl) Recent(ctx context.Context, userID string) ([]*domain.MessageEvent, error) {
	v, err, _ := s.recent.Do(userID, func() (interface{}, error) {
		msgs, err := s.messages.FindRecentByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.expandAll(ctx, msgs)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.MessageEvent), nil
}

// expand builds a MessageEvent with both participants resolved.
func (s *messageServiceImpl) expand(ctx context.Context, msg *domain.Message) (*domain.MessageEvent, error) {
	events, err := s.expandAll(ctx, []*domain.Message{msg})
	if err != nil {
		return nil, err
	}
	return events[0], nil
}

// expandAll resolves every participant referenced by the messages in a
// single batch lookup. Messages whose participants no longer exist keep
// zero-valued refs with the bare ID.
func (s *messageServiceImpl) expandAll(ctx context.Context, msgs []*domain.Message) ([]*domain.MessageEvent, error) {
	idSet := make(map[string]struct{}, len(msgs)*2)
	for _, m := range msgs {
		idSet[m.FromUserID] = struct{}{}
		idSet[m.ToUserID] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	refs := make(map[string]domain.UserRef, len(users))
	for _, u := range users {
		refs[u.ID] = u.ToRef()
	}

	events := make([]*domain.MessageEvent, 0, len(msgs))
	for _, m := range msgs {
		from, ok := refs[m.FromUserID]
		if !ok {
			from = domain.UserRef{ID: m.FromUserID}
		}
		to, ok := refs[m.ToUserID]
		if !ok {
			to = domain.UserRef{ID: m.ToUserID}
		}
		events = append(events, &domain.MessageEvent{
			ID:          m.ID,
			FromUser:    from,
			ToUser:      to,
			Text:        m.Text,
			MessageType: m.MessageType,
			MediaURL:    m.MediaURL,
			Seen:        m.Seen,
			CreatedAt:   m.CreatedAt,
		})
	}
	return events, nil
}
