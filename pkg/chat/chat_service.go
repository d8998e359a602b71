package chat

import (
	"bufio"
	"chef-agent-api/domain"
	"chef-agent-api/entities"
	"chef-agent-api/internal/utils/storage"
	"chef-agent-api/pkg/agent"
	"chef-agent-api/pkg/message"
	"chef-agent-api/pkg/thread"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

const (
	MaxImageSize = 5 << 20
	imageFolder  = "chat-images"
)

type (
	// Conversation is the agent side of a chat: it reserves a thread for one
	// turn at a time.
	Conversation interface {
		Begin(ctx context.Context, threadID string) (*agent.Run, error)
	}

	ChatService interface {
		StartStream(ctx context.Context, req domain.ChatStreamRequest, image *domain.ChatImage, userID uint) (*Turn, error)
		StartResume(ctx context.Context, req domain.ChatResumeRequest, userID uint) (*Turn, error)
	}

	chatService struct {
		conversation   Conversation
		threadService  thread.ThreadService
		messageService message.MessageService
		s3             storage.AwsS3
	}

	// Turn is a started chat turn whose thread is already reserved. Write
	// must be called exactly once.
	Turn struct {
		threadID       string
		userID         uint
		language       string
		run            func(ctx context.Context, emit func(agent.Event)) error
		messageService message.MessageService
	}
)

func NewChatService(
	conversation Conversation,
	threadService thread.ThreadService,
	messageService message.MessageService,
	s3 storage.AwsS3,
) ChatService {
	return &chatService{
		conversation:   conversation,
		threadService:  threadService,
		messageService: messageService,
		s3:             s3,
	}
}

func (s *chatService) StartStream(ctx context.Context, req domain.ChatStreamRequest, image *domain.ChatImage, userID uint) (*Turn, error) {
	if _, err := s.threadService.GetThread(ctx, req.ThreadID, userID); err != nil {
		return nil, err
	}
	if image != nil {
		if len(image.Data) > MaxImageSize {
			return nil, domain.ErrImageTooLarge
		}
		if !storage.IsAllowed(image.ContentType, storage.AllowImage...) {
			return nil, domain.ErrImageType
		}
	}

	run, err := s.conversation.Begin(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}

	input := agent.UserMessage(req.Message)
	var imageURL string
	if image != nil {
		dataURL := fmt.Sprintf("data:%s;base64,%s", image.ContentType, base64.StdEncoding.EncodeToString(image.Data))
		input = agent.UserMessageWithImage(req.Message, dataURL)
		imageURL = s.archiveImage(ctx, image)
	}

	if _, err := s.messageService.AppendMessage(ctx, message.NewMessage{
		ThreadID: req.ThreadID,
		Role:     entities.RoleUser,
		Content:  req.Message,
		ImageURL: imageURL,
	}, userID); err != nil {
		run.Close()
		return nil, err
	}

	return &Turn{
		threadID: req.ThreadID,
		userID:   userID,
		language: req.UserLanguage,
		run: func(ctx context.Context, emit func(agent.Event)) error {
			return run.Stream(ctx, input, emit)
		},
		messageService: s.messageService,
	}, nil
}

func (s *chatService) StartResume(ctx context.Context, req domain.ChatResumeRequest, userID uint) (*Turn, error) {
	if _, err := s.threadService.GetThread(ctx, req.ThreadID, userID); err != nil {
		return nil, err
	}

	run, err := s.conversation.Begin(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}
	if err := run.CheckResume(ctx, req.Decisions); err != nil {
		run.Close()
		return nil, err
	}

	return &Turn{
		threadID: req.ThreadID,
		userID:   userID,
		language: req.UserLanguage,
		run: func(ctx context.Context, emit func(agent.Event)) error {
			return run.Resume(ctx, req.Decisions, emit)
		},
		messageService: s.messageService,
	}, nil
}

// archiveImage keeps a copy of the image for the thread history. The turn
// goes on without it when storage is off or the upload fails.
func (s *chatService) archiveImage(ctx context.Context, image *domain.ChatImage) string {
	if !s.s3.Enabled() {
		return ""
	}
	key, err := s.s3.UploadBytes(ctx, image.FileName, image.Data, image.ContentType, imageFolder)
	if err != nil {
		log.Warnf("failed to archive chat image: %v", err)
		return ""
	}
	return s.s3.GetPublicLinkKey(key)
}

// Write runs the turn and streams its events to w. The run is not tied to
// the client: if the client goes away the run still finishes and the
// assistant message is still stored.
func (t *Turn) Write(ctx context.Context, w *bufio.Writer) {
	ctx = agent.WithRunContext(context.WithoutCancel(ctx), agent.RunContext{
		ThreadID: t.threadID,
		UserID:   t.userID,
		Language: language(t.language),
	})
	out := &sseWriter{w: w}
	sh := newShaper(t.threadID, out.send)

	runErr := t.run(ctx, sh.handle)
	sh.endStep()

	t.persist(ctx, sh)
	if runErr != nil {
		log.Errorf("chat turn on thread %s failed: %v", t.threadID, runErr)
		out.send(Event{Type: EventError, Error: runErr.Error()})
	}
	if out.gone {
		log.Infof("client left thread %s before the turn finished", t.threadID)
	}
}

func (t *Turn) persist(ctx context.Context, sh *shaper) {
	content := sh.content()
	if content == "" {
		return
	}
	msg := message.NewMessage{
		ThreadID: t.threadID,
		Role:     entities.RoleAssistant,
		Content:  content,
	}
	if len(sh.recipes) > 0 {
		msg.RecipeData = sh.recipes
	}
	if _, err := t.messageService.AppendMessage(ctx, msg, t.userID); err != nil {
		log.Errorf("failed to store assistant message on thread %s: %v", t.threadID, err)
	}
}

func language(l string) string {
	if strings.TrimSpace(l) == "" {
		return domain.DefaultLanguage
	}
	return l
}
