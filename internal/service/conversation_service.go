package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"ideawalker-core/internal/constant"
	"ideawalker-core/internal/pkg/fsutil"
	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/pkg/llm"
)

const (
	sessionTimeLayout = "2006-01-02_15-04-05"
	noAnswerReply     = "[Erro: Sem resposta do AI]"
)

var ErrNoSession = errors.New("no active conversation session")

type IConversationService interface {
	StartSession(ctx context.Context, noteFilename string) error
	SendMessage(ctx context.Context, message string) (string, error)
	History() []llm.Message
	ListDialogues() ([]string, error)
}

type conversationService struct {
	thoughts     contract.ThoughtRepository
	client       llm.Client
	dialoguesDir string
	logger       logger.ILogger
	now          func() time.Time

	mu        sync.Mutex
	noteID    string
	startedAt string
	history   []llm.Message
}

func NewConversationService(thoughts contract.ThoughtRepository, client llm.Client, dialoguesDir string, log logger.ILogger) IConversationService {
	return &conversationService{
		thoughts:     thoughts,
		client:       client,
		dialoguesDir: dialoguesDir,
		logger:       log,
		now:          time.Now,
	}
}

// StartSession resets the dialogue around one note and writes the empty transcript.
func (s *conversationService) StartSession(ctx context.Context, noteFilename string) error {
	content, err := s.thoughts.GetNoteContent(ctx, noteFilename)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.noteID = noteFilename
	s.startedAt = s.now().Format(sessionTimeLayout)
	s.history = []llm.Message{{Role: "system", Content: fmt.Sprintf(constant.ConversationPrompt, content)}}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	return s.save(snapshot)
}

// SendMessage blocks on the model. A missing answer is recorded in the
// transcript rather than returned as an error.
func (s *conversationService) SendMessage(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	if s.noteID == "" {
		s.mu.Unlock()
		return "", ErrNoSession
	}
	s.history = append(s.history, llm.Message{Role: "user", Content: message})
	pending := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.save(pending); err != nil {
		return "", err
	}

	reply, ok := s.client.Chat(ctx, pending.history, false)
	if !ok {
		reply = noAnswerReply
		s.logger.Warn("Conversation", "Model returned no answer", map[string]interface{}{"note": pending.noteID})
	}

	s.mu.Lock()
	s.history = append(s.history, llm.Message{Role: "assistant", Content: reply})
	done := s.snapshotLocked()
	s.mu.Unlock()

	return reply, s.save(done)
}

func (s *conversationService) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Message(nil), s.history...)
}

// ListDialogues returns saved transcripts, newest first.
func (s *conversationService) ListDialogues() ([]string, error) {
	entries, err := os.ReadDir(s.dialoguesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) == ".md" {
			files = append(files, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

type sessionSnapshot struct {
	noteID    string
	startedAt string
	history   []llm.Message
}

func (s *conversationService) snapshotLocked() sessionSnapshot {
	return sessionSnapshot{
		noteID:    s.noteID,
		startedAt: s.startedAt,
		history:   append([]llm.Message(nil), s.history...),
	}
}

func (s *conversationService) save(snap sessionSnapshot) error {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(snap.noteID)
	path := filepath.Join(s.dialoguesDir, safe+"_"+snap.startedAt+".md")

	var b strings.Builder
	b.WriteString("# Conversa do Projeto\n\n")
	b.WriteString("Data: " + snap.startedAt + "\n")
	b.WriteString("Nota Foco: " + snap.noteID + "\n\n")
	b.WriteString("---\n\n")
	for _, m := range snap.history {
		if m.Role == "system" {
			continue
		}
		speaker := "IdeaWalker"
		if m.Role == "user" {
			speaker = "Usuário"
		}
		b.WriteString("### " + speaker + "\n")
		b.WriteString(m.Content + "\n\n")
	}

	if err := fsutil.WriteFileAtomic(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("save dialogue: %w", err)
	}
	return nil
}
