package chat

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/gokoo/ai-toolbox/models"
)

func TestSimulatedReplyEchoesLastUserMessage(t *testing.T) {
	client := NewCompletionClient("", "", "", 0, 0, 0)
	reply, err := client.Complete(context.Background(), []*models.Message{
		{Role: models.RoleUser, Content: "hello there"},
		{Role: models.RoleAssistant, Content: "hi"},
		{Role: models.RoleUser, Content: "what can you do?"},
	})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if !strings.Contains(reply, "what can you do?") {
		t.Errorf("reply = %q, want echo of the latest user message", reply)
	}
}

func TestSimulatedReplyTruncatesOnRuneBoundaries(t *testing.T) {
	client := NewCompletionClient("", "", "", 0, 0, 0)
	long := strings.Repeat("翻译这段很长的中文内容", 30)
	reply, err := client.Complete(context.Background(), []*models.Message{
		{Role: models.RoleUser, Content: long},
	})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if !utf8.ValidString(reply) {
		t.Fatalf("reply is not valid UTF-8: %q", reply)
	}
	if strings.Contains(reply, string(utf8.RuneError)) {
		t.Errorf("reply contains a replacement rune: %q", reply)
	}
}
