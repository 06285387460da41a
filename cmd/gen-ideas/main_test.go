package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/ideascope/internal/ideagen"
	"github.com/cognicore/ideascope/pkg/ideascope/idea"
)

type scriptedChat struct {
	calls int
	fail  int
}

func (s *scriptedChat) Complete(_ context.Context, _, user string) (string, error) {
	s.calls++
	if s.calls == s.fail {
		return "", errors.New("rate limited")
	}
	if s.calls > 1 && !strings.Contains(user, "Idea 1") {
		return "", errors.New("earlier titles missing from prompt")
	}
	return fmt.Sprintf(`{"Idea %d": {"Problem": "p"}}`, s.calls), nil
}

func TestGenerateRounds(t *testing.T) {
	chat := &scriptedChat{}
	cache := &idea.Cache{TopicDescription: "math"}
	if err := generate(context.Background(), &ideagen.Generator{Chat: chat}, cache, 1, 3, time.Second); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := cache.Titles(); len(got) != 3 || got[2] != "Idea 3" {
		t.Errorf("unexpected titles %v", got)
	}
}

func TestGenerateStopsOnError(t *testing.T) {
	chat := &scriptedChat{fail: 2}
	cache := &idea.Cache{TopicDescription: "math"}
	err := generate(context.Background(), &ideagen.Generator{Chat: chat}, cache, 1, 3, time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(cache.Ideas) != 1 {
		t.Errorf("ideas from earlier rounds should be kept, got %d", len(cache.Ideas))
	}
}
