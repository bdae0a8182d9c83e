package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mememage/mememage/internal/compositor"
	"github.com/mememage/mememage/internal/events"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCompositor writes a placeholder file instead of rendering.
type fakeCompositor struct {
	mu    sync.Mutex
	err   error
	calls []compositeCall
}

type compositeCall struct {
	template, top, bottom, output string
}

func (f *fakeCompositor) Composite(ctx context.Context, templatePath, topText, bottomText, outputPath string) error {
	f.mu.Lock()
	f.calls = append(f.calls, compositeCall{templatePath, topText, bottomText, outputPath})
	err := f.err
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if strings.ContainsRune(topText+bottomText, 0) {
		return compositor.ErrInvalidInput
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("jpeg"), 0o644)
}

func (f *fakeCompositor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeTemplates knows a fixed set of template names.
type fakeTemplates struct {
	dir      string
	known    map[string]bool
	staged   int
	cleanups int
}

func (f *fakeTemplates) Resolve(name string) (string, error) {
	if name == "" {
		return filepath.Join(f.dir, compositor.DefaultTemplate), nil
	}
	if !f.known[name] {
		return "", compositor.ErrTemplateNotFound
	}
	return filepath.Join(f.dir, name+".jpg"), nil
}

func (f *fakeTemplates) Stage(data string) (string, func(), error) {
	if data == "bad" {
		return "", nil, compositor.ErrInvalidImageData
	}
	f.staged++
	return filepath.Join(f.dir, "upload.png"), func() { f.cleanups++ }, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) PublishAsync(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeTokens issues predictable tokens.
type fakeTokens struct {
	err error
}

func (f fakeTokens) Issue(userID, username string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + userID, nil
}

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()

	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Field != field {
		t.Errorf("validation field = %q, want %q (message %q)", verr.Field, field, verr.Message)
	}
	if verr.Message == "" {
		t.Error("validation message should not be empty")
	}
}
