package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/mememage/mememage/internal/events"
	"github.com/mememage/mememage/internal/metrics"
	"github.com/mememage/mememage/internal/model"
	"github.com/mememage/mememage/internal/testutil"
)

type memeEnv struct {
	svc       *MemeService
	store     *testutil.MemoryStore
	comp      *fakeCompositor
	templates *fakeTemplates
	recorder  *metrics.InMemoryRecorder
	events    *recordingPublisher
	outputDir string
	owner     *model.User
}

func newMemeEnv(t *testing.T) *memeEnv {
	t.Helper()

	store := testutil.NewMemoryStore()
	owner, err := store.CreateUser(context.Background(), "alice", "a@x.com", "hash")
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}

	dir := t.TempDir()
	env := &memeEnv{
		store:     store,
		comp:      &fakeCompositor{},
		templates: &fakeTemplates{dir: filepath.Join(dir, "templates"), known: map[string]bool{"drake": true}},
		recorder:  metrics.NewInMemory(),
		events:    &recordingPublisher{},
		outputDir: filepath.Join(dir, "memes"),
		owner:     owner,
	}
	env.svc = NewMemeService(store, env.comp, env.templates, env.outputDir, env.events, env.recorder, discardLogger())
	return env
}

func (e *memeEnv) create(t *testing.T, title string) *model.Meme {
	t.Helper()

	meme, err := e.svc.Create(context.Background(), e.owner.ID.String(), CreateMemeInput{Title: title})
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", title, err)
	}
	return meme
}

func ptr(s string) *string { return &s }

func TestMemeService_Create(t *testing.T) {
	t.Parallel()
	env := newMemeEnv(t)

	meme, err := env.svc.Create(context.Background(), env.owner.ID.String(), CreateMemeInput{
		Title:        "hi",
		TopText:      ptr("top"),
		BottomText:   ptr("bottom"),
		TemplateName: ptr("drake"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if meme.Views != 0 || meme.Likes != 0 {
		t.Errorf("counters should start at zero: views=%d likes=%d", meme.Views, meme.Likes)
	}
	if meme.UserID != env.owner.ID {
		t.Errorf("UserID = %s, want %s", meme.UserID, env.owner.ID)
	}
	if meme.ImageURL != "/uploads/memes/"+meme.ID.String()+".jpg" {
		t.Errorf("ImageURL = %s", meme.ImageURL)
	}
	if model.StringValue(meme.TemplateName) != "drake" {
		t.Errorf("TemplateName = %v", meme.TemplateName)
	}

	if env.comp.callCount() != 1 {
		t.Fatalf("compositor calls = %d, want 1", env.comp.callCount())
	}
	call := env.comp.calls[0]
	if call.template != filepath.Join(env.templates.dir, "drake.jpg") {
		t.Errorf("template = %s", call.template)
	}
	if call.top != "top" || call.bottom != "bottom" {
		t.Errorf("captions = %q / %q", call.top, call.bottom)
	}
	if call.output != filepath.Join(env.outputDir, meme.ID.String()+".jpg") {
		t.Errorf("output = %s", call.output)
	}
	if _, err := os.Stat(call.output); err != nil {
		t.Errorf("rendered file missing: %v", err)
	}

	snap := env.recorder.Snapshot()
	if snap.MemesCreated != 1 || snap.CompositeCount != 1 {
		t.Errorf("metrics = %+v", snap)
	}
	if got := env.events.types(); len(got) != 1 || got[0] != events.TypeMemeCreated {
		t.Errorf("events = %v", got)
	}
}

func TestMemeService_CreateDefaultTemplate(t *testing.T) {
	t.Parallel()
	env := newMemeEnv(t)

	env.create(t, "plain")

	if got := env.comp.calls[0].template; got != filepath.Join(env.templates.dir, "default.jpg") {
		t.Errorf("template = %s, want default.jpg", got)
	}
	if env.comp.calls[0].top != "" || env.comp.calls[0].bottom != "" {
		t.Error("absent captions should be passed as empty strings")
	}
}

func TestMemeService_CreateWithUpload(t *testing.T) {
	t.Parallel()
	env := newMemeEnv(t)

	_, err := env.svc.Create(context.Background(), env.owner.ID.String(), CreateMemeInput{
		Title:        "upload",
		TemplateName: ptr("drake"),
		ImageData:    ptr("aGVsbG8="),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if got := env.comp.calls[0].template; got != filepath.Join(env.templates.dir, "upload.png") {
		t.Errorf("upload should take precedence over template name, got %s", got)
	}
	if env.templates.staged != 1 || env.templates.cleanups != 1 {
		t.Errorf("staged=%d cleanups=%d, want 1/1", env.templates.staged, env.templates.cleanups)
	}
}

func TestMemeService_CreateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input CreateMemeInput
		field string
	}{
		{"empty title", CreateMemeInput{Title: ""}, "title"},
		{"long title", CreateMemeInput{Title: strings.Repeat("t", 101)}, "title"},
		{"long top text", CreateMemeInput{Title: "ok", TopText: ptr(strings.Repeat("x", 201))}, "top_text"},
		{"long bottom text", CreateMemeInput{Title: "ok", BottomText: ptr(strings.Repeat("x", 201))}, "bottom_text"},
		{"long template name", CreateMemeInput{Title: "ok", TemplateName: ptr(strings.Repeat("x", 65))}, "template_name"},
		{"unknown template", CreateMemeInput{Title: "ok", TemplateName: ptr("grumpy-cat")}, "template_name"},
		{"bad upload", CreateMemeInput{Title: "ok", ImageData: ptr("bad")}, "image_data"},
		{"NUL in top text", CreateMemeInput{Title: "ok", TopText: ptr("a\x00b")}, "top_text"},
		{"NUL in bottom text", CreateMemeInput{Title: "ok", TopText: ptr("fine"), BottomText: ptr("a\x00b")}, "bottom_text"},
		{"NUL in template name", CreateMemeInput{Title: "ok", TemplateName: ptr("dra\x00ke")}, "template_name"},
		{"NUL in title", CreateMemeInput{Title: "o\x00k"}, "title"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newMemeEnv(t)

			_, err := env.svc.Create(context.Background(), env.owner.ID.String(), tt.input)
			assertValidation(t, err, tt.field)

			memes, _ := env.store.ListMemes(context.Background(), 100, 0)
			if len(memes) != 0 {
				t.Error("nothing should be persisted on validation failure")
			}
			if env.comp.callCount() != 0 {
				t.Error("compositor must not run for invalid input")
			}
		})
	}
}

func TestMemeService_CreateValidatesBeforeSubject(t *testing.T) {
	t.Parallel()
	env := newMemeEnv(t)

	_, err := env.svc.Create(context.Background(), "not-a-uuid", CreateMemeInput{Title: ""})
	assertValidation(t, err, "title")

	_, err = env.svc.Create(context.Background(), "not-a-uuid", CreateMemeInput{Title: "hi"})
	assertValidation(t, err, "sub")

	if env.comp.callCount() != 0 {
		t.Error("compositor must not run for rejected requests")
	}
}

func TestMemeService_CreateCompositingFailure(t *testing.T) {
	t.Parallel()
	env := newMemeEnv(t)
	env.comp.err = errors.New("decoder exploded")

	_, err := env.svc.Create(context.Background(), env.owner.ID.String(), CreateMemeInput{Title: "hi"})
	if !errors.Is(err, ErrCompositing) {
		t.Fatalf("error = %v, want ErrCompositing", err)
	}

	memes, _ := env.store.ListMemes(context.Background(), 100, 0)
	if len(memes) != 0 {
		t.Error("nothing should be persisted when compositing fails")
	}
	if env.recorder.Snapshot().CompositeFailures != 1 {
		t.Error("compositing failure should be counted")
	}
}

func TestMemeService_CreateUnknownOwner(t *testing.T) {
	t.Parallel()
	env := newMemeEnv(t)

	_, err := env.svc.Create(context.Background(), uuid.NewString(), CreateMemeInput{Title: "hi"})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("error = %v, want ErrUnauthenticated", err)
	}

	entries, _ := os.ReadDir(env.outputDir)
	if len(entries) != 0 {
		t.Errorf("orphaned image should be removed, found %d files", len(entries))
	}
}

func TestMemeService_GetRecordsView(t *testing.T) {
	t.Parallel()
	env := newMemeEnv(t)
	created := env.create(t, "hi")

	got, err := env.svc.Get(context.Background(), created.ID.String())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Views != 1 {
		t.Errorf("Views = %d, want 1", got.Views)
	}

	again, _ := env.svc.Get(context.Background(), created.ID.String())
	if again.Views != 2 {
		t.Errorf("Views = %d, want 2", again.Views)
	}

	if env.recorder.Snapshot().MemesViewed != 2 {
		t.Error("views should be counted")
	}
}

func TestMemeService_GetNotFound(t *testing.T) {
	t.Parallel()
	env := newMemeEnv(t)

	for _, id := range []string{uuid.NewString(), "not-a-uuid", ""} {
		if _, err := env.svc.Get(context.Background(), id); !errors.Is(err, ErrMemeNotFound) || !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrMemeNotFound", id, err)
		}
	}
}

func TestMemeService_Like(t *testing.T) {
	t.Parallel()
	env := newMemeEnv(t)
	created := env.create(t, "hi")

	for want := int64(1); want <= 2; want++ {
		likes, err := env.svc.Like(context.Background(), created.ID.String())
		if err != nil {
			t.Fatalf("Like failed: %v", err)
		}
		if likes != want {
			t.Errorf("likes = %d, want %d", likes, want)
		}
	}

	if _, err := env.svc.Like(context.Background(), uuid.NewString()); !errors.Is(err, ErrMemeNotFound) {
		t.Errorf("Like unknown error = %v, want ErrMemeNotFound", err)
	}
	if _, err := env.svc.Like(context.Background(), "nope"); !errors.Is(err, ErrMemeNotFound) {
		t.Errorf("Like bad id error = %v, want ErrMemeNotFound", err)
	}

	types := env.events.types()
	if len(types) != 3 || types[1] != events.TypeMemeLiked || types[2] != events.TypeMemeLiked {
		t.Errorf("events = %v", types)
	}
}

func TestMemeService_ConcurrentLikes(t *testing.T) {
	t.Parallel()
	env := newMemeEnv(t)
	created := env.create(t, "hi")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.svc.Like(context.Background(), created.ID.String()); err != nil {
				t.Errorf("Like failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := env.store.GetMemeByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetMemeByID failed: %v", err)
	}
	if got.Likes != 2 {
		t.Errorf("Likes = %d, want 2", got.Likes)
	}
}

func TestMemeService_List(t *testing.T) {
	t.Parallel()
	env := newMemeEnv(t)

	var ids []uuid.UUID
	for _, title := range []string{"one", "two", "three"} {
		ids = append(ids, env.create(t, title).ID)
	}

	all, err := env.svc.List(context.Background(), DefaultListLimit, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("List should return newest first, got %d memes", len(all))
	}

	page, _ := env.svc.List(context.Background(), 1, 1)
	if len(page) != 1 || page[0].ID != ids[1] {
		t.Errorf("List(1, 1) = %v", page)
	}

	neg, _ := env.svc.List(context.Background(), -5, -5)
	if len(neg) != 3 {
		t.Errorf("negative paging should fall back to defaults, got %d", len(neg))
	}

	beyond, _ := env.svc.List(context.Background(), 10, 10)
	if beyond == nil || len(beyond) != 0 {
		t.Errorf("offset past the end should give an empty slice, got %v", beyond)
	}
}

func TestMemeService_ListForUser(t *testing.T) {
	t.Parallel()
	env := newMemeEnv(t)

	bob, _ := env.store.CreateUser(context.Background(), "bob", "b@x.com", "hash")
	mine := env.create(t, "mine")
	if _, err := env.svc.Create(context.Background(), bob.ID.String(), CreateMemeInput{Title: "theirs"}); err != nil {
		t.Fatalf("Create for bob failed: %v", err)
	}

	got, err := env.svc.ListForUser(context.Background(), env.owner.ID.String())
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Errorf("ListForUser = %v", got)
	}

	_, err = env.svc.ListForUser(context.Background(), "garbage")
	assertValidation(t, err, "sub")
}

func TestNormalizePage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{20, 0, 20, 0},
		{-1, 0, DefaultListLimit, 0},
		{0, 0, 0, 0},
		{500, 3, MaxListLimit, 3},
		{10, -4, 10, 0},
	}

	for _, tt := range tests {
		limit, offset := normalizePage(tt.limit, tt.offset)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("normalizePage(%d, %d) = (%d, %d), want (%d, %d)",
				tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}
