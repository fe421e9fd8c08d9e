package story

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"serial-story-api/internal/domain/entity"
	"serial-story-api/internal/domain/repository"
	wfmodel "serial-story-api/internal/workflow/model"
	apperrors "serial-story-api/pkg/errors"
)

type fixture struct {
	svc        *Service
	books      *memBooks
	chapters   *memChapters
	generator  *fakeGenerator
	translator *fakeTranslator
	images     *fakeImages
	store      *fakeStore
	events     *recordingEvents
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		books:    newMemBooks(),
		chapters: &memChapters{},
		generator: &fakeGenerator{elements: entity.BookElements{
			Title:      "Night Tide",
			Genre:      "mystery",
			Theme:      "memory",
			Tone:       "eerie",
			Setting:    "a lighthouse",
			Characters: "Mara, the keeper",
		}},
		translator: &fakeTranslator{},
		images:     &fakeImages{},
		store:      &fakeStore{},
		events:     &recordingEvents{},
	}
	f.svc = NewService(f.books, f.chapters, f.generator, f.translator, f.images, f.store, f.events, opts)
	return f
}

func (f *fixture) seedBook(t *testing.T, owner string) *entity.Book {
	t.Helper()
	book := entity.NewBook(owner, f.generator.elements)
	if err := f.books.Create(context.Background(), book); err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return book
}

func (f *fixture) seedChapters(t *testing.T, bookID string, nums ...int) {
	t.Helper()
	for _, n := range nums {
		if err := f.chapters.Create(context.Background(), entity.NewChapter(bookID, n, "seeded")); err != nil {
			t.Fatalf("seed chapter %d: %v", n, err)
		}
	}
}

func TestFirstRequestGeneratesPrologue(t *testing.T) {
	f := newFixture(t, Options{})
	book := f.seedBook(t, "u1")

	res, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{
		BookID:         book.ID,
		UserID:         "u1",
		TargetLanguage: "EN-US",
	})
	if err != nil {
		t.Fatalf("GenerateNextChapter() error = %v", err)
	}
	if res.Stage != "prologue" || res.ChapterNum != 0 {
		t.Fatalf("stage = %s/%d, want prologue/0", res.Stage, res.ChapterNum)
	}
	if res.Content != "Prologue of Night Tide" || res.TranslatedContent != res.Content {
		t.Fatalf("unexpected content %q / %q", res.Content, res.TranslatedContent)
	}
	if len(res.Recommendations) != 0 {
		t.Fatalf("prologue should carry no recommendations")
	}
	if got := f.chapters.nums(book.ID); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("chapters = %v, want [0]", got)
	}
}

func TestSuccessiveGenerationsAreGapFree(t *testing.T) {
	f := newFixture(t, Options{})
	book := f.seedBook(t, "u1")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := f.svc.GenerateNextChapter(ctx, GenerationRequest{
			BookID:  book.ID,
			UserID:  "u1",
			Summary: "the tide rises",
		})
		if err != nil {
			t.Fatalf("generation %d error = %v", i, err)
		}
		if res.ChapterNum != i {
			t.Fatalf("generation %d chapter_num = %d", i, res.ChapterNum)
		}
	}

	if got := f.chapters.nums(book.ID); !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4}) {
		t.Fatalf("chapters = %v", got)
	}
	if !reflect.DeepEqual(f.events.chapters, []int{0, 1, 2, 3, 4}) {
		t.Fatalf("events = %v", f.events.chapters)
	}
}

func TestChapterWithSummaryAfterTwoChapters(t *testing.T) {
	f := newFixture(t, Options{})
	book := f.seedBook(t, "u1")
	f.seedChapters(t, book.ID, 0, 1)

	res, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{
		BookID:         book.ID,
		UserID:         "u1",
		TargetLanguage: "ko",
		Summary:        "hero escapes",
	})
	if err != nil {
		t.Fatalf("GenerateNextChapter() error = %v", err)
	}
	if res.ChapterNum != 2 || res.Stage != "chapter" {
		t.Fatalf("result = %d/%s, want 2/chapter", res.ChapterNum, res.Stage)
	}
	if res.TranslatedContent != "[KO] Chapter 2: hero escapes" {
		t.Fatalf("TranslatedContent = %q", res.TranslatedContent)
	}
	if res.Language != "KO" || len(res.Warnings) != 0 {
		t.Fatalf("language = %q warnings = %v", res.Language, res.Warnings)
	}
	if len(res.Recommendations) != 2 {
		t.Fatalf("recommendations = %v", res.Recommendations)
	}

	p := f.generator.lastPayload()
	if p.ChapterNum != 2 || p.Direction != "hero escapes" || p.Prologue != "seeded" {
		t.Fatalf("payload = %+v", p)
	}
	if p.Elements != f.generator.elements {
		t.Fatalf("payload elements = %+v", p.Elements)
	}

	stored, _ := f.chapters.GetByBookAndNum(context.Background(), book.ID, 2)
	if stored == nil || stored.Content != "Chapter 2: hero escapes" {
		t.Fatalf("stored chapter = %+v, want source-language content", stored)
	}
}

func TestSelectedRecommendationTakesPrecedence(t *testing.T) {
	f := newFixture(t, Options{})
	book := f.seedBook(t, "u1")
	f.seedChapters(t, book.ID, 0)

	_, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{
		BookID:                 book.ID,
		SelectedRecommendation: &wfmodel.Recommendation{Title: "Storm", Description: "A storm hits the coast"},
		Summary:                "ignored",
	})
	if err != nil {
		t.Fatalf("GenerateNextChapter() error = %v", err)
	}
	if got := f.generator.lastPayload().Direction; got != "Storm: A storm hits the coast" {
		t.Fatalf("Direction = %q", got)
	}
}

func TestMissingContextCreatesNoChapter(t *testing.T) {
	f := newFixture(t, Options{})
	book := f.seedBook(t, "u1")
	f.seedChapters(t, book.ID, 0)

	_, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{
		BookID:                 book.ID,
		Summary:                "   ",
		SelectedRecommendation: &wfmodel.Recommendation{},
	})
	if !errors.Is(err, apperrors.ErrMissingContext) {
		t.Fatalf("error = %v, want MissingContext", err)
	}
	if got := f.chapters.nums(book.ID); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("chapters = %v, want [0]", got)
	}
	if len(f.generator.payloads) != 0 {
		t.Fatalf("generator should not be called")
	}
}

func TestGenerationErrorLeavesCountUnchanged(t *testing.T) {
	f := newFixture(t, Options{})
	book := f.seedBook(t, "u1")
	f.seedChapters(t, book.ID, 0, 1)
	f.generator.err = errors.New("upstream 500")

	_, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{BookID: book.ID, Summary: "x"})
	if !errors.Is(err, apperrors.ErrGenerationService) {
		t.Fatalf("error = %v, want GenerationService", err)
	}
	if n, _ := f.chapters.CountByBook(context.Background(), book.ID); n != 2 {
		t.Fatalf("chapter count = %d, want 2", n)
	}
	if len(f.events.chapters) != 0 {
		t.Fatalf("no event expected on failure")
	}
}

func TestEmptyGeneratedContentIsGenerationError(t *testing.T) {
	f := newFixture(t, Options{})
	book := f.seedBook(t, "u1")
	f.seedChapters(t, book.ID, 0)
	f.svc.generator = emptyChapterGenerator{f.generator}

	_, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{BookID: book.ID, Summary: "x"})
	if !errors.Is(err, apperrors.ErrGenerationService) {
		t.Fatalf("error = %v, want GenerationService", err)
	}
	if n, _ := f.chapters.CountByBook(context.Background(), book.ID); n != 1 {
		t.Fatalf("chapter count = %d, want 1", n)
	}
}

type emptyChapterGenerator struct{ *fakeGenerator }

func (emptyChapterGenerator) GenerateChapter(context.Context, wfmodel.ChapterPayload) (*wfmodel.ChapterDraft, error) {
	return &wfmodel.ChapterDraft{FinalSummary: "  "}, nil
}

func TestGenerationTimeoutIsGenerationError(t *testing.T) {
	f := newFixture(t, Options{GenerationTimeout: 20 * time.Millisecond})
	book := f.seedBook(t, "u1")
	f.seedChapters(t, book.ID, 0)
	f.generator.beforeChapter = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	_, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{BookID: book.ID, Summary: "x"})
	if !errors.Is(err, apperrors.ErrGenerationService) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want GenerationService wrapping deadline", err)
	}
	if n, _ := f.chapters.CountByBook(context.Background(), book.ID); n != 1 {
		t.Fatalf("chapter count = %d, want 1", n)
	}
}

func TestTranslationFailureKeepsPersistedChapter(t *testing.T) {
	f := newFixture(t, Options{})
	book := f.seedBook(t, "u1")
	f.seedChapters(t, book.ID, 0)
	f.translator.err = errors.New("deepl 503")

	res, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{
		BookID:         book.ID,
		TargetLanguage: "FR",
		Summary:        "hero escapes",
	})
	if err != nil {
		t.Fatalf("GenerateNextChapter() error = %v", err)
	}
	if n, _ := f.chapters.CountByBook(context.Background(), book.ID); n != 2 {
		t.Fatalf("chapter count = %d, want 2", n)
	}
	if res.TranslatedContent != res.Content {
		t.Fatalf("TranslatedContent = %q, want canonical %q", res.TranslatedContent, res.Content)
	}
	if !reflect.DeepEqual(res.Warnings, []string{WarningTranslationUnavailable}) {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if !errors.Is(res.TranslationErr, apperrors.ErrTranslationService) {
		t.Fatalf("TranslationErr = %v", res.TranslationErr)
	}
}

func TestNativeLanguageIsPassthrough(t *testing.T) {
	f := newFixture(t, Options{NativeLanguage: "EN-US"})
	f.translator.err = errors.New("must not be called")
	book := f.seedBook(t, "u1")

	res, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{BookID: book.ID, TargetLanguage: "en-us"})
	if err != nil {
		t.Fatalf("GenerateNextChapter() error = %v", err)
	}
	if res.TranslatedContent != res.Content || len(res.Warnings) != 0 {
		t.Fatalf("expected passthrough, got %q warnings=%v", res.TranslatedContent, res.Warnings)
	}
}

func TestConcurrentRequestsForSameChapter(t *testing.T) {
	f := newFixture(t, Options{})
	book := f.seedBook(t, "u1")
	f.seedChapters(t, book.ID, 0, 1)

	// 两个请求都读取到 last=1 后才放行生成，保证竞争同一个 next_num
	var arrived sync.WaitGroup
	arrived.Add(2)
	release := make(chan struct{})
	f.generator.beforeChapter = func(context.Context) error {
		arrived.Done()
		<-release
		return nil
	}
	go func() {
		arrived.Wait()
		close(release)
	}()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	results := make([]*GenerationResult, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.GenerateNextChapter(context.Background(), GenerationRequest{
				BookID:  book.ID,
				Summary: "race",
			})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for i, err := range errs {
		switch {
		case err == nil:
			ok++
			if results[i].ChapterNum != 2 {
				t.Fatalf("winner chapter_num = %d, want 2", results[i].ChapterNum)
			}
		case errors.Is(err, apperrors.ErrConcurrentModification):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Fatalf("ok=%d conflicts=%d, want 1/1", ok, conflicts)
	}
	if got := f.chapters.nums(book.ID); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Fatalf("chapters = %v", got)
	}
}

func TestStoreRejectionIsPersistenceError(t *testing.T) {
	f := newFixture(t, Options{})
	book := f.seedBook(t, "u1")
	f.chapters.failWith = repository.ErrChapterOutOfOrder

	_, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{BookID: book.ID})
	if !errors.Is(err, apperrors.ErrPersistence) {
		t.Fatalf("error = %v, want Persistence", err)
	}
	if errors.Is(err, apperrors.ErrGenerationService) {
		t.Fatalf("persistence failure must be distinct from generation failure")
	}
}

func TestPrologueDeletedMidSequence(t *testing.T) {
	f := newFixture(t, Options{})
	book := f.seedBook(t, "u1")
	f.seedChapters(t, book.ID, 0, 1)

	if err := f.svc.DeletePrologue(context.Background(), book.ID, "u1"); err != nil {
		t.Fatalf("DeletePrologue() error = %v", err)
	}

	res, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{BookID: book.ID, Summary: "onward"})
	if err != nil {
		t.Fatalf("GenerateNextChapter() error = %v", err)
	}
	if res.ChapterNum != 2 {
		t.Fatalf("chapter_num = %d, want 2", res.ChapterNum)
	}
	if p := f.generator.lastPayload(); p.Prologue != "" {
		t.Fatalf("prologue context = %q, want empty", p.Prologue)
	}

	err = f.svc.DeletePrologue(context.Background(), book.ID, "u1")
	if !errors.Is(err, apperrors.ErrChapterNotFound) {
		t.Fatalf("second DeletePrologue() error = %v, want ChapterNotFound", err)
	}
}

func TestOwnershipAndNotFound(t *testing.T) {
	f := newFixture(t, Options{})
	book := f.seedBook(t, "u1")

	if _, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{BookID: book.ID, UserID: "u2"}); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("error = %v, want Forbidden", err)
	}
	if _, err := f.svc.GenerateNextChapter(context.Background(), GenerationRequest{BookID: "missing"}); !errors.Is(err, apperrors.ErrBookNotFound) {
		t.Fatalf("error = %v, want BookNotFound", err)
	}
	if err := f.svc.DeleteBook(context.Background(), book.ID, "u2"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("DeleteBook() error = %v, want Forbidden", err)
	}
}

func TestCreateBook(t *testing.T) {
	f := newFixture(t, Options{CoverSize: "1024x1024"})

	res, err := f.svc.CreateBook(context.Background(), CreateBookInput{Prompt: "a lighthouse keeper", OwnerID: "u1", Language: "KO"})
	if err != nil {
		t.Fatalf("CreateBook() error = %v", err)
	}
	if res.Book.ID == "" || res.Book.ImagePath != "img-1.png" || res.ImageURL != "/media/img-1.png" {
		t.Fatalf("book = %+v url=%q", res.Book, res.ImageURL)
	}
	if res.Content.Title != "[KO] Night Tide" || res.Content.Setting != "[KO] a lighthouse" {
		t.Fatalf("translated content = %+v", res.Content)
	}
	stored, _ := f.books.GetByID(context.Background(), res.Book.ID)
	if stored.Elements.Title != "Night Tide" {
		t.Fatalf("persisted elements must stay in source language, got %q", stored.Elements.Title)
	}
	if !reflect.DeepEqual(f.images.sizes, []string{"1024x1024"}) || f.events.books != 1 {
		t.Fatalf("sizes = %v events = %d", f.images.sizes, f.events.books)
	}
}

func TestCreateBookImageFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.images.err = errors.New("content policy")

	res, err := f.svc.CreateBook(context.Background(), CreateBookInput{Prompt: "p", OwnerID: "u1", Language: "EN-US"})
	if err != nil {
		t.Fatalf("CreateBook() error = %v", err)
	}
	if res.Book.HasImage() || !errors.Is(res.ImageErr, apperrors.ErrImageService) {
		t.Fatalf("image = %q err = %v", res.Book.ImagePath, res.ImageErr)
	}
	if !reflect.DeepEqual(res.Warnings, []string{WarningImageUnavailable}) {
		t.Fatalf("warnings = %v", res.Warnings)
	}

	strict := newFixture(t, Options{RequireImage: true})
	strict.images.err = errors.New("content policy")
	if _, err := strict.svc.CreateBook(context.Background(), CreateBookInput{Prompt: "p", OwnerID: "u1"}); !errors.Is(err, apperrors.ErrImageService) {
		t.Fatalf("strict CreateBook() error = %v, want ImageService", err)
	}
	if len(strict.books.books) != 0 {
		t.Fatalf("no book should be stored when image is required")
	}
}

func TestCreateBookValidation(t *testing.T) {
	f := newFixture(t, Options{})
	if _, err := f.svc.CreateBook(context.Background(), CreateBookInput{Prompt: " "}); !errors.Is(err, apperrors.ErrInvalidParam) {
		t.Fatalf("error = %v, want InvalidParam", err)
	}

	f.generator.elements = entity.BookElements{}
	if _, err := f.svc.CreateBook(context.Background(), CreateBookInput{Prompt: "p"}); !errors.Is(err, apperrors.ErrGenerationService) {
		t.Fatalf("error = %v, want GenerationService for empty elements", err)
	}
}

func TestRefreshImage(t *testing.T) {
	f := newFixture(t, Options{RefreshSize: "512x512"})
	book := f.seedBook(t, "u1")
	_ = f.books.UpdateImage(context.Background(), book.ID, "old.png")

	updated, err := f.svc.RefreshImage(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("RefreshImage() error = %v", err)
	}
	if updated.ImagePath != "img-1.png" {
		t.Fatalf("ImagePath = %q", updated.ImagePath)
	}
	if !reflect.DeepEqual(f.images.sizes, []string{"512x512"}) {
		t.Fatalf("sizes = %v", f.images.sizes)
	}
	if !reflect.DeepEqual(f.store.deleted, []string{"old.png"}) {
		t.Fatalf("deleted = %v", f.store.deleted)
	}

	f.images.err = errors.New("boom")
	if _, err := f.svc.RefreshImage(context.Background(), book.ID); !errors.Is(err, apperrors.ErrImageService) {
		t.Fatalf("error = %v, want ImageService", err)
	}
}

func TestEnsureCover(t *testing.T) {
	f := newFixture(t, Options{CoverSize: "1024x1024"})
	book := f.seedBook(t, "u1")

	updated, err := f.svc.EnsureCover(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("EnsureCover() error = %v", err)
	}
	if updated.ImagePath != "img-1.png" {
		t.Fatalf("ImagePath = %q", updated.ImagePath)
	}

	// 已有封面时不重复生成
	if _, err := f.svc.EnsureCover(context.Background(), book.ID); err != nil {
		t.Fatalf("second EnsureCover() error = %v", err)
	}
	if !reflect.DeepEqual(f.images.sizes, []string{"1024x1024"}) {
		t.Fatalf("sizes = %v, want a single cover render", f.images.sizes)
	}
	if len(f.store.deleted) != 0 {
		t.Fatalf("deleted = %v, want none", f.store.deleted)
	}

	if _, err := f.svc.EnsureCover(context.Background(), "missing"); !errors.Is(err, apperrors.ErrBookNotFound) {
		t.Fatalf("error = %v, want BookNotFound", err)
	}
}
