package story

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"serial-story-api/internal/domain/entity"
	"serial-story-api/internal/domain/repository"
	wfmodel "serial-story-api/internal/workflow/model"
)

type memBooks struct {
	mu    sync.Mutex
	seq   int
	books map[string]*entity.Book
}

func newMemBooks() *memBooks {
	return &memBooks{books: map[string]*entity.Book{}}
}

func (m *memBooks) Create(_ context.Context, book *entity.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	book.ID = fmt.Sprintf("book-%d", m.seq)
	cp := *book
	m.books[book.ID] = &cp
	return nil
}

func (m *memBooks) GetByID(_ context.Context, id string) (*entity.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *memBooks) GetSummary(ctx context.Context, id string) (*entity.BookSummary, error) {
	b, err := m.GetByID(ctx, id)
	if err != nil || b == nil {
		return nil, err
	}
	return &entity.BookSummary{Book: b}, nil
}

func (m *memBooks) ListSummaries(_ context.Context, _ *repository.BookFilter, p repository.Pagination) (*repository.PagedResult[*entity.BookSummary], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]*entity.BookSummary, 0, len(m.books))
	for _, b := range m.books {
		cp := *b
		items = append(items, &entity.BookSummary{Book: &cp})
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (m *memBooks) UpdateImage(_ context.Context, id, imagePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return fmt.Errorf("book %s not found", id)
	}
	b.ImagePath = imagePath
	return nil
}

func (m *memBooks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, id)
	return nil
}

// memChapters 以互斥锁模拟 (book_id, chapter_num) 唯一约束与顺序校验
type memChapters struct {
	mu       sync.Mutex
	chapters []*entity.Chapter
	failWith error
}

func (m *memChapters) Create(_ context.Context, c *entity.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}

	maxNum := -1
	for _, existing := range m.chapters {
		if existing.BookID != c.BookID {
			continue
		}
		if existing.ChapterNum == c.ChapterNum {
			return repository.ErrDuplicateChapter
		}
		if existing.ChapterNum > maxNum {
			maxNum = existing.ChapterNum
		}
	}
	if c.ChapterNum != maxNum+1 {
		return repository.ErrChapterOutOfOrder
	}

	cp := *c
	cp.ID = fmt.Sprintf("chapter-%d", len(m.chapters)+1)
	m.chapters = append(m.chapters, &cp)
	return nil
}

func (m *memChapters) GetLast(_ context.Context, bookID string) (*entity.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.chapters) - 1; i >= 0; i-- {
		if m.chapters[i].BookID == bookID {
			cp := *m.chapters[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memChapters) GetByBookAndNum(_ context.Context, bookID string, num int) (*entity.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.chapters {
		if c.BookID == bookID && c.ChapterNum == num {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memChapters) ListByBook(_ context.Context, bookID string) ([]*entity.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Chapter
	for _, c := range m.chapters {
		if c.BookID == bookID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChapterNum < out[j].ChapterNum })
	return out, nil
}

func (m *memChapters) CountByBook(ctx context.Context, bookID string) (int64, error) {
	list, err := m.ListByBook(ctx, bookID)
	return int64(len(list)), err
}

func (m *memChapters) DeletePrologue(_ context.Context, bookID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.chapters {
		if c.BookID == bookID && c.ChapterNum == entity.PrologueNum {
			m.chapters = append(m.chapters[:i], m.chapters[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memChapters) nums(bookID string) []int {
	list, _ := m.ListByBook(context.Background(), bookID)
	out := make([]int, 0, len(list))
	for _, c := range list {
		out = append(out, c.ChapterNum)
	}
	return out
}

type fakeGenerator struct {
	mu       sync.Mutex
	elements entity.BookElements
	err      error
	// beforeChapter 在生成章节前调用，用于制造并发竞争或超时
	beforeChapter func(ctx context.Context) error
	payloads      []wfmodel.ChapterPayload
}

func (g *fakeGenerator) GenerateElements(_ context.Context, _ string) (entity.BookElements, error) {
	if g.err != nil {
		return entity.BookElements{}, g.err
	}
	return g.elements, nil
}

func (g *fakeGenerator) GeneratePrologue(_ context.Context, e entity.BookElements) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "Prologue of " + e.Title, nil
}

func (g *fakeGenerator) GenerateChapter(ctx context.Context, p wfmodel.ChapterPayload) (*wfmodel.ChapterDraft, error) {
	g.mu.Lock()
	g.payloads = append(g.payloads, p)
	g.mu.Unlock()

	if g.beforeChapter != nil {
		if err := g.beforeChapter(ctx); err != nil {
			return nil, err
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return &wfmodel.ChapterDraft{
		FinalSummary: fmt.Sprintf("Chapter %d: %s", p.ChapterNum, p.Direction),
		Recommendations: []wfmodel.Recommendation{
			{Title: "Storm", Description: "A storm hits the coast"},
			{Title: "Letter", Description: "A letter arrives"},
		},
	}, nil
}

func (g *fakeGenerator) lastPayload() wfmodel.ChapterPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.payloads[len(g.payloads)-1]
}

type fakeTranslator struct {
	err error
}

func (f *fakeTranslator) Translate(_ context.Context, text, lang string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "[" + lang + "] " + text, nil
}

type fakeImages struct {
	err   error
	sizes []string
}

func (f *fakeImages) Generate(_ context.Context, _ string, size string) ([]byte, error) {
	f.sizes = append(f.sizes, size)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png"), nil
}

type fakeStore struct {
	saved   int
	deleted []string
}

func (f *fakeStore) Save(_ context.Context, _ []byte) (string, error) {
	f.saved++
	return fmt.Sprintf("img-%d.png", f.saved), nil
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeStore) URL(path string) string { return "/media/" + path }

type recordingEvents struct {
	mu       sync.Mutex
	books    int
	chapters []int
}

func (r *recordingEvents) BookCreated(context.Context, *entity.Book) {
	r.mu.Lock()
	r.books++
	r.mu.Unlock()
}

func (r *recordingEvents) ChapterCreated(_ context.Context, c *entity.Chapter) {
	r.mu.Lock()
	r.chapters = append(r.chapters, c.ChapterNum)
	r.mu.Unlock()
}
