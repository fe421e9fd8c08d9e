package story

import (
	"context"
	"fmt"

	"serial-story-api/internal/domain/entity"
	"serial-story-api/internal/domain/repository"
)

// Stage 下一次生成的内容类型：PrologueStage 或 ChapterStage
type Stage interface {
	Name() string
	ChapterNum() int
	isStage()
}

// PrologueStage 书籍尚无任何章节，生成序章
type PrologueStage struct{}

func (PrologueStage) Name() string    { return "prologue" }
func (PrologueStage) ChapterNum() int { return entity.PrologueNum }
func (PrologueStage) isStage()        {}

// ChapterStage 生成编号为 Num 的章节
type ChapterStage struct {
	Num int
	// PrologueText 序章原文；序章已被删除时为空
	PrologueText string
}

func (ChapterStage) Name() string      { return "chapter" }
func (s ChapterStage) ChapterNum() int { return s.Num }
func (ChapterStage) isStage()          {}

// ResolveStage 根据已持久化的章节决定下一阶段
// 只读操作，每次调用都重新读取存储
func ResolveStage(ctx context.Context, chapters repository.ChapterRepository, bookID string) (Stage, error) {
	last, err := chapters.GetLast(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load last chapter: %w", err)
	}
	if last == nil {
		return PrologueStage{}, nil
	}

	st := ChapterStage{Num: last.ChapterNum + 1}
	if last.IsPrologue() {
		st.PrologueText = last.Content
		return st, nil
	}

	prologue, err := chapters.GetByBookAndNum(ctx, bookID, entity.PrologueNum)
	if err != nil {
		return nil, fmt.Errorf("failed to load prologue: %w", err)
	}
	if prologue != nil {
		st.PrologueText = prologue.Content
	}
	return st, nil
}
