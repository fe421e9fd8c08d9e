package repository

import "errors"

var (
	// ErrDuplicateChapter (book_id, chapter_num) 已存在
	ErrDuplicateChapter = errors.New("chapter already exists for this book")
	// ErrChapterOutOfOrder 章节号不是当前最大章节号 + 1
	ErrChapterOutOfOrder = errors.New("chapter number is not the next in sequence")
	// ErrDuplicateEmail 邮箱已注册
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAlreadyRated 用户已对该书评分
	ErrAlreadyRated = errors.New("user has already rated this book")
)
