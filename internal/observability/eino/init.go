package eino

import (
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
)

var registered sync.Once

// Init 注册全局 ChatModel 回调，重复调用无副作用；需在首次生成前执行
func Init() {
	registered.Do(func() {
		chatModel := newChatModelCallbackHandler()
		einocallbacks.AppendGlobalHandlers(
			cbtemplate.NewHandlerHelper().ChatModel(chatModel).Handler(),
		)
	})
}
