package node

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject 截取模型输出中的第一个 JSON 值（对象或数组），忽略前后的说明文字与代码块标记
// 找不到可解析的值时原样返回，由调用方报告解析错误
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return raw
	}

	var v json.RawMessage
	if err := json.NewDecoder(strings.NewReader(raw[start:])).Decode(&v); err != nil {
		return raw[start:]
	}
	return string(v)
}

// formatUnsupportedHints 各提供商拒绝 response_format 时的报错特征，每组关键词需同时出现
var formatUnsupportedHints = [][]string{
	{"response_format"},
	{"response_schema"},
	{"json_schema"},
	{"failed to parse"},
	{"unknown parameter", "response"},
	{"invalid", "response"},
}

// IsResponseFormatUnsupportedError 判断错误是否因提供商不支持结构化输出，命中时改用纯提示词重试
func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range formatUnsupportedHints {
		matched := true
		for _, kw := range hint {
			if !strings.Contains(msg, kw) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// TruncateByRunes 按字符数截断，用于日志预览
func TruncateByRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
