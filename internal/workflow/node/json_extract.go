package node

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// SnippetLimit ExtractionError 中保留的原文前缀长度（按字符计）
const SnippetLimit = 500

var (
	jsonFencePattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	anyFencePattern  = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*(.*?)\\s*```")
)

// ExtractionError 模型输出中无法恢复出 JSON 对象
type ExtractionError struct {
	Snippet string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no JSON object could be extracted from model output: %q", e.Snippet)
}

// ExtractJSON 从模型输出中恢复一个 JSON 对象并解码到 T。
// 依次尝试：整段文本、```json 代码块、任意代码块、第一个 '{' 到最后一个 '}'，命中即返回。
func ExtractJSON[T any](raw string) (T, error) {
	var out T
	text := strings.TrimSpace(raw)

	for _, candidate := range candidates(text) {
		if decodeObject(candidate, &out) {
			return out, nil
		}
		var zero T
		out = zero
	}
	return out, &ExtractionError{Snippet: TruncateByRunes(text, SnippetLimit)}
}

// candidates 按优先级列出待解析的片段
func candidates(text string) []string {
	list := []string{text}
	if m := jsonFencePattern.FindStringSubmatch(text); m != nil {
		list = append(list, m[1])
	}
	if m := anyFencePattern.FindStringSubmatch(text); m != nil {
		list = append(list, m[1])
	}
	if span := ExtractJSONObject(text); span != "" {
		list = append(list, span)
	}
	return list
}

// ExtractJSONObject 截取第一个 '{' 到最后一个 '}' 之间的内容，找不到时返回空串
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// decodeObject 只接受 JSON 对象，数组和标量都视为失败
func decodeObject(s string, v any) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return false
	}
	return json.Unmarshal([]byte(s), v) == nil
}
