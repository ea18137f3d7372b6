package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFence  = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")
)

// DecodeJSON 去掉推理标签和代码块后解析模型输出
func DecodeJSON(text string, out any) error {
	cleaned := strings.TrimSpace(thinkBlock.ReplaceAllString(text, ""))
	if m := codeFence.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
	}
	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return errors.New("no JSON object in model output")
	}
	return json.Unmarshal([]byte(cleaned[start:end+1]), out)
}
