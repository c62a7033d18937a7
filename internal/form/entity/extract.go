package entity

// ExtractedInfoItem 自然语言提取的临时结果
// 不落库，产出后立即交给自动填充引擎消费
type ExtractedInfoItem struct {
	Label             string `json:"label"`
	Value             string `json:"value"`
	SourceText        string `json:"sourceText,omitempty"`
	Confidence        *int   `json:"confidence,omitempty"` // 0-100
	TargetFieldIDHint string `json:"targetFieldIdHint,omitempty"`
	NormalizedValue   string `json:"normalizedValue,omitempty"`
}
