package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// =============================================================================
// 共享类型 — 多语言文本与JSONB包装
// =============================================================================

// 支持的表单语言
const (
	LangZhHK = "zh-HK"
	LangZhCN = "zh-CN"
	LangEN   = "en"
)

// LocalizedString 多语言文本，按语言代码索引（zh-HK / zh-CN / en）
type LocalizedString map[string]string

// Resolve 按指定语言解析文本，缺失时按 zh-HK → en → zh-CN 回退，
// 再缺失时返回任意一个已有语言（按key排序保证确定性）
func (l LocalizedString) Resolve(lang string) string {
	if len(l) == 0 {
		return ""
	}
	if v, ok := l[lang]; ok && v != "" {
		return v
	}
	for _, fallback := range []string{LangZhHK, LangEN, LangZhCN} {
		if v, ok := l[fallback]; ok && v != "" {
			return v
		}
	}
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return l[keys[0]]
}

// Value 实现 driver.Valuer，序列化为JSONB
func (l LocalizedString) Value() (driver.Value, error) {
	if l == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner
func (l *LocalizedString) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// JSONB 通用JSONB对象
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	return scanJSON(value, j)
}

// StringArray 字符串数组，存储为JSONB
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *StringArray) Scan(value interface{}) error {
	return scanJSON(value, a)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}
