// Package entity 定义领域实体
package entity

// ArticleType 记事类型
type ArticleType string

const (
	ArticleTypeEducation ArticleType = "education"
	ArticleTypeStory     ArticleType = "story"
	ArticleTypeCase      ArticleType = "case"
	ArticleTypeOpinion   ArticleType = "opinion"
	ArticleTypeHowTo     ArticleType = "how_to"
)

// ArticleTypes 按展示顺序列出全部记事类型
var ArticleTypes = []ArticleType{
	ArticleTypeEducation,
	ArticleTypeStory,
	ArticleTypeCase,
	ArticleTypeOpinion,
	ArticleTypeHowTo,
}

// Valid 是否为已知类型
func (t ArticleType) Valid() bool {
	for _, v := range ArticleTypes {
		if v == t {
			return true
		}
	}
	return false
}

// LengthClass 篇幅档位
type LengthClass string

const (
	LengthShort  LengthClass = "short"
	LengthMiddle LengthClass = "middle"
	LengthLong   LengthClass = "long"
)

// LengthClasses 全部篇幅档位
var LengthClasses = []LengthClass{LengthShort, LengthMiddle, LengthLong}

// Valid 是否为已知档位
func (l LengthClass) Valid() bool {
	switch l {
	case LengthShort, LengthMiddle, LengthLong:
		return true
	default:
		return false
	}
}

// 请求字段的取值范围与缺省值
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinIntensity   = 1
	MaxIntensity   = 10

	DefaultArticleType = ArticleTypeEducation
	DefaultLengthClass = LengthMiddle
	DefaultTemperature = 0.7
	DefaultIntensity   = 5
)

// GenerationRequest 已校验的生成请求，构造后不再修改
type GenerationRequest struct {
	Topic          string      `json:"topic" validate:"notblank"`
	Audience       string      `json:"audience"`
	Goal           string      `json:"goal"`
	ArticleType    ArticleType `json:"article_type" validate:"oneof=education story case opinion how_to"`
	LengthClass    LengthClass `json:"length_class" validate:"oneof=short middle long"`
	Temperature    float64     `json:"temperature" validate:"gte=0,lte=2"`
	IntensityLevel int         `json:"intensity_level" validate:"gte=1,lte=10"`
}

// Section 记事中的一个小节
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// TokenUsage 一次或多次调用的 token 用量
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Add 逐字段累加，返回新值
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// NewTokenUsage 由输入输出两部分构造用量，total 为两者之和
func NewTokenUsage(prompt, completion int64) TokenUsage {
	return TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// CompletionResult 单次生成调用解析出的结构化记事
//
// Usage 不参与模型输出的解析，由调用方根据提供商返回的用量填写。
type CompletionResult struct {
	Title    string     `json:"title"`
	Lead     string     `json:"lead"`
	Sections []Section  `json:"sections"`
	CTA      string     `json:"cta"`
	Usage    TokenUsage `json:"-"`
}

// GenerationStatus 生成结果状态
type GenerationStatus string

const (
	StatusSuccess GenerationStatus = "SUCCESS"
	StatusError   GenerationStatus = "ERROR"
)

// GenerationMetadata 生成结果附带的元数据：原始请求参数与两阶段累计用量
type GenerationMetadata struct {
	Topic              string      `json:"topic"`
	Audience           string      `json:"audience"`
	Goal               string      `json:"goal"`
	ArticleType        ArticleType `json:"article_type"`
	LengthClass        LengthClass `json:"length_class"`
	TemperatureUsed    float64     `json:"temperature_used"`
	IntensityLevelUsed int         `json:"intensity_level_used"`
	TokenUsage         TokenUsage  `json:"token_usage"`
}

// GenerationResult 一次流水线执行的最终结果
type GenerationResult struct {
	Status   GenerationStatus   `json:"status"`
	NoteID   string             `json:"note_id"`
	Title    string             `json:"title"`
	Lead     string             `json:"lead"`
	Sections []Section          `json:"sections"`
	CTA      string             `json:"cta"`
	Metadata GenerationMetadata `json:"metadata"`
}
