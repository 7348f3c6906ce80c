// Package note 实现记事生成流水线
package note

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"note-article-api/internal/domain/entity"
)

// RawGenerationRequest 未经校验的输入；JSON 与表单共用同一结构
//
// 每个字段都原样保留，类型转换与校验统一在 BuildRequest 中完成，
// 因此类型不符的 JSON 字段与表单字段一样逐项报告。
type RawGenerationRequest struct {
	Topic          RawField `json:"topic" form:"topic"`
	Audience       RawField `json:"audience" form:"audience"`
	Goal           RawField `json:"goal" form:"goal"`
	ArticleType    RawField `json:"article_type" form:"article_type"`
	LengthClass    RawField `json:"length_class" form:"length_class"`
	Temperature    RawField `json:"temperature" form:"temperature"`
	IntensityLevel RawField `json:"intensity_level" form:"intensity_level"`
}

// RawField 单个输入字段的原始值。
// 未出现或为 null 时 Present 为 false；JSON 字符串保存去引号后的内容，
// 数字与布尔保存字面量，对象与数组保存原文并标记为非标量。
type RawField struct {
	Present bool   `form:"-"`
	Text    string `form:"-"`
	Scalar  bool   `form:"-"`
}

// FieldOf 构造一个已提供的标量字段
func FieldOf(s string) RawField {
	return RawField{Present: true, Text: s, Scalar: true}
}

func (f *RawField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = RawField{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FieldOf(s)
	case b[0] == '{' || b[0] == '[':
		*f = RawField{Present: true, Text: string(b)}
	default:
		*f = FieldOf(string(b))
	}
	return nil
}

// UnmarshalParam 表单绑定入口
func (f *RawField) UnmarshalParam(param string) error {
	*f = FieldOf(param)
	return nil
}

// ValidationError 输入校验失败，Violations 包含全部违规项
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid generation request: " + strings.Join(e.Violations, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// BuildRequest 填充缺省值并校验，一次性收集所有违规项
func BuildRequest(raw RawGenerationRequest) (entity.GenerationRequest, error) {
	var violations []string
	skip := map[string]bool{}

	text := func(name string, f RawField) string {
		if f.Present && !f.Scalar {
			violations = append(violations, name+" must be a string")
			skip[name] = true
			return ""
		}
		return strings.TrimSpace(f.Text)
	}

	req := entity.GenerationRequest{
		Topic:          text("topic", raw.Topic),
		Audience:       text("audience", raw.Audience),
		Goal:           text("goal", raw.Goal),
		ArticleType:    entity.ArticleType(orDefault(text("article_type", raw.ArticleType), string(entity.DefaultArticleType))),
		LengthClass:    entity.LengthClass(orDefault(text("length_class", raw.LengthClass), string(entity.DefaultLengthClass))),
		Temperature:    entity.DefaultTemperature,
		IntensityLevel: entity.DefaultIntensity,
	}

	if s := strings.TrimSpace(raw.Temperature.Text); raw.Temperature.Present && s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !raw.Temperature.Scalar {
			violations = append(violations, "temperature must be a number")
			skip["temperature"] = true
		} else {
			req.Temperature = f
		}
	}
	if s := strings.TrimSpace(raw.IntensityLevel.Text); raw.IntensityLevel.Present && s != "" {
		n, ok := parseInteger(s)
		if !ok || !raw.IntensityLevel.Scalar {
			violations = append(violations, "intensity_level must be an integer")
			skip["intensity_level"] = true
		} else {
			req.IntensityLevel = n
		}
	}

	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return entity.GenerationRequest{}, err
		}
		for _, fe := range fieldErrs {
			if skip[fe.Field()] {
				continue
			}
			violations = append(violations, violationFor(fe.Field()))
		}
	}

	if len(violations) > 0 {
		return entity.GenerationRequest{}, &ValidationError{Violations: dedupe(violations)}
	}
	return req, nil
}

func violationFor(field string) string {
	switch field {
	case "topic":
		return "topic is required"
	case "article_type":
		return "article_type must be one of: " + joinValues(entity.ArticleTypes)
	case "length_class":
		return "length_class must be one of: " + joinValues(entity.LengthClasses)
	case "temperature":
		return fmt.Sprintf("temperature must be between %.1f and %.1f", entity.MinTemperature, entity.MaxTemperature)
	case "intensity_level":
		return fmt.Sprintf("intensity_level must be between %d and %d", entity.MinIntensity, entity.MaxIntensity)
	default:
		return field + " is invalid"
	}
}

// parseInteger 接受 "5" 与 "5.0"，拒绝带小数部分的值
func parseInteger(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// orDefault 未提供或为空白时返回缺省值
func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
