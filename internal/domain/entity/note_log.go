package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// LedgerTimeLayout 台账中 created_at 的 ISO-8601 格式
const LedgerTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// LedgerColumns 台账表头，顺序即行内字段顺序
var LedgerColumns = []string{
	"note_id",
	"topic",
	"audience",
	"goal",
	"article_type",
	"length_class",
	"temperature",
	"intensity_level",
	"title",
	"raw_json",
	"total_tokens",
	"created_at",
}

// NoteLog 台账记录：一次成功生成的扁平化投影
type NoteLog struct {
	NoteID         string    `json:"note_id" gorm:"type:varchar(64);primaryKey"`
	Topic          string    `json:"topic" gorm:"type:text;not null"`
	Audience       string    `json:"audience" gorm:"type:text"`
	Goal           string    `json:"goal" gorm:"type:text"`
	ArticleType    string    `json:"article_type" gorm:"type:varchar(32);not null"`
	LengthClass    string    `json:"length_class" gorm:"type:varchar(16);not null"`
	Temperature    float64   `json:"temperature" gorm:"not null"`
	IntensityLevel int       `json:"intensity_level" gorm:"not null"`
	Title          string    `json:"title" gorm:"type:text"`
	RawJSON        string    `json:"raw_json" gorm:"column:raw_json;type:text"`
	TotalTokens    int64     `json:"total_tokens" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"index;not null"`
}

func (NoteLog) TableName() string {
	return "note_logs"
}

// NewNoteLog 由请求与结果构造台账记录，raw_json 为结果的完整序列化
func NewNoteLog(req GenerationRequest, result *GenerationResult, createdAt time.Time) (*NoteLog, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal generation result: %w", err)
	}
	return &NoteLog{
		NoteID:         result.NoteID,
		Topic:          req.Topic,
		Audience:       req.Audience,
		Goal:           req.Goal,
		ArticleType:    string(req.ArticleType),
		LengthClass:    string(req.LengthClass),
		Temperature:    req.Temperature,
		IntensityLevel: req.IntensityLevel,
		Title:          result.Title,
		RawJSON:        string(raw),
		TotalTokens:    result.Metadata.TokenUsage.TotalTokens,
		CreatedAt:      createdAt,
	}, nil
}

// Row 按 LedgerColumns 顺序输出字符串行
func (l *NoteLog) Row() []string {
	return []string{
		l.NoteID,
		l.Topic,
		l.Audience,
		l.Goal,
		l.ArticleType,
		l.LengthClass,
		strconv.FormatFloat(l.Temperature, 'f', -1, 64),
		strconv.Itoa(l.IntensityLevel),
		l.Title,
		l.RawJSON,
		strconv.FormatInt(l.TotalTokens, 10),
		l.CreatedAt.Format(LedgerTimeLayout),
	}
}

// NoteLogFromRow 解析 Row 的输出
func NoteLogFromRow(row []string) (*NoteLog, error) {
	if len(row) != len(LedgerColumns) {
		return nil, fmt.Errorf("ledger row has %d fields, want %d", len(row), len(LedgerColumns))
	}
	temperature, err := strconv.ParseFloat(row[6], 64)
	if err != nil {
		return nil, fmt.Errorf("parse temperature: %w", err)
	}
	intensity, err := strconv.Atoi(row[7])
	if err != nil {
		return nil, fmt.Errorf("parse intensity_level: %w", err)
	}
	total, err := strconv.ParseInt(row[10], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse total_tokens: %w", err)
	}
	createdAt, err := time.Parse(LedgerTimeLayout, row[11])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &NoteLog{
		NoteID:         row[0],
		Topic:          row[1],
		Audience:       row[2],
		Goal:           row[3],
		ArticleType:    row[4],
		LengthClass:    row[5],
		Temperature:    temperature,
		IntensityLevel: intensity,
		Title:          row[8],
		RawJSON:        row[9],
		TotalTokens:    total,
		CreatedAt:      createdAt,
	}, nil
}
