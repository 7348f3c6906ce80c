package note

import (
	"fmt"
	"time"

	"note-article-api/internal/domain/entity"
)

// DefaultEstimate 未知篇幅档位的预估值
const DefaultEstimate int64 = 3000

var estimates = map[entity.LengthClass]int64{
	entity.LengthShort:  1500,
	entity.LengthMiddle: 3000,
	entity.LengthLong:   5000,
}

// EstimateTokens 仅按篇幅档位粗估一次生成的 token 消耗
func EstimateTokens(lc entity.LengthClass) int64 {
	if n, ok := estimates[lc]; ok {
		return n
	}
	return DefaultEstimate
}

// NewNoteID 生成 note_YYYYMMDD_HHMMSS_mmm 形式的标识，精度为毫秒
func NewNoteID(t time.Time) string {
	return fmt.Sprintf("note_%s_%03d", t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond))
}
