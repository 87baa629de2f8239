package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/llmschema/llm"
	"github.com/BaSui01/llmschema/structured"
	"github.com/BaSui01/llmschema/types"
)

// maxRawBytes 限制单条记录保存的原始模型输出长度
const maxRawBytes = 16 << 10

// AttemptLog 单次尝试的审计记录
type AttemptLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  string    `gorm:"size:64;not null;index:idx_request" json:"request_id"`
	Attempt    int       `gorm:"not null" json:"attempt"`
	Model      string    `gorm:"size:200" json:"model"`
	Outcome    string    `gorm:"size:20;not null;index" json:"outcome"`
	ErrorCode  string    `gorm:"size:64" json:"error_code,omitempty"`
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	Raw        string    `gorm:"type:text" json:"raw,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AttemptLog) TableName() string {
	return "llmschema_attempts"
}

// Store 基于 GORM 的审计存储
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ structured.Observer = (*Store)(nil)

// NewStore 创建审计存储
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger.With(zap.String("component", "audit"))}
}

// Migrate 创建或更新审计表
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&AttemptLog{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

// OnAttempt 写入一条记录。写入失败只记日志，不影响生成流程。
func (s *Store) OnAttempt(ctx context.Context, rec structured.AttemptRecord) {
	row := FromRecord(rec)
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&row).Error; err != nil {
		s.logger.Warn("failed to persist attempt",
			zap.String("request_id", rec.RequestID),
			zap.Int("attempt", rec.Attempt),
			zap.Error(err))
	}
}

// ListByRequest 按尝试顺序返回某次调用的全部记录
func (s *Store) ListByRequest(ctx context.Context, requestID string) ([]AttemptLog, error) {
	var rows []AttemptLog
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("attempt ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list attempts for %s: %w", requestID, err)
	}
	return rows, nil
}

// CountByOutcome 统计自 since 起各结果的尝试数
func (s *Store) CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []struct {
		Outcome string
		Total   int64
	}
	err := s.db.WithContext(ctx).Model(&AttemptLog{}).
		Select("outcome, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count attempts by outcome: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Outcome] = r.Total
	}
	return out, nil
}

// FromRecord 将尝试记录转换为表行
func FromRecord(rec structured.AttemptRecord) AttemptLog {
	row := AttemptLog{
		RequestID:  rec.RequestID,
		Attempt:    rec.Attempt,
		Model:      rec.Model,
		Outcome:    rec.Outcome.String(),
		DurationMs: rec.Duration.Milliseconds(),
		Raw:        truncate(rec.Raw, maxRawBytes),
	}
	if rec.Err != nil {
		row.Error = rec.Err.Error()
		row.ErrorCode = errorCode(rec.Err)
	}
	return row
}

func errorCode(err error) string {
	var llmErr *llm.Error
	switch {
	case errors.Is(err, structured.ErrJSONDecode):
		return string(types.ErrCodeJSONDecode)
	case errors.Is(err, structured.ErrSchemaValidation):
		return string(types.ErrCodeSchemaValidation)
	case errors.As(err, &llmErr):
		return string(llmErr.Code)
	default:
		return string(types.GetErrorCode(err))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
