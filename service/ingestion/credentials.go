/*
 * @module service/ingestion/credentials
 * @description 数据源推送凭证管理 - 签发、轮换、校验推送接口的访问令牌
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 签发令牌(明文仅返回一次) -> bcrypt哈希落库 -> 推送时校验 -> 更新使用时间
 * @rules 每个数据源至多一个推送凭证;明文令牌不落库;停用凭证直接拒绝
 * @dependencies golang.org/x/crypto/bcrypt, gorm.io/gorm
 * @refs api/middleware/push_auth.go, service/models/ingestion.go
 */

package ingestion

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"nexuscore-service/service/models"
)

// 校验失败的哨兵错误,鉴权中间件据此区分响应状态码
var (
	ErrCredentialNotFound = errors.New("未配置推送凭证")
	ErrCredentialDisabled = errors.New("推送凭证已停用")
	ErrTokenMismatch      = errors.New("推送令牌无效")
)

// CredentialService 数据源推送凭证管理服务
type CredentialService struct {
	db *gorm.DB
}

// NewCredentialService 创建推送凭证管理服务实例
func NewCredentialService(db *gorm.DB) *CredentialService {
	return &CredentialService{db: db}
}

// IssueCredential 为数据源签发推送令牌,明文令牌仅在签发时返回一次
func (s *CredentialService) IssueCredential(sourceKey, description, createdBy string) (*models.SourcePushCredential, string, error) {
	if sourceKey == "" {
		return nil, "", errors.New("数据源标识不能为空")
	}

	var count int64
	if err := s.db.Model(&models.SourcePushCredential{}).
		Where("source_key = ?", sourceKey).Count(&count).Error; err != nil {
		return nil, "", err
	}
	if count > 0 {
		return nil, "", fmt.Errorf("数据源 %s 已存在推送凭证,请使用轮换接口更新令牌", sourceKey)
	}

	token, err := generateToken()
	if err != nil {
		return nil, "", fmt.Errorf("生成令牌失败: %w", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	credential := &models.SourcePushCredential{
		SourceKey:   sourceKey,
		TokenHash:   string(hashed),
		Description: description,
		Enabled:     true,
		CreatedBy:   createdBy,
	}
	if err := s.db.Create(credential).Error; err != nil {
		return nil, "", err
	}
	return credential, token, nil
}

// RotateCredential 为已有凭证生成新令牌,旧令牌立即失效
func (s *CredentialService) RotateCredential(sourceKey string) (string, error) {
	credential, err := s.getBySourceKey(sourceKey)
	if err != nil {
		return "", err
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("生成令牌失败: %w", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	if err := s.db.Model(credential).Update("token_hash", string(hashed)).Error; err != nil {
		return "", err
	}
	return token, nil
}

// ListCredentials 列出全部推送凭证,令牌哈希不随响应序列化
func (s *CredentialService) ListCredentials() ([]models.SourcePushCredential, error) {
	var credentials []models.SourcePushCredential
	err := s.db.Order("created_at DESC").Find(&credentials).Error
	return credentials, err
}

// SetEnabled 启用或停用凭证
func (s *CredentialService) SetEnabled(sourceKey string, enabled bool) error {
	result := s.db.Model(&models.SourcePushCredential{}).
		Where("source_key = ?", sourceKey).Update("enabled", enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCredential 删除凭证
func (s *CredentialService) DeleteCredential(sourceKey string) error {
	result := s.db.Where("source_key = ?", sourceKey).Delete(&models.SourcePushCredential{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Verify 校验数据源的推送令牌,通过后更新最后使用时间
func (s *CredentialService) Verify(sourceKey, token string) error {
	credential, err := s.getBySourceKey(sourceKey)
	if err != nil {
		return err
	}
	if !credential.Enabled {
		return fmt.Errorf("数据源 %s 的%w", sourceKey, ErrCredentialDisabled)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(credential.TokenHash), []byte(token)); err != nil {
		return ErrTokenMismatch
	}

	now := time.Now()
	s.db.Model(credential).Update("last_used_at", now)
	return nil
}

func (s *CredentialService) getBySourceKey(sourceKey string) (*models.SourcePushCredential, error) {
	var credential models.SourcePushCredential
	if err := s.db.Where("source_key = ?", sourceKey).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("数据源 %s %w", sourceKey, ErrCredentialNotFound)
		}
		return nil, err
	}
	return &credential, nil
}

// generateToken 生成32字节随机令牌的hex表示
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
