/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建和更新数据库表结构
 * @architecture 数据访问层 - 迁移管理
 * @documentReference dev_docs/model.md
 * @stateFlow 应用启动时执行数据库迁移
 * @rules 确保数据库结构与模型定义保持一致
 * @dependencies nexuscore-service/service/models, gorm.io/gorm
 * @refs dev_docs/requirements.md, service/models/ingestion.go
 */

package database

import (
	"log"
	"nexuscore-service/service/models"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	log.Println("开始数据库迁移...")

	// 摄取编排相关表
	err := db.AutoMigrate(
		&models.IngestionRun{},
		&models.IngestionSchedule{},
		&models.SourcePushCredential{},
	)
	if err != nil {
		return err
	}

	// 数据字典相关表
	err = db.AutoMigrate(
		&models.FieldDefinition{},
	)
	if err != nil {
		return err
	}

	// 事件管理相关表
	err = db.AutoMigrate(
		&models.SSEEvent{},
		&models.SSEConnection{},
	)
	if err != nil {
		return err
	}

	log.Println("数据库迁移完成")
	return nil
}

// InitializeData 初始化基础数据
func InitializeData(db *gorm.DB) error {
	log.Println("开始初始化基础数据...")

	// 摄取触发方式
	triggerTypes := []string{
		"manual",   // 手动触发
		"schedule", // 调度触发
		"push",     // 推送触发
	}

	// 摄取运行状态
	runStatuses := []string{
		"running", // 执行中
		"success", // 成功
		"failed",  // 失败
	}

	// 下游任务分析剖面
	analysisProfiles := []string{
		"humint", // 人力情报分析
		"sigint", // 信号情报分析
		"osint",  // 开源情报分析
	}

	log.Printf("支持的摄取触发方式: %v", triggerTypes)
	log.Printf("支持的摄取运行状态: %v", runStatuses)
	log.Printf("支持的分析剖面: %v", analysisProfiles)

	log.Println("基础数据初始化完成")
	return nil
}
