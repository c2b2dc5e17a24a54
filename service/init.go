/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、上游客户端构建与各领域服务装配
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保所有依赖服务正常启动后才提供API服务
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs dev_docs/model.md
 */

package service

import (
	"context"
	"fmt"
	"log"
	"nexuscore-service/client/aggregator"
	"nexuscore-service/client/apex"
	"nexuscore-service/client/connectors"
	"nexuscore-service/service/cleanup"
	"nexuscore-service/service/database"
	"nexuscore-service/service/dictionary"
	"nexuscore-service/service/distributed_lock"
	"nexuscore-service/service/event"
	"nexuscore-service/service/ingestion"
	"nexuscore-service/service/rate_limiter"
	"nexuscore-service/service/scheduler"
	"nexuscore-service/service/schema"
	"nexuscore-service/service/transform"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB                      *gorm.DB
	GlobalEventService      *event.EventService
	GlobalAggregatorClient  *aggregator.Client
	GlobalApexClient        *apex.Client
	GlobalInterpreter       *schema.Interpreter
	GlobalTransformer       *transform.Transformer
	GlobalScriptExecutor    *transform.ScriptExecutor
	GlobalDictionaryService *dictionary.DictionaryService
	GlobalRunRecorder       *ingestion.RunRecorder
	GlobalCredentialService *ingestion.CredentialService
	GlobalIngestionService  *ingestion.IngestionService
	GlobalIntake            *ingestion.Intake
	GlobalScheduleService   *scheduler.ScheduleService
	GlobalSchedulerService  *scheduler.SchedulerService
	GlobalConnectorManager  *connectors.Manager
	GlobalRetentionService  *cleanup.RetentionService
	GlobalPushRateLimiter   *rate_limiter.PushRateLimiter
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		// 使用分离的环境变量构建连接字符串
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "nexuscore2024")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schemaName := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
			host, port, user, password, dbname, sslmode, schemaName)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	log.Println("开始运行数据库迁移...")

	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")

	if err := database.InitializeData(DB); err != nil {
		log.Fatalf("基础数据初始化失败: %v", err)
	}
	log.Println("基础数据初始化完成")

	if err := database.AutoMigrateView(DB); err != nil {
		log.Fatalf("视图迁移失败: %v", err)
	}
	log.Println("视图迁移完成")

	log.Println("所有数据库迁移任务完成")
}

// initServices 初始化服务
func initServices() {
	// 初始化事件服务并启动数据库监听与连接清理
	GlobalEventService = event.NewEventService(DB)
	GlobalEventService.Start()

	// 上游客户端
	GlobalAggregatorClient = aggregator.NewClient(&aggregator.Config{
		BaseURL: getEnvWithDefault("AGGREGATOR_URL", "http://localhost:8000"),
		APIKey:  os.Getenv("AGGREGATOR_API_KEY"),
	})
	GlobalApexClient = apex.NewClient(&apex.Config{
		BaseURL: getEnvWithDefault("APEX_URL", "http://localhost:8100"),
		APIKey:  os.Getenv("APEX_API_KEY"),
	})

	// 语言模型为可选能力,未配置密钥时模式讲解退回模板生成
	var llmProvider schema.LLMProvider
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		llmProvider = schema.NewOpenAIProvider(&schema.LLMConfig{
			BaseURL: getEnvWithDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  apiKey,
			Model:   getEnvWithDefault("LLM_MODEL", "gpt-4o-mini"),
		})
	}
	GlobalInterpreter = schema.NewInterpreter(llmProvider)

	// 转换流水线与脚本执行器
	GlobalTransformer = transform.NewTransformer()
	GlobalScriptExecutor = transform.NewScriptExecutor()

	// 数据字典
	GlobalDictionaryService = dictionary.NewDictionaryService(DB)

	// 摄取编排:运行记录经事件服务广播
	GlobalRunRecorder = ingestion.NewRunRecorder(DB, GlobalEventService)
	GlobalCredentialService = ingestion.NewCredentialService(DB)
	GlobalIngestionService = ingestion.NewIngestionService(&ingestion.IngestionConfig{
		Aggregator:     GlobalAggregatorClient,
		Apex:           GlobalApexClient,
		Interpreter:    GlobalInterpreter,
		Transformer:    GlobalTransformer,
		Dictionary:     GlobalDictionaryService,
		Recorder:       GlobalRunRecorder,
		DefaultProfile: os.Getenv("ANALYSIS_PROFILE"),
	})

	// 推送缓冲
	GlobalIntake = ingestion.NewIntake(GlobalIngestionService, &ingestion.IntakeConfig{
		FlushSize:     getEnvInt("PUSH_FLUSH_SIZE", 0),
		FlushInterval: getEnvDuration("PUSH_FLUSH_INTERVAL", 0),
	})
	GlobalIntake.Start()

	// 摄取调度
	GlobalScheduleService = scheduler.NewScheduleService(DB)
	GlobalSchedulerService = scheduler.NewSchedulerService(DB, GlobalScheduleService, GlobalIngestionService)

	// Redis可用时启用跨实例调度防重与推送限流
	initRedisBackedServices()

	// 流式接入连接器
	initConnectors()

	// 探测上游服务连通性
	checkUpstreamServices()

	// 启动调度器
	if err := GlobalSchedulerService.Start(); err != nil {
		log.Printf("启动调度器服务失败: %v", err)
	}

	// 历史数据保留清理
	GlobalRetentionService = cleanup.NewRetentionService(DB, &cleanup.RetentionConfig{
		RunRetentionDays:   getEnvInt("RUN_RETENTION_DAYS", 0),
		EventRetentionDays: getEnvInt("EVENT_RETENTION_DAYS", 0),
		CleanupCron:        os.Getenv("CLEANUP_CRON"),
	})
	if err := GlobalRetentionService.StartScheduledCleanup(); err != nil {
		log.Printf("启动历史数据清理调度器失败: %v", err)
	}
	log.Println("服务初始化完成")
}

// initRedisBackedServices 装配依赖Redis的调度分布式锁与推送限流器,
// 未配置REDIS_ADDR时两者都不启用
func initRedisBackedServices() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return
	}

	lock, err := distributed_lock.NewRedisLock(&distributed_lock.LockConfig{
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		Database: getEnvInt("REDIS_DB", 0),
	})
	if err != nil {
		log.Printf("初始化调度分布式锁失败: %v", err)
	} else {
		GlobalSchedulerService.SetDistributedLock(lock)
	}

	sourceLimit := getEnvInt("PUSH_RATE_LIMIT", 0)
	globalLimit := getEnvInt("PUSH_RATE_LIMIT_GLOBAL", 0)
	if sourceLimit <= 0 && globalLimit <= 0 {
		return
	}

	GlobalPushRateLimiter, err = rate_limiter.NewPushRateLimiter(&rate_limiter.RateLimitConfig{
		Address:       addr,
		Password:      os.Getenv("REDIS_PASSWORD"),
		Database:      getEnvInt("REDIS_DB", 0),
		SourceLimit:   sourceLimit,
		GlobalLimit:   globalLimit,
		WindowSeconds: getEnvInt("PUSH_RATE_WINDOW", 0),
	})
	if err != nil {
		log.Printf("初始化推送限流器失败: %v", err)
		GlobalPushRateLimiter = nil
	}
}

// initConnectors 按环境变量装配流式接入连接器,未配置的传输层跳过
func initConnectors() {
	GlobalConnectorManager = connectors.NewManager()
	handler := connectors.RecordHandler(GlobalIntake.Push)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topics := parseSourceMapping(os.Getenv("KAFKA_TOPICS"))
		if len(topics) > 0 {
			GlobalConnectorManager.Register(connectors.NewKafkaConnector(&connectors.KafkaIntakeConfig{
				Brokers: strings.Split(brokers, ","),
				GroupID: getEnvWithDefault("KAFKA_GROUP_ID", "nexuscore-intake"),
				Topics:  topics,
			}, handler))
		} else {
			log.Println("KAFKA_BROKERS已配置但KAFKA_TOPICS为空,跳过Kafka连接器")
		}
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		channels := parseSourceMapping(os.Getenv("REDIS_CHANNELS"))
		if len(channels) > 0 {
			GlobalConnectorManager.Register(connectors.NewRedisConnector(&connectors.RedisIntakeConfig{
				Address:  addr,
				Password: os.Getenv("REDIS_PASSWORD"),
				Database: getEnvInt("REDIS_DB", 0),
				Channels: channels,
			}, handler))
		} else {
			log.Println("REDIS_ADDR已配置但REDIS_CHANNELS为空,跳过Redis连接器")
		}
	}

	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		topics := parseSourceMapping(os.Getenv("MQTT_TOPICS"))
		if len(topics) > 0 {
			GlobalConnectorManager.Register(connectors.NewMQTTConnector(&connectors.MQTTIntakeConfig{
				Broker:   broker,
				ClientID: getEnvWithDefault("MQTT_CLIENT_ID", "nexuscore-intake"),
				Username: os.Getenv("MQTT_USERNAME"),
				Password: os.Getenv("MQTT_PASSWORD"),
				Topics:   topics,
			}, handler))
		} else {
			log.Println("MQTT_BROKER已配置但MQTT_TOPICS为空,跳过MQTT连接器")
		}
	}

	GlobalConnectorManager.ConnectAll()
}

// parseSourceMapping 解析"主题=数据源标识"逗号分隔映射,如"orders=sales_2024,logs=app_logs"
func parseSourceMapping(raw string) map[string]string {
	mapping := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			log.Printf("忽略无效的数据源映射项: %s", pair)
			continue
		}
		mapping[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return mapping
}

// checkUpstreamServices 探测聚合服务与任务服务连通性,失败不阻断启动
func checkUpstreamServices() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := GlobalAggregatorClient.TestConnection(ctx); err != nil {
		log.Printf("聚合服务连通性探测失败: %v", err)
	} else {
		log.Println("聚合服务连通性正常")
	}

	if err := GlobalApexClient.Connect(); err != nil {
		log.Printf("任务服务连接失败: %v", err)
	}
}

// getEnvInt 获取整数环境变量,解析失败时返回默认值
func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("环境变量 %s 取值 %s 不是合法整数,使用默认值 %d", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvDuration 获取时长环境变量,如"30s"、"5m",解析失败时返回默认值
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("环境变量 %s 取值 %s 不是合法时长,使用默认值 %s", key, raw, defaultValue)
		return defaultValue
	}
	return value
}
