/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference dev_docs/requirements.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式;推送接口需凭证鉴权
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs dev_docs/model.md
 */

package api

import (
	"nexuscore-service/api/controllers"
	apimiddleware "nexuscore-service/api/middleware"
	"nexuscore-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Push-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController(service.DB)
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// SSE事件订阅
	eventController := controllers.NewEventController(service.GlobalEventService)
	r.Get("/sse/{user_name}", eventController.HandleSSE)

	// 事件管理
	r.Route("/events", func(r chi.Router) {
		r.Post("/send", eventController.SendEvent)
		r.Post("/broadcast", eventController.BroadcastEvent)
		r.Get("/connections", eventController.GetSSEConnectionList)
		r.Get("/history", eventController.GetEventHistoryList)
		r.Post("/{id}/read", eventController.MarkEventRead)
	})

	// 数据源管理（聚合服务代理）
	r.Route("/sources", func(r chi.Router) {
		sourceController := controllers.NewSourceController(service.GlobalAggregatorClient)

		r.Get("/", sourceController.ListSources)
		r.Post("/", sourceController.CreateSource)

		// 文件上传注册数据源
		r.Post("/upload", sourceController.UploadFile)

		// 聚合服务连通性与系统信息
		r.Post("/test-connection", sourceController.TestConnection)
		r.Get("/system-info", sourceController.GetSystemInfo)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", sourceController.GetSource)
			r.Put("/", sourceController.UpdateSource)
			r.Delete("/", sourceController.DeleteSource)
			r.Get("/health", sourceController.GetSourceHealth)
			r.Get("/profile", sourceController.ProfileSource)
			r.Get("/preview", sourceController.PreviewSource)
			r.Post("/transform", sourceController.TransformSource)
		})
	})

	// 摄取编排
	r.Route("/ingestion", func(r chi.Router) {
		pushAuth := apimiddleware.NewPushAuthMiddleware(service.GlobalCredentialService)
		ingestionController := controllers.NewIngestionController(
			service.GlobalIngestionService,
			service.GlobalRunRecorder,
			service.GlobalIntake,
			service.GlobalCredentialService,
			pushAuth,
		)

		// 摄取触发
		r.Post("/ingest", ingestionController.IngestSource)
		r.Post("/records", ingestionController.IngestRecords)
		r.Post("/datasets", ingestionController.CreateMissionDataset)

		// 运行历史
		r.Get("/runs", ingestionController.ListRuns)
		r.Get("/runs/{id}", ingestionController.GetRun)

		// 推送缓冲管理
		r.Get("/intake/status", ingestionController.GetIntakeStatus)
		r.Put("/intake/{source_key}/options", ingestionController.ConfigureIntake)

		// 推送凭证管理
		r.Route("/credentials", func(r chi.Router) {
			r.Post("/", ingestionController.IssueCredential)
			r.Get("/", ingestionController.ListCredentials)
			r.Post("/{source_key}/rotate", ingestionController.RotateCredential)
			r.Put("/{source_key}/status", ingestionController.SetCredentialStatus)
			r.Delete("/{source_key}", ingestionController.DeleteCredential)
		})

		// 外部推送接入,凭证鉴权,配置限流器时按数据源限流
		var pushLimiter apimiddleware.PushLimiter
		if service.GlobalPushRateLimiter != nil {
			pushLimiter = service.GlobalPushRateLimiter
		}
		pushRateLimit := apimiddleware.NewPushRateLimitMiddleware(pushLimiter)
		r.Route("/push/{source_key}", func(r chi.Router) {
			r.Use(pushAuth.Middleware)
			r.Use(pushRateLimit.Middleware)
			r.Post("/", ingestionController.PushRecords)
			r.Post("/flush", ingestionController.FlushPush)
		})
	})

	// 数据转换与模式
	r.Route("/transform", func(r chi.Router) {
		transformController := controllers.NewTransformController(
			service.GlobalTransformer,
			service.GlobalScriptExecutor,
			service.GlobalInterpreter,
		)

		r.Post("/apply", transformController.ApplyTransform)
		r.Get("/transforms", transformController.ListTransforms)
		r.Post("/schema", transformController.InferSchema)
		r.Post("/suggest", transformController.SuggestTransformations)

		// 脚本转换管理
		r.Route("/scripts", func(r chi.Router) {
			r.Post("/", transformController.RegisterScript)
			r.Post("/validate", transformController.ValidateScript)
			r.Delete("/cache", transformController.ClearScriptCache)
		})
	})

	// 数据字典
	r.Route("/dictionary", func(r chi.Router) {
		dictionaryController := controllers.NewDictionaryController(service.GlobalDictionaryService)

		r.Get("/sources", dictionaryController.ListSources)
		r.Post("/suggest-mappings", dictionaryController.SuggestFieldMappings)
		r.Get("/categories/{category}", dictionaryController.ListFieldsByCategory)

		r.Route("/{source_key}", func(r chi.Router) {
			r.Get("/fields", dictionaryController.ListFields)
			r.Put("/fields", dictionaryController.UpsertDictionary)
			r.Get("/fields/{field_name}", dictionaryController.GetField)
			r.Get("/documentation", dictionaryController.GenerateDocumentation)
		})
	})

	// 摄取调度
	r.Route("/schedules", func(r chi.Router) {
		scheduleController := controllers.NewScheduleController(
			service.GlobalScheduleService,
			service.GlobalSchedulerService,
		)

		r.Post("/", scheduleController.CreateSchedule)
		r.Get("/", scheduleController.ListSchedules)
		r.Get("/{id}", scheduleController.GetSchedule)
		r.Put("/{id}", scheduleController.UpdateSchedule)
		r.Delete("/{id}", scheduleController.DeleteSchedule)
		r.Put("/{id}/status", scheduleController.SetScheduleStatus)
		r.Post("/{id}/trigger", scheduleController.TriggerSchedule)
	})
}
