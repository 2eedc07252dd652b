package router

import (
	"time"

	"fintrack/api"
	"fintrack/config"
	"fintrack/database"
	_ "fintrack/docs"
	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Providers 外部行情、汇率、AI 与邮件依赖，由 main 组装后注入
type Providers struct {
	Refresher *service.AssetRefresher
	Gold      service.GoldPriceProvider
	Stocks    service.StockPriceProvider
	Search    service.TickerSearcher
	Currency  service.CurrencyRateProvider
	Chat      api.ChatProvider
	Email     *service.EmailService
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, p Providers) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	// CORS 中间件
	r.Use(CORSMiddleware())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	apiGroup := r.Group("/api")
	{
		// 认证相关路由（无需登录）
		authHandler := api.NewAuthHandler(cfg)
		auth := apiGroup.Group("/auth")
		{
			auth.POST("/register", middleware.LoginRateLimit(10, time.Hour), authHandler.Register)
			auth.POST("/login", middleware.LoginRateLimit(5, 15*time.Minute), authHandler.Login)
		}

		// 联系表单（无需登录）
		contactHandler := api.NewContactHandler(p.Email)
		apiGroup.POST("/contact/submit",
			middleware.RateLimit(5, time.Hour, "提交过于频繁，请稍后再试"),
			contactHandler.Submit)

		// 需要 JWT 认证的路由
		authorized := apiGroup.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", authHandler.GetProfile)

			categoryHandler := api.NewCategoryHandler()
			authorized.GET("/categories", categoryHandler.List)
			authorized.POST("/categories", categoryHandler.Create)

			// 交易记录
			transactionHandler := api.NewTransactionHandler()
			exportHandler := api.NewExportHandler()
			transactions := authorized.Group("/transactions")
			{
				transactions.POST("", transactionHandler.Create)
				transactions.GET("", transactionHandler.List)
				transactions.GET("/summary", transactionHandler.Summary)
				transactions.GET("/export/csv", exportHandler.ExportCSV)
				transactions.GET("/export/excel", exportHandler.ExportExcel)
				transactions.GET("/:id", transactionHandler.Get)
				transactions.PUT("/:id", transactionHandler.Update)
				transactions.DELETE("/:id", transactionHandler.Delete)
			}

			// 预算
			budgetHandler := api.NewBudgetHandler()
			budgets := authorized.Group("/budgets")
			{
				budgets.GET("", budgetHandler.List)
				budgets.POST("", budgetHandler.Set)
				budgets.DELETE("/:id", budgetHandler.Delete)
			}

			// 天课与所得税
			zakatTaxHandler := api.NewZakatTaxHandler(service.NewZakatTaxService(database.DB, cfg.ZakatTax, p.Gold))
			authorized.GET("/zakat-tax", zakatTaxHandler.Get)

			// 资产
			assetHandler := api.NewAssetHandler(p.Refresher, p.Stocks, p.Search, p.Currency)
			assets := authorized.Group("/assets")
			{
				assets.GET("", assetHandler.List)
				assets.POST("", assetHandler.Create)
				assets.GET("/summary", assetHandler.Summary)
				assets.POST("/refresh", assetHandler.Refresh)
				assets.GET("/history/gold", assetHandler.GoldHistory)
				assets.GET("/history/stock/:ticker", assetHandler.StockHistory)
				assets.GET("/search", assetHandler.SearchTickers)
				assets.GET("/convert", assetHandler.Convert)
				assets.GET("/:id", assetHandler.Get)
				assets.PUT("/:id", assetHandler.Update)
				assets.DELETE("/:id", assetHandler.Delete)
			}

			// 财务日历
			calendarHandler := api.NewCalendarHandler()
			calendar := authorized.Group("/calendar")
			{
				calendar.GET("", calendarHandler.List)
				calendar.POST("", calendarHandler.Create)
				calendar.PUT("/:id", calendarHandler.Update)
				calendar.DELETE("/:id", calendarHandler.Delete)
			}

			// 周期付款
			recurringHandler := api.NewRecurringPaymentHandler()
			recurring := authorized.Group("/recurring-payments")
			{
				recurring.GET("", recurringHandler.List)
				recurring.POST("", recurringHandler.Create)
				recurring.GET("/:id", recurringHandler.Get)
				recurring.PUT("/:id", recurringHandler.Update)
				recurring.DELETE("/:id", recurringHandler.Delete)
			}

			authorized.GET("/dashboard", api.NewDashboardHandler().Get)

			// 理财助手
			chatbotHandler := api.NewChatbotHandler(p.Chat)
			chatLimit := middleware.RateLimit(30, time.Minute, "对话过于频繁，请稍后再试")
			chatbot := authorized.Group("/chatbot")
			{
				chatbot.POST("", chatLimit, chatbotHandler.Chat)
				chatbot.POST("/stream", chatLimit, chatbotHandler.ChatStream)
				chatbot.GET("/history", chatbotHandler.History)
				chatbot.DELETE("/history/:id", chatbotHandler.DeleteHistory)
			}
		}
	}

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
