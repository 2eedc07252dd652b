package service

import (
	"context"
	"fmt"
	"time"

	"fintrack/config"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Job 定时任务
type Job func(ctx context.Context) error

// Scheduler 定时任务调度（行情缓存、资产估值、周期付款顺延）
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Entry
}

// NewScheduler 创建调度器，cron 表达式包含秒字段，按 UTC 执行
func NewScheduler() *Scheduler {
	log := logrus.WithField("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.PrintfLogger(log))),
		),
		log: log,
	}
}

// Add 注册任务，spec 为空时跳过
func (s *Scheduler) Add(name, spec string, job Job) error {
	if spec == "" {
		s.log.WithField("job", name).Info("未配置 cron，跳过任务")
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		entry := s.log.WithField("job", name)
		if err := job(context.Background()); err != nil {
			entry.WithError(err).Error("定时任务执行失败")
			return
		}
		entry.WithField("elapsed", time.Since(start).String()).Info("定时任务执行完成")
	})
	if err != nil {
		return fmt.Errorf("注册定时任务 %s 失败: %w", name, err)
	}
	return nil
}

// Len 已注册任务数
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("jobs", s.Len()).Info("定时任务已启动")
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("定时任务已停止")
}

// RefreshPriceCaches 刷新金价与基础货币汇率缓存
func RefreshPriceCaches(ctx context.Context, db *gorm.DB, gold GoldPriceProvider, fx CurrencyRateProvider, bases []string) error {
	var firstErr error
	if gold != nil {
		q, err := gold.GoldPrice(ctx)
		if err == nil {
			_, err = SaveGoldPrice(db.WithContext(ctx), q)
		}
		if err != nil {
			logrus.WithError(err).Warn("金价刷新失败")
			firstErr = err
		}
	}
	if fx != nil {
		for _, base := range bases {
			rates, err := fx.Rates(ctx, base)
			if err == nil {
				err = SaveExchangeRates(db.WithContext(ctx), rates)
			}
			if err != nil {
				logrus.WithError(err).WithField("base", base).Warn("汇率刷新失败")
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

// Deps 定时任务依赖
type Deps struct {
	DB        *gorm.DB
	Gold      GoldPriceProvider
	Currency  CurrencyRateProvider
	Refresher *AssetRefresher
}

// RegisterJobs 按配置注册全部定时任务
func RegisterJobs(s *Scheduler, cfg config.SchedulerConfig, deps Deps) error {
	if err := s.Add("price_refresh", cfg.PriceRefreshCron, func(ctx context.Context) error {
		return RefreshPriceCaches(ctx, deps.DB, deps.Gold, deps.Currency, []string{"PKR", "USD"})
	}); err != nil {
		return err
	}
	if err := s.Add("asset_refresh", cfg.AssetRefreshCron, func(ctx context.Context) error {
		_, err := deps.Refresher.RefreshAll(ctx)
		return err
	}); err != nil {
		return err
	}
	return s.Add("recurring_roll_forward", cfg.RecurringCron, func(ctx context.Context) error {
		n, err := RollForwardRecurringPayments(deps.DB.WithContext(ctx), time.Now())
		if err == nil && n > 0 {
			logrus.WithField("count", n).Info("周期付款已顺延")
		}
		return err
	})
}
