package service

import "errors"

var (
	// ErrEmptyCategory 类别名称为空
	ErrEmptyCategory = errors.New("类别不能为空")
	// ErrInvalidBudget 预算参数不合法
	ErrInvalidBudget = errors.New("无效的预算设置")
	// ErrInvalidFrequency 不支持的周期
	ErrInvalidFrequency = errors.New("无效的付款频率，可选值：daily、weekly、monthly、yearly")
	// ErrEmptyPaymentName 周期付款名称为空
	ErrEmptyPaymentName = errors.New("付款名称不能为空")
	// ErrProviderUnavailable 外部行情/汇率/AI 服务调用失败
	ErrProviderUnavailable = errors.New("外部服务不可用")
	// ErrNotConfigured 外部服务缺少必要配置（如 API Key）
	ErrNotConfigured = errors.New("外部服务未配置")
)
