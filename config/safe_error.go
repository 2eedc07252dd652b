package config

// SafeErrorMessage 只有 debug 模式返回 err.Error() 便于开发排查；
// release、test 以及未加载配置时一律返回 fallback，不向客户端暴露内部错误
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if GlobalConfig != nil && GlobalConfig.Server.Mode == "debug" {
		return err.Error()
	}
	return fallback
}
