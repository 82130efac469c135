package config

import (
	"fmt"
)

// 支持的跟车模型名
const (
	ModelIDM      = "idm"
	ModelParticle = "particle"
)

// RuntimeConfig 运行时配置
// 说明：将YAML配置转换为运行时可用的配置对象，转换时完成参数校验
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：校验配置合法性并填充默认值
// 说明：时间步长、道路长度等参数错误属于启动期配置错误，在这里直接失败，
// 而不是等到模拟循环里才暴露
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	rc := &RuntimeConfig{}

	if config.Control.Step.Interval <= 0 {
		return nil, fmt.Errorf("config: step interval must be positive, got %v", config.Control.Step.Interval)
	}
	if config.Control.Step.Total < 0 {
		return nil, fmt.Errorf("config: step total must be non-negative, got %v", config.Control.Step.Total)
	}
	if config.Road.Length <= 0 {
		return nil, fmt.Errorf("config: road length must be positive, got %v", config.Road.Length)
	}
	if config.Road.Lanes < 1 {
		config.Road.Lanes = 1
	}
	switch config.Road.Model {
	case ModelIDM, ModelParticle:
	case "":
		config.Road.Model = ModelIDM
	default:
		return nil, fmt.Errorf("config: unknown road model %q", config.Road.Model)
	}

	rc.All = config
	rc.C = config.Control

	return rc, nil
}
