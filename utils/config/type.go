package config

// ScenarioPath 指定初始车流数据来源的配置（MongoDB、文件系统）
// 说明：支持MongoDB集合和YAML文件两种数据源，支持缓存机制
type ScenarioPath struct {
	DB        string `yaml:"db"`                   // 数据库名
	Col       string `yaml:"col"`                  // 集合名
	Cache     string `yaml:"cache,omitempty"`      // 缓存文件名，为空则采用默认路径{db}.{col}.yml
	OnlyCache bool   `yaml:"only_cache,omitempty"` // 只从缓存中获取
	File      string `yaml:"file,omitempty"`       // 文件路径（优先级高于MongoDB）
}

// GetCachePath 获取缓存文件路径
// 说明：未显式指定时使用默认命名规则{数据库名}.{集合名}.yml
func (p ScenarioPath) GetCachePath() string {
	if p.Cache != "" {
		return p.Cache
	}
	return p.DB + "." + p.Col + ".yml"
}

// Input 指定模拟器输入数据的配置项
type Input struct {
	URI      string        `yaml:"uri,omitempty"`      // MongoDB连接字符串
	Scenario *ScenarioPath `yaml:"scenario,omitempty"` // 初始车流
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔
}

// Control 模拟器控制配置
type Control struct {
	Step ControlStep `yaml:"step"`
}

// Road 道路配置
// 说明：model决定边界条件——idm为环路（车辆回绕），particle为开放走廊（车辆驶出后移除）
type Road struct {
	Length float64 `yaml:"length"` // 道路总长
	Lanes  int     `yaml:"lanes"`  // 车道数
	Model  string  `yaml:"model"`  // 跟车模型（idm或particle）
}

// Velocity 宏观速度-密度函数配置
type Velocity struct {
	VMax float64  `yaml:"vmax"`            // 最大速度
	DMin float64  `yaml:"dmin"`            // 最小车间距
	LCar float64  `yaml:"lcar"`            // 车长
	K1   float64  `yaml:"k1"`              // 形状参数K1
	K2   float64  `yaml:"k2"`              // 形状参数K2
	RhoC *float64 `yaml:"rho_c,omitempty"` // 临界密度，为空则采用默认值
}

// Generation 随机初始车流生成配置（未提供scenario输入时使用）
type Generation struct {
	Count      int     `yaml:"count"`                 // 车辆数
	TruckRatio float64 `yaml:"truck_ratio,omitempty"` // 卡车比例
	Seed       uint64  `yaml:"seed"`                  // 随机种子
	VMin       float64 `yaml:"v_min"`                 // 初始速度下限
	VMax       float64 `yaml:"v_max"`                 // 初始速度上限
}

// Config YAML配置文件的根结构
type Config struct {
	Input      Input       `yaml:"input,omitempty"`      // 输入
	Control    Control     `yaml:"control"`              // 模拟过程控制
	Road       Road        `yaml:"road"`                 // 道路
	Velocity   *Velocity   `yaml:"velocity,omitempty"`   // 宏观速度函数（可选的分析配置）
	Generation *Generation `yaml:"generation,omitempty"` // 随机车流生成
}
