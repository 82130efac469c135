package input

import (
	"context"
	"os"
	"path/filepath"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/trafficflow/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v2"
)

// log 输入模块的日志记录器
var log = logrus.WithField("module", "input")

// VehicleInput 单辆车的初始状态
// 说明：IDM模型读取全部字段，particle模型只使用位置和速度；
// 未给出的跟车参数采用车辆属性默认值
type VehicleInput struct {
	ID       int32   `yaml:"id" bson:"id"`                                 // 车辆ID
	Position float64 `yaml:"position" bson:"position"`                     // 初始位置
	Speed    float64 `yaml:"speed" bson:"speed"`                           // 初始速度
	Lane     int     `yaml:"lane,omitempty" bson:"lane,omitempty"`         // 车道
	IsTruck  bool    `yaml:"is_truck,omitempty" bson:"is_truck,omitempty"` // 是否为卡车
}

// Scenario 初始车流数据
type Scenario struct {
	Vehicles []*VehicleInput `yaml:"vehicles" bson:"vehicles"`
}

// preCheckCache 预检查缓存目录
// 说明：目录不存在或不是目录时禁用缓存
func preCheckCache(cacheDir string) bool {
	if cacheDir == "" {
		return false
	}
	info, err := os.Stat(cacheDir)
	if err != nil || !info.IsDir() {
		log.Warnf("cache dir %v is not usable, cache disabled", cacheDir)
		return false
	}
	return true
}

// loadFromFile 从YAML文件加载初始车流
func loadFromFile(path string) *Scenario {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Panicf("failed to load scenario from file: %v", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		log.Panicf("failed to parse scenario file %v: %v", path, err)
	}
	return &s
}

// Init 加载初始车流数据
// 功能：根据配置从文件或MongoDB加载初始车流
// 参数：c-配置对象，cacheDir-缓存目录（为空则禁用缓存）
// 返回：初始车流数据，未配置输入时返回nil（由调用方随机生成车流）
// 算法说明：
// 1. 文件优先：配置了file则直接从文件加载
// 2. 缓存检查：命中缓存文件则跳过数据库访问
// 3. 数据库加载：从MongoDB集合中读取全部车辆文档
// 4. 缓存写回：将数据库结果序列化到缓存文件
func Init(c config.Config, cacheDir string) *Scenario {
	p := c.Input.Scenario
	if p == nil {
		return nil
	}
	if p.File != "" {
		s := loadFromFile(p.File)
		log.Infof("loaded %d vehicles from %v", len(s.Vehicles), p.File)
		return s
	}

	useCache := preCheckCache(cacheDir)
	cachePath := filepath.Join(cacheDir, p.GetCachePath())
	if useCache {
		if _, err := os.Stat(cachePath); err == nil {
			s := loadFromFile(cachePath)
			log.Infof("loaded %d vehicles from cache %v", len(s.Vehicles), cachePath)
			return s
		}
	}
	if p.OnlyCache {
		log.Panicf("scenario cache %v not found but only_cache is set", cachePath)
	}

	if c.Input.URI == "" {
		log.Panic("scenario input requires a MongoDB uri or a file path")
	}
	client := mongoutil.NewClient(c.Input.URI)
	defer client.Disconnect(context.Background())
	cur, err := client.Database(p.DB).Collection(p.Col).Find(context.Background(), bson.M{})
	if err != nil {
		log.Panicf("failed to query scenario from %v.%v: %v", p.DB, p.Col, err)
	}
	s := &Scenario{}
	if err := cur.All(context.Background(), &s.Vehicles); err != nil {
		log.Panicf("failed to decode scenario from %v.%v: %v", p.DB, p.Col, err)
	}
	log.Infof("loaded %d vehicles from %v.%v", len(s.Vehicles), p.DB, p.Col)

	if useCache {
		if data, err := yaml.Marshal(s); err != nil {
			log.Warnf("failed to marshal scenario cache: %v", err)
		} else if err := os.WriteFile(cachePath, data, 0o644); err != nil {
			log.Warnf("failed to write scenario cache %v: %v", cachePath, err)
		}
	}
	return s
}
