package road

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/trafficflow/entity/vehicle"
	"github.com/tsinghua-fib-lab/trafficflow/utils/container"
)

// log 道路模块的日志记录器
var log = logrus.WithField("module", "road")

// Option Road的可选配置
type Option func(*Road)

// WithLaw 指定跟车加速度模型（默认IDM）
func WithLaw(law vehicle.Law) Option {
	return func(r *Road) { r.law = law }
}

// WithResolver 指定前车解析器（默认车道有序索引）
func WithResolver(resolver LeaderResolver) Option {
	return func(r *Road) { r.resolver = resolver }
}

// Road 环形道路模拟控制器
// 功能：持有车辆集合，按步推进跟车模型——解析前车、计算加速度、
// 弹道积分、环路回绕、推进时钟
// 说明：环路边界条件下车辆只回绕不销毁，车辆数在整个模拟过程中不变。
// 一步之内先整体读取snapshot计算全部加速度，再整体写入积分结果，
// 车辆处理顺序不影响结果；阶段1只读，阶段2写各自车辆的状态，
// 宿主并行化时无须加锁
type Road struct {
	length float64 // 道路总长
	dt     float64 // 时间步长
	time   float64 // 当前仿真时间

	lanes    []*container.List[*vehicle.Vehicle]           // 每车道按位置升序的车辆索引
	data     map[int32]*vehicle.Vehicle                    // ID到车辆的映射
	vehicles *container.IncrementalArray[*vehicle.Vehicle] // 车辆主存储

	law      vehicle.Law
	resolver LeaderResolver
}

// New 创建环形道路
// 参数：length-道路总长，laneCount-车道数，dt-时间步长
// 说明：非法参数属于配置错误，构造时直接失败
func New(length float64, laneCount int, dt float64, opts ...Option) (*Road, error) {
	if length <= 0 {
		return nil, fmt.Errorf("road: length must be positive, got %v", length)
	}
	if laneCount < 1 {
		return nil, fmt.Errorf("road: lane count must be at least 1, got %v", laneCount)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("road: dt must be positive, got %v", dt)
	}
	r := &Road{
		length:   length,
		dt:       dt,
		lanes:    make([]*container.List[*vehicle.Vehicle], laneCount),
		data:     make(map[int32]*vehicle.Vehicle),
		vehicles: container.NewIncrementalArray[*vehicle.Vehicle](),
		law:      vehicle.NewIDM(),
		resolver: IndexResolver{},
	}
	for i := range r.lanes {
		r.lanes[i] = &container.List[*vehicle.Vehicle]{
			ID: fmt.Sprintf("lane %d vehicles", i),
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Add 向道路添加车辆
// 参数：id-车辆ID（全局唯一），position-初始位置，speed-初始速度，
// lane-车道号，attr-车辆属性（零值字段取默认值）
// 说明：重复ID、越界车道、越界位置和非法属性都在这里直接失败
func (r *Road) Add(id int32, position, speed float64, lane int, attr vehicle.Attr) error {
	if lane < 0 || lane >= len(r.lanes) {
		return fmt.Errorf("road: lane %d out of range [0, %d)", lane, len(r.lanes))
	}
	if position < 0 || position >= r.length {
		return fmt.Errorf("road: position %v out of range [0, %v)", position, r.length)
	}
	if _, ok := r.data[id]; ok {
		return fmt.Errorf("road: vehicle ID %v already exists", id)
	}
	v, err := vehicle.New(id, position, speed, lane, attr)
	if err != nil {
		return err
	}
	r.data[id] = v
	r.vehicles.Add(v)
	r.vehicles.Prepare()
	r.lanes[lane].Merge([]*container.ListNode[*vehicle.Vehicle]{v.Node()})
	return nil
}

// Get 根据ID获取车辆，不存在则panic
func (r *Road) Get(id int32) *vehicle.Vehicle {
	if v, ok := r.data[id]; !ok {
		log.Panicf("no id %d in road data", id)
		return nil
	} else {
		return v
	}
}

// GetOrError 根据ID获取车辆（带错误处理）
func (r *Road) GetOrError(id int32) (*vehicle.Vehicle, error) {
	if v, ok := r.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in road data", id)
	} else {
		return v, nil
	}
}

// Leader 查询车辆的前车，无前车返回nil
// 说明：查询不存在的车辆属于调用方错误，直接返回错误
func (r *Road) Leader(id int32) (*vehicle.Vehicle, error) {
	v, err := r.GetOrError(id)
	if err != nil {
		return nil, err
	}
	return r.resolver.Leader(r, v), nil
}

// prepare 准备阶段：snapshot写入与车道索引重排
func (r *Road) prepare() {
	for _, v := range r.vehicles.Data() {
		v.Prepare()
	}
	for _, lane := range r.lanes {
		unsorted := lane.PopUnsorted()
		lane.Merge(unsorted)
	}
}

// Step 推进一个时间步
// 算法说明：
//  1. 准备阶段：runtime写入snapshot，车道索引按新位置重排
//  2. 阶段1（只读）：并行解析前车并计算每辆车的加速度
//  3. 原子性检查：任何车辆产生NaN/Inf加速度则放弃本步，
//     不留下部分更新的车辆状态，并报告出错车辆
//  4. 阶段2（写入）：弹道积分与环路回绕
//  5. 推进仿真时间
func (r *Road) Step() error {
	r.prepare()
	vs := r.vehicles.Data()

	accs := make([]float64, len(vs))
	parallel.GoFor(vs, func(v *vehicle.Vehicle) {
		accs[v.Index()] = r.law.Acceleration(v, r.resolver.Leader(r, v))
	})
	for i, a := range accs {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return fmt.Errorf(
				"road: step aborted at t=%v, vehicle %d produced invalid acceleration %v",
				r.time, vs[i].ID(), a,
			)
		}
	}
	parallel.GoFor(vs, func(v *vehicle.Vehicle) {
		v.Integrate(accs[v.Index()], r.dt, r.length)
	})

	r.time += r.dt
	return nil
}

// getter与查询接口，供渲染和分析使用（只读快照）

// Length 获取道路总长
func (r *Road) Length() float64 {
	return r.length
}

// LaneCount 获取车道数
func (r *Road) LaneCount() int {
	return len(r.lanes)
}

// Time 获取当前仿真时间
func (r *Road) Time() float64 {
	return r.time
}

// VehicleCount 获取车辆数
func (r *Road) VehicleCount() int {
	return r.vehicles.Len()
}

// Vehicles 获取全部车辆
func (r *Road) Vehicles() []*vehicle.Vehicle {
	return r.vehicles.Data()
}

// LaneVehicles 获取某车道上按位置升序排列的车辆
func (r *Road) LaneVehicles(lane int) []*vehicle.Vehicle {
	if lane < 0 || lane >= len(r.lanes) {
		return nil
	}
	return r.lanes[lane].Values()
}

// Positions 获取全部车辆的当前位置
func (r *Road) Positions() []float64 {
	return lo.Map(r.vehicles.Data(), func(v *vehicle.Vehicle, _ int) float64 { return v.S() })
}

// Speeds 获取全部车辆的当前速度
func (r *Road) Speeds() []float64 {
	return lo.Map(r.vehicles.Data(), func(v *vehicle.Vehicle, _ int) float64 { return v.V() })
}

// Accelerations 获取全部车辆的当前加速度
func (r *Road) Accelerations() []float64 {
	return lo.Map(r.vehicles.Data(), func(v *vehicle.Vehicle, _ int) float64 { return v.A() })
}

// DensityAt 计算位置x附近的局部密度
// 参数：x-测量位置，window-窗口宽度
// 说明：窗口内车辆占用长度之和除以窗口宽度；
// 车辆同长时等价于 数量*车长/窗口宽度
func (r *Road) DensityAt(x, window float64) float64 {
	occupied := .0
	for _, v := range r.vehicles.Data() {
		if math.Abs(v.S()-x) <= window/2 {
			occupied += v.Length()
		}
	}
	return occupied / window
}
