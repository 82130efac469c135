package vehicle

import (
	"fmt"

	"github.com/tsinghua-fib-lab/trafficflow/utils/container"
)

// 车辆属性默认值（小汽车/卡车）
const (
	defaultLength   = 5.0  // 车长
	defaultWidth    = 2.0  // 车宽
	defaultDesiredV = 30.0 // 期望速度
	defaultHeadway  = 1.5  // 安全车头时距
	defaultMinGap   = 2.0  // 最小停车间距
	defaultMaxA     = 1.0  // 最大加速度
	defaultComfortB = 1.5  // 舒适减速度
	truckLength     = 15.0 // 卡车车长
	truckDesiredV   = 25.0 // 卡车期望速度（卡车开得更慢）
)

// Attr 车辆几何与跟车参数
// 说明：跟车参数由IDM模型使用，particle模型忽略；零值字段在Normalize时填充默认值
type Attr struct {
	Length   float64 // 车长
	Width    float64 // 车宽
	DesiredV float64 // 期望速度
	Headway  float64 // 安全车头时距T
	MinGap   float64 // 最小停车间距s0
	MaxA     float64 // 最大加速度
	ComfortB float64 // 舒适减速度b
	IsTruck  bool    // 是否为卡车
}

// DefaultAttr 获取小汽车默认属性
func DefaultAttr() Attr {
	return Attr{
		Length:   defaultLength,
		Width:    defaultWidth,
		DesiredV: defaultDesiredV,
		Headway:  defaultHeadway,
		MinGap:   defaultMinGap,
		MaxA:     defaultMaxA,
		ComfortB: defaultComfortB,
	}
}

// Normalize 填充默认值
// 说明：零值字段视为未指定，取默认值；负值保留，由Validate拒绝。
// 卡车覆盖车长和期望速度
func (a Attr) Normalize() Attr {
	d := DefaultAttr()
	if a.Length == 0 {
		a.Length = d.Length
	}
	if a.Width == 0 {
		a.Width = d.Width
	}
	if a.DesiredV == 0 {
		a.DesiredV = d.DesiredV
	}
	if a.Headway == 0 {
		a.Headway = d.Headway
	}
	if a.MinGap == 0 {
		a.MinGap = d.MinGap
	}
	if a.MaxA == 0 {
		a.MaxA = d.MaxA
	}
	if a.ComfortB == 0 {
		a.ComfortB = d.ComfortB
	}
	if a.IsTruck {
		a.Length = truckLength
		a.DesiredV = truckDesiredV
	}
	return a
}

// Validate 校验属性合法性
// 说明：期望速度、最大加速度等为零会在IDM公式中产生除零/NaN，
// 属于配置错误，在加车时直接失败而不是等到模拟循环里产生无效加速度
func (a Attr) Validate() error {
	if a.DesiredV <= 0 {
		return fmt.Errorf("vehicle: desired speed must be positive, got %v", a.DesiredV)
	}
	if a.MaxA <= 0 {
		return fmt.Errorf("vehicle: max acceleration must be positive, got %v", a.MaxA)
	}
	if a.ComfortB <= 0 {
		return fmt.Errorf("vehicle: comfortable deceleration must be positive, got %v", a.ComfortB)
	}
	if a.Length <= 0 {
		return fmt.Errorf("vehicle: length must be positive, got %v", a.Length)
	}
	return nil
}

// state 运动学状态
type state struct {
	S float64 // 纵向位置
	V float64 // 速度
	A float64 // 加速度（导出量，不参与积分）
}

// Vehicle 车辆实体
// 功能：保存车辆的运动学状态与跟车参数
// 说明：采用snapshot/runtime双份状态——一步之内所有计算读取snapshot，
// 积分结果写入runtime，prepare时runtime复制到snapshot，
// 保证同一步内车辆处理顺序不影响结果
type Vehicle struct {
	container.IncrementalItemBase

	id   int32
	lane int // 车道号，车辆生命周期内固定（不变道）
	attr Attr

	snapshot, runtime state

	node *container.ListNode[*Vehicle] // 所在车道链表中的节点
}

// New 创建车辆
// 参数：id-车辆ID，position-初始位置，speed-初始速度，lane-车道号，attr-车辆属性
// 说明：属性先填充默认值再校验，初始速度不允许为负
func New(id int32, position, speed float64, lane int, attr Attr) (*Vehicle, error) {
	attr = attr.Normalize()
	if err := attr.Validate(); err != nil {
		return nil, err
	}
	if speed < 0 {
		return nil, fmt.Errorf("vehicle: initial speed must be non-negative, got %v", speed)
	}
	v := &Vehicle{
		id:       id,
		lane:     lane,
		attr:     attr,
		snapshot: state{S: position, V: speed},
		runtime:  state{S: position, V: speed},
	}
	v.node = &container.ListNode[*Vehicle]{S: position, Value: v}
	return v, nil
}

// String 获取车辆的字符串表示
func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle{ID:%d, Lane:%d, S:%v, V:%v}", v.id, v.lane, v.runtime.S, v.runtime.V)
}

// ID 获取车辆ID
func (v *Vehicle) ID() int32 {
	return v.id
}

// LaneIndex 获取车道号
func (v *Vehicle) LaneIndex() int {
	return v.lane
}

// Attr 获取车辆属性
func (v *Vehicle) Attr() Attr {
	return v.attr
}

// S 获取当前位置
func (v *Vehicle) S() float64 {
	return v.runtime.S
}

// V 获取当前速度
// 说明：一步之内其他车辆读取的是snapshot，见SnapshotV
func (v *Vehicle) V() float64 {
	return v.runtime.V
}

// A 获取当前加速度
func (v *Vehicle) A() float64 {
	return v.runtime.A
}

// Length 获取车长
func (v *Vehicle) Length() float64 {
	return v.attr.Length
}

// SnapshotS 获取本步开始时的位置
func (v *Vehicle) SnapshotS() float64 {
	return v.snapshot.S
}

// SnapshotV 获取本步开始时的速度
func (v *Vehicle) SnapshotV() float64 {
	return v.snapshot.V
}

// Node 获取车辆在车道链表中的节点
func (v *Vehicle) Node() *container.ListNode[*Vehicle] {
	return v.node
}

// Prepare 准备阶段：runtime写入snapshot，并同步链表节点键值
func (v *Vehicle) Prepare() {
	v.snapshot = v.runtime
	v.node.S = v.snapshot.S
}

// 计算本时刻的速度与移动距离
// v(t)=v(t-1)+acc*dt, ds=v(t-1)*dt+acc*dt*dt/2
func computeVAndDistance(v, a, dt float64) (float64, float64) {
	dv := a * dt
	if v+dv < 0 {
		// 刹车到停止
		return 0, v * v / 2 / -a
	}
	return v + dv, (v + dv/2) * dt
}

// Integrate 以恒定加速度推进一个时间步（弹道积分）
// 参数：a-本步加速度，dt-时间步长，roadLength-道路总长（环路边界）
// 算法说明：
//  1. v' = max(0, v + a·dt)，位移为v·dt + a·dt²/2，刹停时截断
//  2. 环路回绕：位置超出道路长度则减去道路长度，为负则加上道路长度
//     （单次回绕，要求|位移| < 道路长度，由dt和速度上限保证）
func (v *Vehicle) Integrate(a, dt, roadLength float64) {
	newV, ds := computeVAndDistance(v.snapshot.V, a, dt)
	s := v.snapshot.S + ds
	if s > roadLength {
		s -= roadLength
	} else if s < 0 {
		s += roadLength
	}
	v.runtime = state{S: s, V: newV, A: a}
}
