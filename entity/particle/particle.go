// 粒子跟车模型：开放走廊上的贪心最小间距模型。
// 每辆车在一步显式欧拉积分的前提下，选择恰好保持最小安全间距的最大速度；
// 这是一个单步前瞻的贪心安全律，不是平滑的加速度模型，
// 速度在步与步之间可以跳变
package particle

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/trafficflow/utils/container"
)

// log 粒子模型模块的日志记录器
var log = logrus.WithField("module", "particle")

// Car 粒子模型中的单辆车
// 说明：只有位置和速度两个自由度，跟车参数（vmax、dmin）由模型统一持有
type Car struct {
	id   int32
	x    float64 // 位置
	v    float64 // 速度
	lcar float64 // 车长（取模型的lcar，供链表接口使用）

	node *container.ListNode[*Car]
}

// ID 获取车辆ID
func (c *Car) ID() int32 {
	return c.id
}

// X 获取位置
func (c *Car) X() float64 {
	return c.x
}

// V 获取速度
func (c *Car) V() float64 {
	return c.v
}

// Length 获取车长
func (c *Car) Length() float64 {
	return c.lcar
}

// String 获取车辆的字符串表示
func (c *Car) String() string {
	return fmt.Sprintf("Car{ID:%d, X:%v, V:%v}", c.id, c.x, c.v)
}

// Model 粒子交通模型控制器
// 功能：开放走廊上的车辆集合与时间推进——计算期望速度、
// 显式欧拉积分、移除驶出走廊的车辆、推进时钟
// 说明：车辆集合用按位置升序的链表维护（前车即后继节点），
// 按位置降序的查询视图从尾部遍历得到。一步之内所有期望速度
// 都基于本步开始时的顺序和状态计算，移动后不重排——
// 贪心安全律保证车辆不会相互超越，升序性质在步进下保持
type Model struct {
	length float64 // 走廊总长，位置超过该值的车辆驶出并被移除
	vmax   float64 // 最大速度
	dmin   float64 // 最小安全间距
	lcar   float64 // 车长
	dt     float64 // 时间步长
	time   float64 // 当前仿真时间

	cars   *container.List[*Car] // 按位置升序的车辆链表
	nextID int32
}

// New 创建粒子交通模型
// 参数：length-走廊总长，vmax-最大速度，dmin-最小安全间距，lcar-车长，dt-时间步长
// 说明：非法参数属于配置错误，构造时直接失败
func New(length, vmax, dmin, lcar, dt float64) (*Model, error) {
	if length <= 0 {
		return nil, fmt.Errorf("particle: length must be positive, got %v", length)
	}
	if vmax <= 0 {
		return nil, fmt.Errorf("particle: vmax must be positive, got %v", vmax)
	}
	if dmin <= 0 || lcar <= 0 {
		return nil, fmt.Errorf("particle: dmin and lcar must be positive, got dmin=%v lcar=%v", dmin, lcar)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("particle: dt must be positive, got %v", dt)
	}
	return &Model{
		length: length,
		vmax:   vmax,
		dmin:   dmin,
		lcar:   lcar,
		dt:     dt,
		cars:   &container.List[*Car]{ID: "particle cars"},
	}, nil
}

// AddCar 向走廊添加车辆
// 参数：position-初始位置，velocity-初始速度
// 说明：插入后链表保持按位置升序，位置降序的查询视图因此保持有序
func (m *Model) AddCar(position, velocity float64) *Car {
	c := &Car{
		id:   m.nextID,
		x:    position,
		v:    velocity,
		lcar: m.lcar,
	}
	m.nextID++
	c.node = &container.ListNode[*Car]{S: position, Value: c}
	m.cars.Merge([]*container.ListNode[*Car]{c.node})
	return c
}

// Leader 获取车辆的前车（位置更大的最近车辆），头车返回nil
func (m *Model) Leader(c *Car) *Car {
	if n := c.node.Next(); n != nil {
		return n.Value
	}
	return nil
}

// DesiredVelocity 计算车辆的期望速度
// 算法说明：
//  1. 头车（无前车）：以最大速度行驶
//  2. 否则取一步欧拉积分后与前车恰好保持dmin间距的速度：
//     (front.x - x - dmin + front.v*dt) / dt，前车按当前速度推算，
//     再裁剪到[0, vmax]
func (m *Model) DesiredVelocity(c *Car) float64 {
	front := m.Leader(c)
	if front == nil {
		// 头车，无约束
		return m.vmax
	}
	return lo.Clamp((front.x-c.x-m.dmin+front.v*m.dt)/m.dt, 0, m.vmax)
}

// Step 推进一个时间步
// 算法说明：
//  1. 阶段1（只读）：用本步开始时的位置、速度和顺序计算全部期望速度，
//     不混用已更新的邻居状态
//  2. 阶段2（写入）：速度直接替换为期望速度，位置显式欧拉积分
//  3. 移除位置超过走廊总长的车辆（开放走廊，车辆驶出）
//  4. 推进仿真时间
//
// 返回：本步驶出走廊的车辆数
func (m *Model) Step() int {
	desired := make([]float64, 0, m.cars.Len())
	for node := m.cars.First(); node != nil; node = node.Next() {
		desired = append(desired, m.DesiredVelocity(node.Value))
	}
	i := 0
	for node := m.cars.First(); node != nil; node = node.Next() {
		c := node.Value
		c.v = desired[i]
		c.x += c.v * m.dt
		node.S = c.x
		i++
	}
	// 驶出走廊的车辆移除
	removed := 0
	for node := m.cars.First(); node != nil; {
		next := node.Next()
		if node.Value.x > m.length {
			m.cars.Remove(node)
			removed++
		}
		node = next
	}
	if removed > 0 {
		log.Debugf("t=%v: %d cars left the corridor", m.time, removed)
	}
	m.time += m.dt
	return removed
}

// getter与查询接口，供渲染和分析使用（只读快照）

// Length 获取走廊总长
func (m *Model) Length() float64 {
	return m.length
}

// VMax 获取最大速度
func (m *Model) VMax() float64 {
	return m.vmax
}

// Time 获取当前仿真时间
func (m *Model) Time() float64 {
	return m.time
}

// Count 获取当前车辆数
func (m *Model) Count() int {
	return m.cars.Len()
}

// Cars 获取按位置降序排列的全部车辆（头车在前）
func (m *Model) Cars() []*Car {
	cars := make([]*Car, 0, m.cars.Len())
	for node := m.cars.Last(); node != nil; node = node.Prev() {
		cars = append(cars, node.Value)
	}
	return cars
}

// Positions 获取按位置降序排列的车辆位置
func (m *Model) Positions() []float64 {
	return lo.Map(m.Cars(), func(c *Car, _ int) float64 { return c.x })
}

// Velocities 获取按位置降序排列的车辆速度
func (m *Model) Velocities() []float64 {
	return lo.Map(m.Cars(), func(c *Car, _ int) float64 { return c.v })
}

// DensityAt 计算位置x附近的局部密度
// 参数：x-测量位置，window-窗口宽度
// 说明：窗口内车辆数*车长/窗口宽度
func (m *Model) DensityAt(x, window float64) float64 {
	count := 0
	for node := m.cars.First(); node != nil; node = node.Next() {
		if math.Abs(node.Value.x-x) <= window/2 {
			count++
		}
	}
	return float64(count) * m.lcar / window
}
