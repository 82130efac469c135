package vehicle

import (
	"math"
)

const (
	idmTheta = 4 // IDM加速度指数

	// minGapFloor 间距下限
	// 说明：间距趋零或为负时防止期望间距比发散的数值稳定性下限，
	// 不是物理意义上的最小间距
	minGapFloor = 0.1
)

// Law 跟车加速度模型接口
// 功能：纯函数式的加速度计算，(本车, 前车或nil) -> 加速度
// 说明：实现不得修改车辆状态，读取的都是本步开始时的snapshot，
// 便于替换不同的跟车模型而不触及积分与前车解析逻辑
type Law interface {
	Acceleration(self, leader *Vehicle) float64
}

// IDM 智能驾驶模型（Intelligent Driver Model）
// https://en.wikipedia.org/wiki/Intelligent_driver_model
type IDM struct {
	Delta float64 // 加速度指数，零值取默认值4
}

// NewIDM 创建默认参数的IDM模型
func NewIDM() IDM {
	return IDM{Delta: idmTheta}
}

// Acceleration 计算IDM加速度
// 算法说明：
//  1. 无前车（自由路况）：a = maxA * (1 - (v/vDesired)^delta)
//  2. 有前车：净间距s = 前车位置 - 本车位置 - 前车车长（用前车车长），
//     接近速度dv = v - vAhead，
//     期望间距s* = s0 + max(0, v*T + v*dv/(2*sqrt(maxA*b)))，
//     a = maxA * (1 - (v/vDesired)^delta - (s*/max(s, minGapFloor))^2)
func (m IDM) Acceleration(self, leader *Vehicle) float64 {
	delta := m.Delta
	if delta == 0 {
		delta = idmTheta
	}
	attr := self.attr
	v := self.snapshot.V
	free := 1 - math.Pow(v/attr.DesiredV, delta)
	if leader == nil {
		// 自由路况，向期望速度加速
		return attr.MaxA * free
	}
	s := leader.snapshot.S - self.snapshot.S - leader.attr.Length
	dv := v - leader.snapshot.V
	sStar := attr.MinGap + math.Max(
		0,
		v*attr.Headway+v*dv/(2*math.Sqrt(attr.MaxA*attr.ComfortB)),
	)
	return attr.MaxA * (free - math.Pow(sStar/math.Max(s, minGapFloor), 2))
}
