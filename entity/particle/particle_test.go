package particle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewValidation(t *testing.T) {
	_, err := New(1000, 100, 0.01, 5, 1.0/3600)
	assert.Nil(t, err)
	_, err = New(0, 100, 0.01, 5, 1.0/3600)
	assert.NotNil(t, err)
	_, err = New(1000, -1, 0.01, 5, 1.0/3600)
	assert.NotNil(t, err)
	_, err = New(1000, 100, 0, 5, 1.0/3600)
	assert.NotNil(t, err)
	_, err = New(1000, 100, 0.01, 5, 0)
	assert.NotNil(t, err)
}

func TestOrdering(t *testing.T) {
	m, err := New(1000, 100, 0.01, 5, 1.0/3600)
	assert.Nil(t, err)
	// 乱序插入
	m.AddCar(50, 0)
	m.AddCar(200, 0)
	m.AddCar(10, 0)
	assert.Equal(t, 3, m.Count())
	// 查询视图按位置降序
	assert.Equal(t, []float64{200, 50, 10}, m.Positions())
}

func TestDesiredVelocity(t *testing.T) {
	dt := 1.0 / 3600
	m, err := New(1000, 100, 0.01, 5, dt)
	assert.Nil(t, err)
	follower := m.AddCar(0, 0)
	leader := m.AddCar(10, 20)
	// 头车无约束
	assert.Equal(t, 100.0, m.DesiredVelocity(leader))
	// 间距充裕，裁剪到vmax
	assert.Equal(t, 100.0, m.DesiredVelocity(follower))
}

func TestDesiredVelocityClamp(t *testing.T) {
	dt := 1.0
	m, err := New(1000, 30, 2, 5, dt)
	assert.Nil(t, err)
	// 前车静止且间距小于dmin，期望速度裁剪到0
	follower := m.AddCar(0, 10)
	m.AddCar(1, 0)
	assert.Equal(t, 0.0, m.DesiredVelocity(follower))
	// 间距恰好为dmin时，期望速度等于前车速度（保持间距不变）
	m2, err := New(1000, 30, 2, 5, dt)
	assert.Nil(t, err)
	f2 := m2.AddCar(0, 0)
	m2.AddCar(2, 8)
	assert.InDelta(t, 8.0, m2.DesiredVelocity(f2), 1e-12)
}

func TestStepSnapshotSemantics(t *testing.T) {
	// 三车队列：期望速度必须用本步开始时的前车速度，
	// 不能用前车本步更新后的速度
	dt := 1.0
	m, err := New(1e6, 30, 2, 5, dt)
	assert.Nil(t, err)
	c0 := m.AddCar(0, 0)
	c1 := m.AddCar(10, 0)
	c2 := m.AddCar(100, 0)
	m.Step()
	// 头车直接到vmax
	assert.Equal(t, 30.0, c2.v)
	// c1看到的c2速度是步前的0：(100-10-2+0)/1=88 → 裁剪到30
	assert.Equal(t, 30.0, c1.v)
	// c0看到的c1速度是步前的0：(10-0-2+0)/1=8
	assert.Equal(t, 8.0, c0.v)
	// 位置显式欧拉积分
	assert.Equal(t, 8.0, c0.x)
	assert.Equal(t, 40.0, c1.x)
	assert.Equal(t, 130.0, c2.x)
	assert.InDelta(t, dt, m.Time(), 1e-12)
}

func TestNoOvertaking(t *testing.T) {
	dt := 0.5
	m, err := New(1e6, 30, 2, 5, dt)
	assert.Nil(t, err)
	m.AddCar(0, 30)
	m.AddCar(5, 0)
	m.AddCar(8, 0)
	m.AddCar(50, 10)
	for i := 0; i < 100; i++ {
		m.Step()
		xs := m.Positions()
		for j := 1; j < len(xs); j++ {
			assert.True(t, xs[j-1] >= xs[j], "order violated at step %d: %v", i, xs)
		}
	}
}

func TestRemoval(t *testing.T) {
	dt := 1.0
	m, err := New(100, 30, 2, 5, dt)
	assert.Nil(t, err)
	m.AddCar(90, 0)
	m.AddCar(0, 0)
	// 头车一步走30：90+30=120>100，驶出
	removed := m.Step()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.Count())
	// 原跟随者成为新头车
	assert.Equal(t, 30.0, m.Velocities()[0])
	m.Step()
	m.Step()
	m.Step()
	assert.Equal(t, 0, m.Count())
}

func TestDensityAt(t *testing.T) {
	m, err := New(1000, 100, 0.01, 5, 1.0/3600)
	assert.Nil(t, err)
	m.AddCar(45, 0)
	m.AddCar(50, 0)
	m.AddCar(55, 0)
	m.AddCar(500, 0)
	assert.InDelta(t, 3*5.0/100, m.DensityAt(50, 100), 1e-12)
	assert.InDelta(t, 0.0, m.DensityAt(900, 100), 1e-12)
}
