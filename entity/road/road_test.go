package road_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/trafficflow/entity/road"
	"github.com/tsinghua-fib-lab/trafficflow/entity/vehicle"
)

func TestNewValidation(t *testing.T) {
	_, err := road.New(-1, 2, 0.1)
	assert.Error(t, err)
	_, err = road.New(1000, 0, 0.1)
	assert.Error(t, err)
	_, err = road.New(1000, 2, 0)
	assert.Error(t, err)
	r, err := road.New(1000, 2, 0.1)
	assert.NoError(t, err)
	assert.Equal(t, 2, r.LaneCount())
}

func TestAddValidation(t *testing.T) {
	r, err := road.New(1000, 2, 0.1)
	assert.NoError(t, err)
	assert.NoError(t, r.Add(1, 0, 10, 0, vehicle.Attr{}))

	// 重复ID
	assert.Error(t, r.Add(1, 100, 10, 0, vehicle.Attr{}))
	// 车道越界
	assert.Error(t, r.Add(2, 0, 10, 2, vehicle.Attr{}))
	// 位置越界
	assert.Error(t, r.Add(3, 1000, 10, 0, vehicle.Attr{}))
	// 退化参数在加车时报错
	assert.Error(t, r.Add(4, 0, 10, 0, vehicle.Attr{DesiredV: -1}))

	assert.Equal(t, 1, r.VehicleCount())
}

func TestSingleVehicleFreeRoad(t *testing.T) {
	r, err := road.New(1000, 1, 1)
	assert.NoError(t, err)
	assert.NoError(t, r.Add(1, 0, 0, 0, vehicle.Attr{DesiredV: 30, MaxA: 1}))

	// 无前车，初始加速度maxA=1；一步弹道积分后v=1.0, s=0.5
	leader, err := r.Leader(1)
	assert.NoError(t, err)
	assert.Nil(t, leader)

	assert.NoError(t, r.Step())
	v := r.Get(1)
	assert.InDelta(t, 1.0, v.V(), 1e-12)
	assert.InDelta(t, 0.5, v.S(), 1e-12)
	assert.InDelta(t, 1.0, r.Time(), 1e-12)
}

func TestLeaderResolution(t *testing.T) {
	r, err := road.New(1000, 2, 0.1)
	assert.NoError(t, err)
	assert.NoError(t, r.Add(1, 100, 10, 0, vehicle.Attr{}))
	assert.NoError(t, r.Add(2, 300, 10, 0, vehicle.Attr{}))
	assert.NoError(t, r.Add(3, 200, 10, 1, vehicle.Attr{}))
	assert.NoError(t, r.Add(4, 900, 10, 0, vehicle.Attr{}))

	// 同车道最近前车
	leader, err := r.Leader(1)
	assert.NoError(t, err)
	assert.Equal(t, int32(2), leader.ID())
	// 不同车道互不可见
	leader, err = r.Leader(3)
	assert.NoError(t, err)
	assert.Nil(t, leader)
	// 前车搜索不跨越环路接缝：头车无前车
	leader, err = r.Leader(4)
	assert.NoError(t, err)
	assert.Nil(t, leader)

	// 查询不存在的车辆报错
	_, err = r.Leader(99)
	assert.Error(t, err)
}

func TestResolversAgree(t *testing.T) {
	r, err := road.New(500, 2, 0.1)
	assert.NoError(t, err)
	positions := []float64{10, 480, 250, 130, 372, 55, 301}
	for i, s := range positions {
		assert.NoError(t, r.Add(int32(i), s, 5, i%2, vehicle.Attr{}))
	}
	idx := road.IndexResolver{}
	scan := road.ScanResolver{}
	for _, v := range r.Vehicles() {
		assert.Equal(t, scan.Leader(r, v), idx.Leader(r, v), "vehicle %d", v.ID())
	}
	// 移动后重排，仍然一致
	for i := 0; i < 20; i++ {
		assert.NoError(t, r.Step())
	}
	for _, v := range r.Vehicles() {
		assert.Equal(t, scan.Leader(r, v), idx.Leader(r, v), "vehicle %d", v.ID())
	}
}

func TestSpeedNonNegativity(t *testing.T) {
	r, err := road.New(1000, 1, 0.5)
	assert.NoError(t, err)
	// 高速逼近静止前车，触发强减速
	assert.NoError(t, r.Add(1, 0, 30, 0, vehicle.Attr{}))
	assert.NoError(t, r.Add(2, 40, 0, 0, vehicle.Attr{}))
	for i := 0; i < 100; i++ {
		assert.NoError(t, r.Step())
		for _, v := range r.Vehicles() {
			assert.GreaterOrEqual(t, v.V(), 0.0, "step %d vehicle %d", i, v.ID())
		}
	}
}

func TestRingConservation(t *testing.T) {
	r, err := road.New(500, 2, 0.5)
	assert.NoError(t, err)
	n := 20
	for i := 0; i < n; i++ {
		assert.NoError(t, r.Add(int32(i), float64(i)*25, 20, i%2, vehicle.Attr{IsTruck: i%5 == 0}))
	}
	for i := 0; i < 200; i++ {
		assert.NoError(t, r.Step())
		// 环路边界条件下车辆数不变
		assert.Equal(t, n, r.VehicleCount())
		for _, v := range r.Vehicles() {
			assert.GreaterOrEqual(t, v.S(), 0.0)
			assert.LessOrEqual(t, v.S(), 500.0)
		}
	}
}

func TestStepAbortAtomic(t *testing.T) {
	r, err := road.New(1000, 1, 0.1)
	assert.NoError(t, err)
	// 巨大的初始速度使自由流项溢出为-Inf
	assert.NoError(t, r.Add(1, 100, 1e200, 0, vehicle.Attr{}))
	err = r.Step()
	assert.Error(t, err)
	// 本步被整体放弃：状态与时钟均未推进
	v := r.Get(1)
	assert.Equal(t, 100.0, v.S())
	assert.Equal(t, 1e200, v.V())
	assert.Equal(t, 0.0, r.Time())
}

func TestDensityAt(t *testing.T) {
	r, err := road.New(1000, 1, 0.1)
	assert.NoError(t, err)
	// 三辆车长5的车聚在x=500附近
	assert.NoError(t, r.Add(1, 495, 0, 0, vehicle.Attr{}))
	assert.NoError(t, r.Add(2, 500, 0, 0, vehicle.Attr{}))
	assert.NoError(t, r.Add(3, 505, 0, 0, vehicle.Attr{}))
	assert.InDelta(t, 3*5.0/100, r.DensityAt(500, 100), 1e-12)
	// 空窗口密度为0
	assert.Equal(t, 0.0, r.DensityAt(0, 100))
}
