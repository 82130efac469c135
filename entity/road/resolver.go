package road

import (
	"github.com/tsinghua-fib-lab/trafficflow/entity/vehicle"
)

// LeaderResolver 前车解析器接口
// 功能：在车辆集合中找到本车同车道正前方最近的车辆
// 说明：前车搜索不跨越环路接缝——位置回绕与前车可见性在接缝处不对称，
// 这是刻意保留的模型性质；接缝附近的头车按自由路况处理
type LeaderResolver interface {
	// Leader 返回同车道中位置严格大于本车的最近车辆，无前车返回nil
	// 说明：读取的是本步开始时的snapshot位置
	Leader(r *Road, v *vehicle.Vehicle) *vehicle.Vehicle
}

// IndexResolver 基于车道有序链表的前车解析器（默认）
// 说明：前车即链表后继节点，单次查询O(1)，
// 排序代价摊到每步的重排上
type IndexResolver struct{}

// Leader 取链表后继节点中第一个位置严格更大的车辆
func (IndexResolver) Leader(r *Road, v *vehicle.Vehicle) *vehicle.Vehicle {
	for n := v.Node().Next(); n != nil; n = n.Next() {
		if n.S > v.Node().S {
			return n.Value
		}
	}
	return nil
}

// ScanResolver 线性扫描前车解析器
// 说明：按车道过滤后取位置严格大于本车的最小位置车辆，
// 作为链表索引的对照实现，适合小规模车辆集合
type ScanResolver struct{}

// Leader 线性扫描同车道车辆取最近前车
func (ScanResolver) Leader(r *Road, v *vehicle.Vehicle) *vehicle.Vehicle {
	var best *vehicle.Vehicle
	for _, other := range r.vehicles.Data() {
		if other == v || other.LaneIndex() != v.LaneIndex() {
			continue
		}
		if other.SnapshotS() <= v.SnapshotS() {
			continue
		}
		if best == nil || other.SnapshotS() < best.SnapshotS() {
			best = other
		}
	}
	return best
}
