// 宏观速度-密度关系：非线性速度函数v(ρ)及其导数和流量，
// 用于流量-密度关系和特征速度的解析计算
package velocity

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// DefaultRhoC 默认临界密度
const DefaultRhoC = 0.175

// Function 非线性速度函数v(ρ)，分三个区域：
//  1. ρ <= rhoC：v = vmax（自由流）
//  2. rhoC < ρ < rhoMax：v = K1*(ρ^(-K2) - rhoMax^(-K2))^K3（拥堵）
//  3. ρ >= rhoMax：v = 0（完全堵死）
//
// K3在构造时解析求解，保证拥堵分支在ρ=rhoC处恰好等于vmax（曲线连续）
type Function struct {
	vmax   float64 // 最大速度
	dmin   float64 // 最小车间距
	lcar   float64 // 车长
	k1, k2 float64 // 形状参数
	k3     float64 // 连续性参数（构造时求解）
	rhoC   float64 // 临界密度
	rhoMax float64 // 最大密度（车辆首尾相接）
}

// New 创建速度函数
// 参数：vmax-最大速度，dmin-最小车间距，lcar-车长，k1/k2-形状参数，
// rhoC-临界密度（传入非正值则采用默认值DefaultRhoC）
// 算法说明：
// 1. rhoMax = lcar / (lcar + dmin)
// 2. K3 = ln(vmax/K1) / ln(rhoC^(-K2) - rhoMax^(-K2))
//
// 说明：对数参数非正（如rhoC >= rhoMax）时曲线无定义，这属于配置错误，
// 在构造时返回错误而不是留到求值阶段
func New(vmax, dmin, lcar, k1, k2, rhoC float64) (*Function, error) {
	if vmax <= 0 || k1 <= 0 {
		return nil, fmt.Errorf("velocity: vmax and K1 must be positive, got vmax=%v K1=%v", vmax, k1)
	}
	if dmin <= 0 || lcar <= 0 {
		return nil, fmt.Errorf("velocity: dmin and lcar must be positive, got dmin=%v lcar=%v", dmin, lcar)
	}
	f := &Function{
		vmax:   vmax,
		dmin:   dmin,
		lcar:   lcar,
		k1:     k1,
		k2:     k2,
		rhoC:   rhoC,
		rhoMax: lcar / (lcar + dmin),
	}
	if f.rhoC <= 0 {
		f.rhoC = DefaultRhoC
	}
	base := math.Pow(f.rhoC, -k2) - math.Pow(f.rhoMax, -k2)
	if base <= 0 {
		return nil, fmt.Errorf(
			"velocity: ill-defined curve, rho_c=%v must be below rho_max=%v with positive log argument",
			f.rhoC, f.rhoMax,
		)
	}
	logBase := math.Log(base)
	if logBase == 0 {
		return nil, fmt.Errorf("velocity: ill-defined curve, log argument %v yields zero denominator", base)
	}
	f.k3 = math.Log(vmax/k1) / logBase
	return f, nil
}

// VMax 获取最大速度
func (f *Function) VMax() float64 {
	return f.vmax
}

// RhoC 获取临界密度
func (f *Function) RhoC() float64 {
	return f.rhoC
}

// RhoMax 获取最大密度
func (f *Function) RhoMax() float64 {
	return f.rhoMax
}

// K3 获取连续性参数
func (f *Function) K3() float64 {
	return f.k3
}

// At 求某一密度下的速度
// 说明：区域边界的归属为ρ<=rhoC属于自由流、ρ>=rhoMax属于堵死，
// 堵死区域的判定优先，保证rhoMax处取0
func (f *Function) At(rho float64) float64 {
	if rho >= f.rhoMax {
		return 0
	}
	if rho <= f.rhoC {
		return f.vmax
	}
	return f.k1 * math.Pow(math.Pow(rho, -f.k2)-math.Pow(f.rhoMax, -f.k2), f.k3)
}

// Derivative 求速度对密度的导数dv/dρ
// 说明：仅在开区间(rhoC, rhoMax)内非零，用于流量曲线拐点和特征速度计算
func (f *Function) Derivative(rho float64) float64 {
	if rho <= f.rhoC || rho >= f.rhoMax {
		return 0
	}
	base := math.Pow(rho, -f.k2) - math.Pow(f.rhoMax, -f.k2)
	return f.k1 * f.k3 * math.Pow(base, f.k3-1) * (-f.k2) * math.Pow(rho, -f.k2-1)
}

// Flux 求流量f(ρ) = v(ρ)·ρ
func (f *Function) Flux(rho float64) float64 {
	return f.At(rho) * rho
}

// FluxDerivative 求流量对密度的导数f'(ρ) = v(ρ) + ρ·v'(ρ)
// 说明：即一阶流动模型的特征速度
func (f *Function) FluxDerivative(rho float64) float64 {
	return f.At(rho) + rho*f.Derivative(rho)
}

// Eval 对密度序列逐元素求速度
func (f *Function) Eval(rhos []float64) []float64 {
	return lo.Map(rhos, func(rho float64, _ int) float64 { return f.At(rho) })
}

// EvalDerivative 对密度序列逐元素求速度导数
func (f *Function) EvalDerivative(rhos []float64) []float64 {
	return lo.Map(rhos, func(rho float64, _ int) float64 { return f.Derivative(rho) })
}

// EvalFlux 对密度序列逐元素求流量
func (f *Function) EvalFlux(rhos []float64) []float64 {
	return lo.Map(rhos, func(rho float64, _ int) float64 { return f.Flux(rho) })
}

// EvalFluxDerivative 对密度序列逐元素求特征速度
func (f *Function) EvalFluxDerivative(rhos []float64) []float64 {
	return lo.Map(rhos, func(rho float64, _ int) float64 { return f.FluxDerivative(rho) })
}
