package task

import (
	"flag"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/trafficflow/clock"
	"github.com/tsinghua-fib-lab/trafficflow/entity/particle"
	"github.com/tsinghua-fib-lab/trafficflow/entity/road"
	"github.com/tsinghua-fib-lab/trafficflow/entity/vehicle"
	"github.com/tsinghua-fib-lab/trafficflow/utils/config"
	"github.com/tsinghua-fib-lab/trafficflow/utils/input"
	"github.com/tsinghua-fib-lab/trafficflow/utils/randengine"
	"github.com/tsinghua-fib-lab/trafficflow/velocity"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")

	log = logrus.WithField("module", "task")
)

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态，替代原来的全局变量
// 说明：根据配置的跟车模型，road和particleModel恰有一个非空
type Context struct {

	// 任务名
	job string
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock
	// 缓存文件夹
	cacheDir string

	// IDM环路引擎（model=idm时非空）
	road *road.Road
	// 粒子走廊引擎（model=particle时非空）
	particleModel *particle.Model
	// 宏观速度-密度函数（可选的分析配置）
	velocityFn *velocity.Function

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig

	// 用于初始化的输入
	initRes *input.Scenario
}

// NewContext 创建新的仿真任务上下文
// 功能：初始化仿真系统的所有组件和配置
// 参数：
//   - job: 任务名称
//   - cacheDir: 缓存目录
//   - c: 配置对象
//
// 返回：初始化完成的Context实例
// 算法说明：
// 1. 校验配置并构建运行时配置
// 2. 初始化时钟
// 3. 加载初始车流数据（文件、MongoDB或缓存）
// 4. 构建宏观速度函数（如果配置了velocity）
// 5. 根据模型配置创建环路引擎或粒子走廊引擎
// 6. 用输入数据或随机生成的车流初始化引擎
func NewContext(
	job string,
	cacheDir string,
	c config.Config,
) (*Context, error) {
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		return nil, err
	}
	ctx := &Context{
		job:           job,
		cacheDir:      cacheDir,
		runtimeConfig: rc,
	}
	ctx.clock = clock.New(rc.C.Step)

	// 下载所有模拟器启动所需的数据
	ctx.initRes = input.Init(rc.All, ctx.cacheDir)

	if v := rc.All.Velocity; v != nil {
		rhoC := 0.0
		if v.RhoC != nil {
			rhoC = *v.RhoC
		}
		vf, err := velocity.New(v.VMax, v.DMin, v.LCar, v.K1, v.K2, rhoC)
		if err != nil {
			return nil, err
		}
		ctx.velocityFn = vf
		log.Infof(
			"velocity function: vmax=%v rhoC=%v rhoMax=%v k3=%v flux(rhoC)=%v",
			vf.VMax(), vf.RhoC(), vf.RhoMax(), vf.K3(), vf.Flux(vf.RhoC()),
		)
	}

	// 新建模拟引擎
	r := rc.All.Road
	dt := rc.C.Step.Interval
	switch r.Model {
	case config.ModelIDM:
		ctx.road, err = road.New(r.Length, r.Lanes, dt)
		if err != nil {
			return nil, err
		}
	case config.ModelParticle:
		v := rc.All.Velocity
		if v == nil {
			return nil, fmt.Errorf("task: particle model requires velocity config (vmax/dmin/lcar)")
		}
		ctx.particleModel, err = particle.New(r.Length, v.VMax, v.DMin, v.LCar, dt)
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.populate(); err != nil {
		return nil, err
	}
	return ctx, nil
}

// populate 初始化引擎中的车流
// 算法说明：
//  1. 有初始车流输入时逐辆加入引擎
//  2. 否则按generation配置随机生成：位置均匀铺开、车道轮转分配、
//     速度均匀抽样、按比例判定卡车
//  3. 两者都没有则引擎为空，模拟照常运行
func (ctx *Context) populate() error {
	if s := ctx.initRes; s != nil {
		for _, v := range s.Vehicles {
			if err := ctx.addVehicle(v.ID, v.Position, v.Speed, v.Lane, v.IsTruck); err != nil {
				return err
			}
		}
		return nil
	}
	g := ctx.runtimeConfig.All.Generation
	if g == nil {
		log.Warnf("no scenario input and no generation config, starting empty")
		return nil
	}
	if g.Count <= 0 {
		return fmt.Errorf("task: generation count must be positive, got %v", g.Count)
	}
	engine := randengine.New(g.Seed)
	r := ctx.runtimeConfig.All.Road
	spacing := r.Length / float64(g.Count)
	for i := 0; i < g.Count; i++ {
		speed := engine.Uniform(g.VMin, g.VMax)
		isTruck := engine.PTrue(g.TruckRatio)
		if err := ctx.addVehicle(int32(i), float64(i)*spacing, speed, i%r.Lanes, isTruck); err != nil {
			return err
		}
	}
	log.Infof("generated %d vehicles (seed=%d)", g.Count, g.Seed)
	return nil
}

// addVehicle 向当前引擎加入一辆车
func (ctx *Context) addVehicle(id int32, position, speed float64, lane int, isTruck bool) error {
	if ctx.road != nil {
		return ctx.road.Add(id, position, speed, lane, vehicle.Attr{IsTruck: isTruck})
	}
	ctx.particleModel.AddCar(position, speed)
	return nil
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) Road() *road.Road {
	return ctx.road
}

func (ctx *Context) ParticleModel() *particle.Model {
	return ctx.particleModel
}

func (ctx *Context) VelocityFn() *velocity.Function {
	return ctx.velocityFn
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// count 获取引擎中的当前车辆数
func (ctx *Context) count() int {
	if ctx.road != nil {
		return ctx.road.VehicleCount()
	}
	return ctx.particleModel.Count()
}

// step 推进引擎一个时间步
func (ctx *Context) step() error {
	if ctx.road != nil {
		return ctx.road.Step()
	}
	ctx.particleModel.Step()
	return nil
}

// Run 运行
// 功能：主模拟循环，推进引擎直到到达结束步或收到关闭指令
// 算法说明：
// 1. 心跳日志：定期输出当前步数和车辆数
// 2. 推进引擎一个时间步，失败则中止
// 3. 推进时钟
func (ctx *Context) Run() error {
	ctx.clock.Init()
	log.Infof("job %v: %d vehicles, steps [%d, %d)",
		ctx.job, ctx.count(), ctx.clock.START_STEP, ctx.clock.END_STEP)
	for ctx.clock.InternalStep < ctx.clock.END_STEP {
		if ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
			log.Infof("STEP: %v, %d vehicles", ctx.clock, ctx.count())
		}
		if err := ctx.step(); err != nil {
			log.Errorf("%v: step failed: %v", ctx.clock, err)
			return err
		}
		ctx.clock.Tick()
		if ctx.closed.Load() {
			log.Infof("%v: closed, stopping", ctx.clock)
			break
		}
	}
	log.Infof("engine complete")
	return nil
}

// Close 请求停止模拟循环
func (ctx *Context) Close() {
	ctx.closed.Store(true)
}
