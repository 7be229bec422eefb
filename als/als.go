// Package als 实现隐式反馈的交替最小二乘（ALS）矩阵分解。
//
// 核心思想：
//   - 浏览行为是正向隐式信号，没有显式评分
//   - 每个观测到的分数 r 转为置信度 c = 1 + α·r
//   - 交替固定一侧隐向量，对另一侧逐行求解带正则的加权最小二乘
//   - 预测分数 = 用户隐向量 · 物品隐向量
//
// 工程特征：
//   - 离线训练、在线查表，训练产物在进程退出时丢弃（不做模型持久化）
//   - 每行求解为 F×F 规模的正规方程，用 Cholesky 分解闭式求解
package als

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/UlicaLi/recommend-system/core"
	"github.com/UlicaLi/recommend-system/dataset"
)

// Model 是训练产出的隐因子模型：每个用户/物品下标各占一行，维度为 Rank。
// 训练完成后只读消费。
type Model struct {
	UserFactors [][]float64
	ItemFactors [][]float64
	Rank        int
}

// Predict 返回用户 u 与物品 i 的亲和度（隐向量点积）。
func (m *Model) Predict(u, i int) float64 {
	return dot(m.UserFactors[u], m.ItemFactors[i])
}

// ItemSimilarity 返回物品 i 与物品 j 隐向量的余弦相似度。
// 相关推荐统一使用余弦而非原始点积，避免高模长物品在任何查询下都排前。
func (m *Model) ItemSimilarity(i, j int) float64 {
	return cosine(m.ItemFactors[i], m.ItemFactors[j])
}

// Trainer 按配置超参数拟合隐因子模型。
type Trainer struct {
	Factors        int     // 隐向量维度 F
	Regularization float64 // 正则系数 λ
	Iterations     int     // 交替轮数 T
	Alpha          float64 // 置信度缩放系数 α
	Seed           int64   // 初始化种子，保证重复运行可复现
}

// Fit 训练模型。矩阵没有任何行或列时训练无意义，返回 TRAINING_FAILURE，
// 调用方必须中止整个批次。
func (t *Trainer) Fit(m *dataset.Matrix) (*Model, error) {
	if m == nil || m.NumRows == 0 || m.NumCols == 0 {
		return nil, core.NewDomainError(core.ModuleALS, core.ErrorCodeTrainingFailure,
			"als: degenerate matrix, nothing to train on")
	}

	f := t.Factors
	rng := rand.New(rand.NewSource(t.Seed))
	model := &Model{
		UserFactors: randomFactors(rng, m.NumRows, f),
		ItemFactors: randomFactors(rng, m.NumCols, f),
		Rank:        f,
	}

	transposed := m.Transpose()
	for iter := 0; iter < t.Iterations; iter++ {
		// 固定物品侧解用户侧，再固定用户侧解物品侧
		if err := t.solveSide(m, model.ItemFactors, model.UserFactors); err != nil {
			return nil, err
		}
		if err := t.solveSide(transposed, model.UserFactors, model.ItemFactors); err != nil {
			return nil, err
		}
		log.Debug().Int("iteration", iter+1).Msg("ALS 迭代完成")
	}
	return model, nil
}

// solveSide 固定 fixed 侧隐向量，为 m 的每一行求解 target 侧隐向量。
//
// 每行最小化 Σ_i c_i·(p_i − x·y_i)² + λ·‖x‖²，其中观测项 p=1、c=1+α·r，
// 未观测项 p=0、c=1。闭式解为：
//
//	x = (YᵀY + Yᵀ(C−I)Y + λI)⁻¹ Yᵀ C p
//
// YᵀY 全行共享，先预计算；每行只按稀疏非零项叠加修正，复杂度与非零数成正比。
func (t *Trainer) solveSide(m *dataset.Matrix, fixed, target [][]float64) error {
	f := t.Factors
	yty := gram(fixed, f)

	a := make([][]float64, f)
	for i := range a {
		a[i] = make([]float64, f)
	}
	b := make([]float64, f)

	for row := 0; row < m.NumRows; row++ {
		cols, vals := m.Row(row)
		// 零交互的行保持初始向量（退化情形，可接受）
		if len(cols) == 0 {
			continue
		}

		// A = YᵀY + λI
		for i := 0; i < f; i++ {
			copy(a[i], yty[i])
			a[i][i] += t.Regularization
			b[i] = 0
		}

		// 稀疏修正：A += (c−1)·y yᵀ，b += c·y
		for k, col := range cols {
			y := fixed[col]
			confidence := 1 + t.Alpha*vals[k]
			extra := confidence - 1
			for i := 0; i < f; i++ {
				yi := y[i]
				b[i] += confidence * yi
				ai := a[i]
				for j := 0; j < f; j++ {
					ai[j] += extra * yi * y[j]
				}
			}
		}

		x, err := solveCholesky(a, b)
		if err != nil {
			return core.NewDomainError(core.ModuleALS, core.ErrorCodeTrainingFailure,
				fmt.Sprintf("als: solve row %d: %v", row, err))
		}
		copy(target[row], x)
	}
	return nil
}

// randomFactors 生成 n×f 的初始隐向量，幅度按 1/√f 缩放。
func randomFactors(rng *rand.Rand, n, f int) [][]float64 {
	out := make([][]float64, n)
	scale := 0.1 / math.Sqrt(float64(f))
	for i := range out {
		row := make([]float64, f)
		for j := range row {
			row[j] = rng.NormFloat64() * scale
		}
		out[i] = row
	}
	return out
}

// gram 计算 YᵀY（f×f 对称矩阵）。
func gram(y [][]float64, f int) [][]float64 {
	out := make([][]float64, f)
	for i := range out {
		out[i] = make([]float64, f)
	}
	for _, row := range y {
		for i := 0; i < f; i++ {
			ri := row[i]
			if ri == 0 {
				continue
			}
			oi := out[i]
			for j := 0; j < f; j++ {
				oi[j] += ri * row[j]
			}
		}
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func cosine(a, b []float64) float64 {
	var dotSum, normA, normB float64
	for i := range a {
		dotSum += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotSum / (math.Sqrt(normA) * math.Sqrt(normB))
}
