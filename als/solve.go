package als

import (
	"errors"
	"math"
)

// errNotPositiveDefinite 表示正规方程矩阵不正定（λ>0 时理论上不会发生，
// 出现即意味着数值失败）。
var errNotPositiveDefinite = errors.New("als: normal equation matrix is not positive definite")

// solveCholesky 解对称正定线性方程组 A·x = b。
// 就地对 a 做 Cholesky 分解（A = L·Lᵀ），随后前代回代；a 和 b 会被破坏。
func solveCholesky(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)

	// 分解：只使用并写入下三角
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= a[i][k] * a[j][k]
			}
			if i == j {
				if sum <= 0 {
					return nil, errNotPositiveDefinite
				}
				a[i][i] = math.Sqrt(sum)
			} else {
				a[i][j] = sum / a[j][j]
			}
		}
	}

	// 前代：L·y = b
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= a[i][k] * x[k]
		}
		x[i] = sum / a[i][i]
	}

	// 回代：Lᵀ·x = y
	for i := n - 1; i >= 0; i-- {
		sum := x[i]
		for k := i + 1; k < n; k++ {
			sum -= a[k][i] * x[k]
		}
		x[i] = sum / a[i][i]
	}
	return x, nil
}
