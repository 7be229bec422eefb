package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 错误分级：
//   - 致命错误（数据源不可用、空数据集、训练失败）：整个批次任务必须中止
//   - 局部错误（实体未知、缓存写入失败）：降级处理，不影响已完成的部分
type DomainError struct {
	Code    string // 错误代码（如 "EMPTY_DATASET", "NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "dataset", "als", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeSourceUnavailable = "SOURCE_UNAVAILABLE" // 数据源查询/连接失败
	ErrorCodeEmptyDataset      = "EMPTY_DATASET"      // 过滤后没有任何交互数据
	ErrorCodeTrainingFailure   = "TRAINING_FAILURE"   // 矩阵退化或数值失败
	ErrorCodeNotFound          = "NOT_FOUND"          // 用户/物品不在当前模型中
	ErrorCodePublishFailure    = "PUBLISH_FAILURE"    // 缓存批量写入失败
	ErrorCodeUnavailable       = "UNAVAILABLE"        // 服务不可用（读侧）
	ErrorCodeInvalidInput      = "INVALID_INPUT"      // 输入无效
)

// 模块名称常量
const (
	ModuleDataset  = "dataset"  // 数据加载模块
	ModuleALS      = "als"      // 模型训练模块
	ModuleEngine   = "engine"   // 推荐检索模块
	ModuleStore    = "store"    // 存储模块
	ModulePipeline = "pipeline" // 批次编排模块
	ModuleConfig   = "config"   // 配置模块
)

// hasCode 检查错误代码
func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsSourceUnavailable 检查错误是否为数据源不可用
func IsSourceUnavailable(err error) bool { return hasCode(err, ErrorCodeSourceUnavailable) }

// IsEmptyDataset 检查错误是否为空数据集
func IsEmptyDataset(err error) bool { return hasCode(err, ErrorCodeEmptyDataset) }

// IsTrainingFailure 检查错误是否为训练失败
func IsTrainingFailure(err error) bool { return hasCode(err, ErrorCodeTrainingFailure) }

// IsNotFound 检查错误是否为实体未知
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsPublishFailure 检查错误是否为缓存写入失败
func IsPublishFailure(err error) bool { return hasCode(err, ErrorCodePublishFailure) }

// IsUnavailable 检查错误是否为服务不可用
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsFatal 检查错误是否属于必须中止整个批次的类别。
// 训练阶段的错误一律中止（模型正确性要求 all-or-nothing）；
// 缓存写入失败不在其列：已计算结果可能已部分落库，下一次批次会全量覆盖。
func IsFatal(err error) bool {
	return IsSourceUnavailable(err) || IsEmptyDataset(err) || IsTrainingFailure(err)
}
