package notify

import (
	"errors"
	"sync"
	"time"
)

// State 表示熔断器状态
type State int

const (
	StateClosed   State = iota // 关闭：正常状态，允许请求通过
	StateOpen                  // 打开：熔断状态，直接拒绝请求
	StateHalfOpen              // 半开：尝试恢复，允许少量请求通过
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	// 失败阈值：连续失败多少次后打开熔断器
	FailureThreshold int
	// 成功阈值：半开状态下成功多少次后关闭熔断器
	SuccessThreshold int
	// 打开状态持续多久后进入半开状态
	Timeout time.Duration
	// 半开状态下的最大并发请求数
	HalfOpenMaxRequests int
}

// DefaultBreakerConfig 返回默认配置
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 3,
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker 保护通知派发，通知服务持续失败时快速拒绝
type CircuitBreaker struct {
	config BreakerConfig
	now    func() time.Time

	state         State
	failureCount  int
	successCount  int
	halfOpenCount int
	lastStateTime time.Time

	mu sync.Mutex
}

func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	return newCircuitBreaker(config, time.Now)
}

func newCircuitBreaker(config BreakerConfig, now func() time.Time) *CircuitBreaker {
	return &CircuitBreaker{
		config:        config,
		now:           now,
		state:         StateClosed,
		lastStateTime: now(),
	}
}

// Execute 执行函数，带熔断保护
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	cb.checkStateTransition()

	switch cb.state {
	case StateOpen:
		cb.mu.Unlock()
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.halfOpenCount >= cb.config.HalfOpenMaxRequests {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.halfOpenCount++
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
	return err
}

func (cb *CircuitBreaker) checkStateTransition() {
	now := cb.now()
	if cb.state == StateOpen && now.Sub(cb.lastStateTime) >= cb.config.Timeout {
		cb.state = StateHalfOpen
		cb.halfOpenCount = 0
		cb.successCount = 0
		cb.lastStateTime = now
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.failureCount++
	switch cb.state {
	case StateHalfOpen:
		// 半开状态下失败，立即打开
		cb.open()
	case StateClosed:
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.open()
		}
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.failureCount = 0
	if cb.state != StateHalfOpen {
		return
	}
	cb.successCount++
	cb.halfOpenCount--
	if cb.successCount >= cb.config.SuccessThreshold {
		cb.state = StateClosed
		cb.lastStateTime = cb.now()
	}
}

func (cb *CircuitBreaker) open() {
	cb.state = StateOpen
	cb.halfOpenCount = 0
	cb.lastStateTime = cb.now()
}

// State 当前状态（会先应用超时转换）
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.checkStateTransition()
	return cb.state
}

// Reset 重置熔断器
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failureCount = 0
	cb.successCount = 0
	cb.halfOpenCount = 0
	cb.lastStateTime = cb.now()
}
