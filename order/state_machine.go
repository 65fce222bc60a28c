package order

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid order state transition")
	ErrInvalidFill       = errors.New("invalid fill")
)

// StateTransition 状态转换
type StateTransition struct {
	From Status
	To   Status
}

// 合法转换表。终态（FILLED, CANCELLED, REJECTED）没有出边。
var legalTransitions = map[StateTransition]bool{
	{StatusPending, StatusSubmitted}: true,
	{StatusPending, StatusRejected}:  true,

	{StatusSubmitted, StatusPartiallyFilled}: true,
	{StatusSubmitted, StatusFilled}:          true,
	{StatusSubmitted, StatusCancelled}:       true,

	{StatusPartiallyFilled, StatusPartiallyFilled}: true, // 多次部分成交
	{StatusPartiallyFilled, StatusFilled}:          true,
	{StatusPartiallyFilled, StatusCancelled}:       true,
}

// ValidateTransition 验证状态转换是否合法
func ValidateTransition(from, to Status) error {
	if legalTransitions[StateTransition{From: from, To: to}] {
		return nil
	}
	if IsFinalState(from) {
		return fmt.Errorf("%w: %s -> %s, %s is final", ErrInvalidTransition, from, to, from)
	}
	return fmt.Errorf("%w: %s -> %s, allowed %v", ErrInvalidTransition, from, to, AllowedTransitions(from))
}

// AllowedTransitions 返回当前状态所有合法的目标状态
func AllowedTransitions(current Status) []Status {
	var allowed []Status
	for _, to := range []Status{StatusSubmitted, StatusPartiallyFilled, StatusFilled, StatusCancelled, StatusRejected} {
		if legalTransitions[StateTransition{From: current, To: to}] {
			allowed = append(allowed, to)
		}
	}
	return allowed
}

// IsFinalState 判断是否是终态
func IsFinalState(status Status) bool {
	switch status {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}
