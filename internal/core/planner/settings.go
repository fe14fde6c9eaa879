// Package planner 依家庭設定挑選今天的食譜
package planner

import (
	"fmt"

	"mise-planner/internal/pkg/common"
)

// Mode 做飯模式，決定可接受的最長烹飪時間
type Mode string

const (
	ModeLazy   Mode = "lazy"
	ModeNormal Mode = "normal"
	ModeChef   Mode = "chef"
)

// 各模式的時間上限（分鐘）
const (
	lazyMaxTime   = 20
	normalMaxTime = 30
)

// Settings 家庭設定
type Settings struct {
	Lang           string `json:"lang"`
	Mode           Mode   `json:"mode"`
	DoublePortions bool   `json:"doublePortions"`
	HouseholdSize  int    `json:"householdSize"`
	MaxTimeMin     int    `json:"maxTimeMin"`
	MaxCostTier    int    `json:"maxCostTier"`
	NoRepeatDays   int    `json:"noRepeatDays"`
}

// DefaultSettings 新家庭的預設設定
func DefaultSettings() Settings {
	return Settings{
		Lang:           "es",
		Mode:           ModeLazy,
		DoublePortions: true,
		HouseholdSize:  2,
		MaxTimeMin:     25,
		MaxCostTier:    2,
		NoRepeatDays:   12,
	}
}

// Validate 檢查設定值
func (s Settings) Validate() error {
	switch s.Mode {
	case ModeLazy, ModeNormal, ModeChef:
	default:
		return common.NewValidationError(fmt.Sprintf("unknown mode %q", s.Mode))
	}
	if s.Lang != "es" && s.Lang != "ca" {
		return common.NewValidationError(fmt.Sprintf("unsupported lang %q", s.Lang))
	}
	if s.MaxCostTier < 1 || s.MaxCostTier > 3 {
		return common.NewValidationError("maxCostTier must be between 1 and 3")
	}
	if s.MaxTimeMin <= 0 {
		return common.NewValidationError("maxTimeMin must be positive")
	}
	if s.NoRepeatDays < 0 {
		return common.NewValidationError("noRepeatDays must not be negative")
	}
	return nil
}

// EffectiveMaxTime lazy 模式最多 20 分鐘，normal 最多 30 分鐘，chef 不另設上限
func EffectiveMaxTime(mode Mode, maxTime int) int {
	switch mode {
	case ModeLazy:
		return min(lazyMaxTime, maxTime)
	case ModeNormal:
		return min(normalMaxTime, maxTime)
	default:
		return maxTime
	}
}
