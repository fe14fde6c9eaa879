package planner

import (
	"math/rand/v2"
	"sync"
	"time"

	"mise-planner/internal/core/recipe"
)

// Picker 食譜挑選器
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker 創建挑選器；rng 為 nil 時使用時間作為種子
func NewPicker(rng *rand.Rand) *Picker {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Picker{rng: rng}
}

// Eligible 符合時間與成本門檻的啟用食譜
func Eligible(recipes []recipe.Recipe, s Settings) []recipe.Recipe {
	maxTime := EffectiveMaxTime(s.Mode, s.MaxTimeMin)
	var out []recipe.Recipe
	for _, r := range recipes {
		if r.Active && r.TimeMin <= maxTime && r.CostTier <= s.MaxCostTier {
			out = append(out, r)
		}
	}
	return out
}

// recentlyCooked now 之前 days 天內煮過的食譜 id
func recentlyCooked(history []recipe.CookHistoryEntry, days int, now time.Time) map[string]bool {
	cutoff := now.AddDate(0, 0, -days)
	recent := make(map[string]bool)
	for _, h := range history {
		if !h.CookedAt.Before(cutoff) {
			recent[h.RecipeID] = true
		}
	}
	return recent
}

// Pick 從符合條件且近期未煮過的食譜中隨機挑一道。
// 全部都近期煮過時退回完整候選池；沒有任何符合條件的食譜時返回 nil。
func (p *Picker) Pick(recipes []recipe.Recipe, history []recipe.CookHistoryEntry, s Settings, now time.Time) *recipe.Recipe {
	eligible := Eligible(recipes, s)
	if len(eligible) == 0 {
		return nil
	}

	recent := recentlyCooked(history, s.NoRepeatDays, now)
	pool := make([]recipe.Recipe, 0, len(eligible))
	for _, r := range eligible {
		if !recent[r.ID] {
			pool = append(pool, r)
		}
	}
	if len(pool) == 0 {
		pool = eligible
	}

	p.mu.Lock()
	i := p.rng.IntN(len(pool))
	p.mu.Unlock()

	picked := pool[i]
	return &picked
}
