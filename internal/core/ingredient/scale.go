package ingredient

import (
	"math"
	"strconv"
)

// DefaultServings 食譜未標示份量時的基準人數
const DefaultServings = 2

// Round1 四捨五入到一位小數
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Scale 將 base 人份的數量線性換算為 target 人份
func Scale(quantity, base, target float64) float64 {
	if base <= 0 {
		base = DefaultServings
	}
	return Round1(quantity * target / base)
}

// Format 格式化數量，整數不帶小數點，有單位時以單一空格接上
func Format(quantity float64, unit string) string {
	q := Round1(quantity)
	var display string
	if q == math.Trunc(q) {
		display = strconv.FormatFloat(q, 'f', 0, 64)
	} else {
		display = strconv.FormatFloat(q, 'f', 1, 64)
	}
	if unit == "" {
		return display
	}
	return display + " " + unit
}

// Scaled 2 人份與 4 人份的數量
type Scaled struct {
	Qty2     float64
	Qty4     float64
	Unit     string
	Qty2Text string
	Qty4Text string
}

// ScaleServings 以 base 人份為基準計算 2/4 人份；沒有數量時返回 false
func ScaleServings(p Parsed, base int) (Scaled, bool) {
	if p.Quantity == nil {
		return Scaled{}, false
	}
	q := *p.Quantity
	b := float64(base)
	qty2 := Scale(q, b, 2)
	qty4 := Scale(q, b, 4)
	return Scaled{
		Qty2:     qty2,
		Qty4:     qty4,
		Unit:     p.Unit,
		Qty2Text: Format(qty2, p.Unit),
		Qty4Text: Format(qty4, p.Unit),
	}, true
}
