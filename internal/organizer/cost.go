package organizer

import (
	"sort"
	"strings"
)

// Usage is the token accounting of one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Price is USD per 1K tokens.
type Price struct {
	Input  float64
	Output float64
}

// Prices lists the models cost estimates know about.
var Prices = map[string]Price{
	"gpt-4o":        {Input: 0.01, Output: 0.03},
	"gpt-4o-mini":   {Input: 0.005, Output: 0.015},
	"gpt-3.5-turbo": {Input: 0.001, Output: 0.002},
}

const fallbackPriceModel = "gpt-3.5-turbo"

// PriceFor matches dated variants ("gpt-4o-2024-08-06") to their family by
// longest prefix. Unknown models get gpt-3.5-turbo pricing and ok=false.
func PriceFor(model string) (Price, bool) {
	if p, ok := Prices[model]; ok {
		return p, true
	}
	best := ""
	for name := range Prices {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return Prices[best], true
	}
	return Prices[fallbackPriceModel], false
}

// EstimateCost returns the USD cost of usage on model.
func EstimateCost(model string, u Usage) float64 {
	p, _ := PriceFor(model)
	return float64(u.PromptTokens)/1000*p.Input + float64(u.CompletionTokens)/1000*p.Output
}

// PricedModels returns the known model names in a stable order.
func PricedModels() []string {
	names := make([]string, 0, len(Prices))
	for name := range Prices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
