// Package tips maps appliances to energy saving advice.
package tips

import "strings"

// Fallback is returned for appliances without a specific tip
const Fallback = "Check this appliance's settings and switch it off when it is not in use."

var defaultTips = map[string]string{
	"ac":              "Set the thermostat a couple of degrees higher and clean the filters regularly.",
	"air conditioner": "Set the thermostat a couple of degrees higher and clean the filters regularly.",
	"heater":          "Lower the target temperature slightly and heat only occupied rooms.",
	"fridge":          "Keep the fridge at 3-5°C, check the door seals and avoid overfilling it.",
	"washing machine": "Wash full loads at lower temperatures.",
	"dryer":           "Air-dry when possible and clean the lint filter after every load.",
	"dishwasher":      "Run it only when full and use the eco program.",
	"oven":            "Batch your cooking and avoid preheating longer than necessary.",
	"microwave":       "Prefer the microwave over the oven for small portions.",
	"lights":          "Switch to LED bulbs and turn lights off in empty rooms.",
	"tv":              "Enable power saving mode and avoid leaving it on standby.",
	"computer":        "Use sleep mode and unplug chargers that are not in use.",
	"water heater":    "Lower the water heater temperature to around 50°C.",
}

// Book looks up tips by appliance name, case- and whitespace-insensitively
type Book struct {
	tips map[string]string
}

// New creates a tip book from the default tips plus overrides
func New(overrides map[string]string) *Book {
	b := &Book{tips: make(map[string]string, len(defaultTips)+len(overrides))}
	for k, v := range defaultTips {
		b.tips[k] = v
	}
	for k, v := range overrides {
		b.tips[normalizeName(k)] = v
	}
	return b
}

// Lookup returns the tip for an appliance and whether a specific one exists.
// Unmapped appliances get Fallback.
func (b *Book) Lookup(appliance string) (string, bool) {
	if tip, ok := b.tips[normalizeName(appliance)]; ok {
		return tip, true
	}
	return Fallback, false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
