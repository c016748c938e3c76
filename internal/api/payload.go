package api

import (
	"slices"

	"sahm/internal/models"
)

var generalKit = []string{"ALS Kit", "Vital Signs Monitor", "First Aid Trauma Bag", "IV Access Kit"}

// payloadKits is the equipment a drone carries per clinical category
var payloadKits = map[models.Category][]string{
	models.CategoryCardiac:        {"AED", "Cardiac Medications", "Portable ECG", "Advanced Airway Kit"},
	models.CategoryTraumaBleeding: {"Tourniquet", "Hemostatic Gauze", "IV Fluids", "Splint Kit", "Pressure Dressings"},
	models.CategoryRespiratory:    {"Portable Oxygen", "Nebulizer", "Bronchodilators", "Intubation Kit"},
	models.CategoryAllergic:       {"EpiPen", "Antihistamines", "Oxygen", "IV Steroids"},
	models.CategoryNeuro:          {"Stroke Assessment Kit", "Neuroprotective Meds", "Oxygen", "Glucose Monitor"},
}

// PayloadKit returns the drone payload for a category, falling back to the general kit
func PayloadKit(category models.Category) []string {
	if kit, ok := payloadKits[category]; ok {
		return slices.Clone(kit)
	}
	return slices.Clone(generalKit)
}
