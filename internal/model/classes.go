package model

// Class is one of the four diagnostic categories the classifier separates.
type Class string

const (
	Glioma     Class = "glioma"
	Meningioma Class = "meningioma"
	NoTumor    Class = "notumor"
	Pituitary  Class = "pituitary"
)

// Classes is the model's output order.
var Classes = []Class{Glioma, Meningioma, NoTumor, Pituitary}

var classInfo = map[Class]ClassInfo{
	Glioma: {
		Name:        "Glioma",
		Description: "Tumor arising from glial cells in the brain or spinal cord.",
		Severity:    "High",
		Color:       "#ef4444",
		Icon:        "fas fa-brain",
	},
	Meningioma: {
		Name:        "Meningioma",
		Description: "Typically benign tumor arising from the meninges surrounding the brain.",
		Severity:    "Medium",
		Color:       "#f59e0b",
		Icon:        "fas fa-brain",
	},
	NoTumor: {
		Name:        "No Tumor",
		Description: "Normal brain tissue with no evidence of tumor.",
		Severity:    "Normal",
		Color:       "#10b981",
		Icon:        "fas fa-check-circle",
	},
	Pituitary: {
		Name:        "Pituitary",
		Description: "Tumor developing in the pituitary gland at the base of the brain.",
		Severity:    "Medium",
		Color:       "#3b82f6",
		Icon:        "fas fa-brain",
	},
}

// Info returns the display metadata for c.
func (c Class) Info() ClassInfo {
	return classInfo[c]
}

// Catalog returns a copy of the class metadata keyed by class.
func Catalog() map[Class]ClassInfo {
	out := make(map[Class]ClassInfo, len(classInfo))
	for k, v := range classInfo {
		out[k] = v
	}
	return out
}

func ClassNames() []string {
	names := make([]string, len(Classes))
	for i, c := range Classes {
		names[i] = string(c)
	}
	return names
}
