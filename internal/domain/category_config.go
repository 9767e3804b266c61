package domain

import "strings"

// CategoryClass is the closed enumeration of tariff category families the
// matcher knows how to police. Unknown bill categories resolve to
// ClassDefault rather than failing.
type CategoryClass string

const (
	ClassMedicines    CategoryClass = "medicines"
	ClassPharmacy     CategoryClass = "pharmacy"
	ClassDiagnostics  CategoryClass = "diagnostics"
	ClassRadiology    CategoryClass = "radiology"
	ClassLaboratory   CategoryClass = "laboratory"
	ClassProcedures   CategoryClass = "procedures"
	ClassConsultation CategoryClass = "consultation"
	ClassSurgery      CategoryClass = "surgery"
	ClassImplants     CategoryClass = "implants"
	ClassConsumables  CategoryClass = "consumables"
	ClassDefault      CategoryClass = "default"
)

// CategoryConfig is the matching policy for one category class: its
// semantic threshold, which hard constraints apply, and which classes can
// never satisfy it.
type CategoryConfig struct {
	Class             CategoryClass
	Threshold         float64
	RequireDosage     bool
	RequireForm       bool
	RequireModality   bool
	RequireBodyPart   bool
	AllowPartialMatch bool
	HardBoundaries    []CategoryClass
	Weights           ScoreWeights
}

// Boundary reports whether other is in this config's hard-boundary set.
func (c *CategoryConfig) Boundary(other CategoryClass) bool {
	for _, b := range c.HardBoundaries {
		if b == other {
			return true
		}
	}
	return false
}

// defaultWeights is the authoritative fusion weighting:
// semantic 0.50, medical anchors 0.30, token overlap 0.20.
var defaultWeights = ScoreWeights{Semantic: 0.50, Anchors: 0.30, Tokens: 0.20}

// categoryConfigs is the closed policy table, resolved once at package
// init. Thresholds and boundaries mirror the contracted tariff families:
// drug-like categories demand tighter similarity and dosage agreement,
// imaging-like categories demand modality and body-part agreement.
var categoryConfigs = map[CategoryClass]CategoryConfig{
	ClassMedicines: {
		Class: ClassMedicines, Threshold: 0.75,
		RequireDosage: true, RequireForm: true,
		HardBoundaries: []CategoryClass{ClassDiagnostics, ClassProcedures, ClassRadiology, ClassLaboratory},
		Weights:        defaultWeights,
	},
	ClassPharmacy: {
		Class: ClassPharmacy, Threshold: 0.75,
		RequireDosage: true, RequireForm: true,
		HardBoundaries: []CategoryClass{ClassDiagnostics, ClassProcedures},
		Weights:        defaultWeights,
	},
	ClassDiagnostics: {
		Class: ClassDiagnostics, Threshold: 0.70,
		RequireModality: true, RequireBodyPart: true,
		HardBoundaries: []CategoryClass{ClassMedicines, ClassPharmacy},
		Weights:        defaultWeights,
	},
	ClassRadiology: {
		Class: ClassRadiology, Threshold: 0.70,
		RequireModality: true, RequireBodyPart: true,
		HardBoundaries: []CategoryClass{ClassMedicines, ClassPharmacy},
		Weights:        defaultWeights,
	},
	ClassLaboratory: {
		Class: ClassLaboratory, Threshold: 0.70,
		HardBoundaries: []CategoryClass{ClassMedicines, ClassPharmacy},
		Weights:        defaultWeights,
	},
	ClassProcedures: {
		Class: ClassProcedures, Threshold: 0.65,
		AllowPartialMatch: true,
		HardBoundaries:    []CategoryClass{ClassMedicines, ClassPharmacy},
		Weights:           defaultWeights,
	},
	ClassConsultation: {
		Class: ClassConsultation, Threshold: 0.65,
		AllowPartialMatch: true,
		HardBoundaries:    []CategoryClass{ClassMedicines, ClassPharmacy},
		Weights:           defaultWeights,
	},
	ClassSurgery: {
		Class: ClassSurgery, Threshold: 0.70,
		HardBoundaries: []CategoryClass{ClassMedicines, ClassPharmacy, ClassDiagnostics},
		Weights:        defaultWeights,
	},
	ClassImplants: {
		Class: ClassImplants, Threshold: 0.75,
		HardBoundaries: []CategoryClass{ClassMedicines, ClassPharmacy, ClassDiagnostics},
		Weights:        defaultWeights,
	},
	ClassConsumables: {
		Class: ClassConsumables, Threshold: 0.70,
		Weights: defaultWeights,
	},
	ClassDefault: {
		Class: ClassDefault, Threshold: 0.70,
		AllowPartialMatch: true,
		Weights:           defaultWeights,
	},
}

// categoryAliases maps common tariff spellings onto category classes.
// Resolution is exact after normalization; there is deliberately no fuzzy
// substring fallback.
var categoryAliases = map[string]CategoryClass{
	"medicines":       ClassMedicines,
	"medicine":        ClassMedicines,
	"drugs":           ClassMedicines,
	"pharmacy":        ClassPharmacy,
	"diagnostics":     ClassDiagnostics,
	"diagnostic":      ClassDiagnostics,
	"investigations":  ClassDiagnostics,
	"radiology":       ClassRadiology,
	"imaging":         ClassRadiology,
	"laboratory":      ClassLaboratory,
	"lab":             ClassLaboratory,
	"pathology":       ClassLaboratory,
	"procedures":      ClassProcedures,
	"procedure":       ClassProcedures,
	"consultation":    ClassConsultation,
	"consultations":   ClassConsultation,
	"opd":             ClassConsultation,
	"surgery":         ClassSurgery,
	"surgical":        ClassSurgery,
	"operation":       ClassSurgery,
	"implants":        ClassImplants,
	"implant":         ClassImplants,
	"consumables":     ClassConsumables,
	"consumable":      ClassConsumables,
	"disposables":     ClassConsumables,
}

// ResolveCategoryClass maps a raw category name to its class, falling back
// to ClassDefault for unknown names.
func ResolveCategoryClass(name string) CategoryClass {
	key := strings.ToLower(strings.TrimSpace(name))
	if class, ok := categoryAliases[key]; ok {
		return class
	}
	return ClassDefault
}

// ConfigForCategory returns the policy for a raw category name. Unknown
// categories get the permissive default record rather than an error.
func ConfigForCategory(name string) CategoryConfig {
	return categoryConfigs[ResolveCategoryClass(name)]
}

// ConfigForClass returns the policy for a resolved class.
func ConfigForClass(class CategoryClass) CategoryConfig {
	if cfg, ok := categoryConfigs[class]; ok {
		return cfg
	}
	return categoryConfigs[ClassDefault]
}
