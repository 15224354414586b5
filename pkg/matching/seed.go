package matching

import "github.com/trialbridge-health/platform/pkg/common/models"

// seedExperts is the fixed placeholder set inserted when a cold deployment
// has no experts at all and no publication authors to derive from.
func seedExperts() []models.ContentItem {
	return []models.ContentItem{
		{
			Kind:             models.KindExpert,
			Title:            "Dr. Asha Raman",
			Description:      "Medical oncologist focused on early-phase solid tumor trials.",
			Tags:             []string{"Cancer", "Lung Cancer", "Breast Cancer"},
			Attributes:       map[string]interface{}{"specialty": "Oncology"},
			Provenance:       models.ProvenanceSeeded,
			AffiliationState: models.AffiliationSeedPlaceholder,
		},
		{
			Kind:             models.KindExpert,
			Title:            "Dr. Miguel Torres",
			Description:      "Cardiologist with a clinical interest in hypertension and heart failure management.",
			Tags:             []string{"Hypertension", "Heart Failure", "Coronary Artery Disease"},
			Attributes:       map[string]interface{}{"specialty": "Cardiology"},
			Provenance:       models.ProvenanceSeeded,
			AffiliationState: models.AffiliationSeedPlaceholder,
		},
		{
			Kind:             models.KindExpert,
			Title:            "Dr. Elena Petrova",
			Description:      "Neurologist working on epilepsy and multiple sclerosis care pathways.",
			Tags:             []string{"Epilepsy", "Multiple Sclerosis", "Parkinson's Disease"},
			Attributes:       map[string]interface{}{"specialty": "Neurology"},
			Provenance:       models.ProvenanceSeeded,
			AffiliationState: models.AffiliationSeedPlaceholder,
		},
		{
			Kind:             models.KindExpert,
			Title:            "Dr. Samuel Okafor",
			Description:      "Endocrinologist specializing in diabetes and metabolic disease.",
			Tags:             []string{"Diabetes Mellitus"},
			Attributes:       map[string]interface{}{"specialty": "Endocrinology"},
			Provenance:       models.ProvenanceSeeded,
			AffiliationState: models.AffiliationSeedPlaceholder,
		},
	}
}
