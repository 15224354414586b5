package vocabulary

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CanonicalCondition maps a controlled-vocabulary tag to the free-text
// synonyms and stems that identify it. OrganSpecificOf links an organ
// cancer tag to the generic tag it specializes.
type CanonicalCondition struct {
	Tag             string   `yaml:"tag" json:"tag"`
	Synonyms        []string `yaml:"synonyms" json:"synonyms"`
	OrganSpecificOf string   `yaml:"organ_specific_of,omitempty" json:"organ_specific_of,omitempty"`
}

// OrganKeyword maps an organ or location stem found near a generic cancer
// mention to its organ-specific tag.
type OrganKeyword struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Tag     string `yaml:"tag" json:"tag"`
}

// Vocabulary is loaded once at process start and never mutated afterwards.
// Condition order matters: when two entries declare the same synonym, the
// first declaration wins.
type Vocabulary struct {
	Conditions       []CanonicalCondition `yaml:"conditions" json:"conditions"`
	GenericCancerTag string               `yaml:"generic_cancer_tag" json:"generic_cancer_tag"`
	OrganKeywords    []OrganKeyword       `yaml:"organ_keywords" json:"organ_keywords"`
}

func Load(path string) (Vocabulary, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Default(), err
	}
	var vocab Vocabulary
	if err := yaml.Unmarshal(content, &vocab); err != nil {
		return Vocabulary{}, err
	}
	if len(vocab.Conditions) == 0 {
		return Vocabulary{}, fmt.Errorf("condition vocabulary empty")
	}
	if vocab.GenericCancerTag == "" {
		vocab.GenericCancerTag = "Cancer"
	}
	return vocab, nil
}

// Default is the built-in vocabulary used when no file is configured.
// Organ-specific cancers come first so their own synonyms claim matches
// before the generic entry.
func Default() Vocabulary {
	return Vocabulary{
		GenericCancerTag: "Cancer",
		Conditions: []CanonicalCondition{
			{Tag: "Brain Cancer", Synonyms: []string{"brain cancer", "brain tumor", "brain tumour", "glioma", "glioblastoma"}, OrganSpecificOf: "Cancer"},
			{Tag: "Lung Cancer", Synonyms: []string{"lung cancer", "lung carcinoma", "mesothelioma"}, OrganSpecificOf: "Cancer"},
			{Tag: "Breast Cancer", Synonyms: []string{"breast cancer", "breast carcinoma"}, OrganSpecificOf: "Cancer"},
			{Tag: "Prostate Cancer", Synonyms: []string{"prostate cancer"}, OrganSpecificOf: "Cancer"},
			{Tag: "Colon Cancer", Synonyms: []string{"colon cancer", "colorectal cancer", "bowel cancer"}, OrganSpecificOf: "Cancer"},
			{Tag: "Skin Cancer", Synonyms: []string{"skin cancer", "melanoma", "basal cell carcinoma"}, OrganSpecificOf: "Cancer"},
			{Tag: "Liver Cancer", Synonyms: []string{"liver cancer", "hepatocellular carcinoma"}, OrganSpecificOf: "Cancer"},
			{Tag: "Pancreatic Cancer", Synonyms: []string{"pancreatic cancer", "pancreas cancer"}, OrganSpecificOf: "Cancer"},
			{Tag: "Stomach Cancer", Synonyms: []string{"stomach cancer", "gastric cancer"}, OrganSpecificOf: "Cancer"},
			{Tag: "Ovarian Cancer", Synonyms: []string{"ovarian cancer", "ovary cancer"}, OrganSpecificOf: "Cancer"},
			{Tag: "Cervical Cancer", Synonyms: []string{"cervical cancer", "cervix cancer"}, OrganSpecificOf: "Cancer"},
			{Tag: "Kidney Cancer", Synonyms: []string{"kidney cancer", "renal cancer", "renal cell carcinoma"}, OrganSpecificOf: "Cancer"},
			{Tag: "Bladder Cancer", Synonyms: []string{"bladder cancer"}, OrganSpecificOf: "Cancer"},
			{Tag: "Thyroid Cancer", Synonyms: []string{"thyroid cancer"}, OrganSpecificOf: "Cancer"},
			{Tag: "Head and Neck Cancer", Synonyms: []string{"head and neck cancer", "throat cancer", "laryngeal cancer"}, OrganSpecificOf: "Cancer"},
			{Tag: "Leukemia", Synonyms: []string{"leukemia", "leukaemia"}, OrganSpecificOf: "Cancer"},
			{Tag: "Lymphoma", Synonyms: []string{"lymphoma", "hodgkin"}, OrganSpecificOf: "Cancer"},
			{Tag: "Cancer", Synonyms: []string{"cancer", "tumor", "tumour", "carcinoma", "malignancy", "oncolog"}},
			{Tag: "Diabetes Mellitus", Synonyms: []string{"diabet", "blood sugar", "insulin resistance"}},
			{Tag: "Hypertension", Synonyms: []string{"hypertens", "high blood pressure"}},
			{Tag: "Asthma", Synonyms: []string{"asthma", "wheez"}},
			{Tag: "COPD", Synonyms: []string{"copd", "emphysema", "chronic bronchitis"}},
			{Tag: "Heart Failure", Synonyms: []string{"heart failure", "cardiomyopathy"}},
			{Tag: "Coronary Artery Disease", Synonyms: []string{"coronary artery", "angina", "heart attack", "myocardial infarction"}},
			{Tag: "Stroke", Synonyms: []string{"stroke", "cerebrovascular"}},
			{Tag: "Chronic Kidney Disease", Synonyms: []string{"kidney disease", "renal failure", "dialysis"}},
			{Tag: "Epilepsy", Synonyms: []string{"epilep", "seizure"}},
			{Tag: "Parkinson's Disease", Synonyms: []string{"parkinson"}},
			{Tag: "Alzheimer's Disease", Synonyms: []string{"alzheim", "dementia"}},
			{Tag: "Multiple Sclerosis", Synonyms: []string{"multiple sclerosis"}},
			{Tag: "Rheumatoid Arthritis", Synonyms: []string{"rheumatoid", "arthrit"}},
			{Tag: "Depression", Synonyms: []string{"depress"}},
			{Tag: "Anxiety Disorder", Synonyms: []string{"anxiety", "panic attack"}},
		},
		OrganKeywords: []OrganKeyword{
			{Keyword: "brain", Tag: "Brain Cancer"},
			{Keyword: "lung", Tag: "Lung Cancer"},
			{Keyword: "breast", Tag: "Breast Cancer"},
			{Keyword: "prostate", Tag: "Prostate Cancer"},
			{Keyword: "colon", Tag: "Colon Cancer"},
			{Keyword: "skin", Tag: "Skin Cancer"},
			{Keyword: "liver", Tag: "Liver Cancer"},
			{Keyword: "pancrea", Tag: "Pancreatic Cancer"},
			{Keyword: "stomach", Tag: "Stomach Cancer"},
			{Keyword: "ovar", Tag: "Ovarian Cancer"},
			{Keyword: "cervi", Tag: "Cervical Cancer"},
			{Keyword: "kidney", Tag: "Kidney Cancer"},
			{Keyword: "bladder", Tag: "Bladder Cancer"},
			{Keyword: "thyroid", Tag: "Thyroid Cancer"},
			{Keyword: "head and neck", Tag: "Head and Neck Cancer"},
		},
	}
}
