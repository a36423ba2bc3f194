// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// defaultDictionary maps common Portuguese medical terms to the English
// equivalents the international sources expect. The dictionary pass is the
// fast path: only queries it cannot touch fall through to the model.
var defaultDictionary = map[string]string{
	// Drugs
	"dipirona":               "metamizole",
	"paracetamol":            "acetaminophen",
	"ácido acetilsalicílico": "aspirin",
	"ibuprofeno":             "ibuprofen",
	"amoxicilina":            "amoxicillin",
	"azitromicina":           "azithromycin",

	// Diseases
	"diabetes":      "diabetes",
	"hipertensão":   "hypertension",
	"asma":          "asthma",
	"pneumonia":     "pneumonia",
	"gripe":         "influenza",
	"resfriado":     "common cold",
	"febre":         "fever",
	"dor de cabeça": "headache",
	"enxaqueca":     "migraine",
	"dengue":        "dengue",
	"malária":       "malaria",
	"tuberculose":   "tuberculosis",

	// Treatment terms
	"tratamento":         "treatment",
	"medicamento":        "medication",
	"dose":               "dose",
	"posologia":          "dosage",
	"efeitos colaterais": "side effects",
	"contraindicações":   "contraindications",

	// Patient conditions
	"gravidez": "pregnancy",
	"lactação": "lactation",
	"criança":  "children",
	"idoso":    "elderly",
	"adulto":   "adult",
}

// LoadDictionary reads additional term mappings from a YAML file and
// merges them over the built-in dictionary. File entries win on conflict.
func LoadDictionary(path string) (map[string]string, error) {
	merged := make(map[string]string, len(defaultDictionary))
	for k, v := range defaultDictionary {
		merged[k] = v
	}
	if path == "" {
		return merged, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dictionary %s: %w", path, err)
	}
	var extra map[string]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parsing dictionary %s: %w", path, err)
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged, nil
}
