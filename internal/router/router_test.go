// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package router

import (
	"testing"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  types.Flags
	}{
		{
			"treatment question",
			"Qual o tratamento para pneumonia?",
			types.Flags{IsMedical: true, NeedsDrugSearch: false, NeedsRegionalSearch: true},
		},
		{
			"drug dosage question",
			"Qual a dose de amoxicilina para criança",
			types.Flags{IsMedical: true, NeedsDrugSearch: true, NeedsRegionalSearch: true},
		},
		{
			"question mark alone flags medical",
			"Posso tomar sol depois da vacina?",
			types.Flags{IsMedical: true, NeedsDrugSearch: false, NeedsRegionalSearch: true},
		},
		{
			"regional keyword without medical keyword",
			"panorama da saúde no brasil",
			types.Flags{IsMedical: false, NeedsDrugSearch: false, NeedsRegionalSearch: true},
		},
		{
			"non-medical statement",
			"bom dia",
			types.Flags{},
		},
		{
			"case insensitive",
			"TRATAMENTO da dengue",
			types.Flags{IsMedical: true, NeedsDrugSearch: false, NeedsRegionalSearch: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.query)
			if got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	query := "tratamento de hipertensão com medicamento"
	first := Classify(query)
	for i := 0; i < 10; i++ {
		if got := Classify(query); got != first {
			t.Fatalf("Classify changed between calls: %+v vs %+v", got, first)
		}
	}
}
