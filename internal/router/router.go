// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package router classifies an incoming query: whether it is a medical
// question, whether a drug-label source should be consulted, and whether
// regional literature should be searched. Classification is pure keyword
// membership with no I/O; identical input yields identical output.
package router

import (
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// medicalKeywords flag a query as a medical question.
var medicalKeywords = []string{
	"tratamento", "terapia", "medicamento", "droga", "fármaco", "remédio",
	"diagnóstico", "sintoma", "doença", "condição", "patologia",
	"estudo", "pesquisa", "evidência", "protocolo", "diretriz",
	"dose", "posologia", "administração", "efeito colateral", "reação adversa",
}

// drugKeywords flag a query as needing the drug-label source.
var drugKeywords = []string{
	"medicamento", "remédio", "droga", "fármaco", "comprimido",
	"dose", "posologia", "bula", "administração", "mg", "ml",
}

// regionalKeywords flag a query as explicitly asking for regional context.
var regionalKeywords = []string{
	"brasil", "brasileiro", "sus", "público", "nacional",
	"latino", "américa latina", "regional", "local",
}

// Classify derives the search flags for a query. Regional search is always
// attempted for medical questions: regional literature provides context
// even when the query does not ask for it.
func Classify(query string) types.Flags {
	lower := strings.ToLower(query)

	isMedical := containsAny(lower, medicalKeywords) || strings.Contains(lower, "?")
	needsDrug := containsAny(lower, drugKeywords)
	needsRegional := isMedical || containsAny(lower, regionalKeywords)

	return types.Flags{
		IsMedical:           isMedical,
		NeedsDrugSearch:     needsDrug,
		NeedsRegionalSearch: needsRegional,
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
