// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// RegionalDisease is one entry of the regionally sensitive disease table.
type RegionalDisease struct {
	Name     string `yaml:"name"`
	Priority string `yaml:"priority"`
	Region   string `yaml:"region"`
}

// defaultDiseases lists conditions whose standard of care differs
// materially by geography. Order matters: the first match in the query
// wins, so more specific entries come first.
var defaultDiseases = []RegionalDisease{
	{Name: "dengue", Priority: "MÁXIMA", Region: "Tropical/Brasil"},
	{Name: "zika", Priority: "MÁXIMA", Region: "Tropical/América Latina"},
	{Name: "chikungunya", Priority: "MÁXIMA", Region: "Tropical/Brasil"},
	{Name: "febre amarela", Priority: "MÁXIMA", Region: "Tropical/Brasil"},
	{Name: "chagas", Priority: "MÁXIMA", Region: "América Latina"},
	{Name: "leishmaniose", Priority: "MÁXIMA", Region: "Tropical/Brasil"},
	{Name: "malária", Priority: "ALTA", Region: "Tropical/Mundial"},
	{Name: "esquistossomose", Priority: "ALTA", Region: "Brasil/África"},
	{Name: "tuberculose", Priority: "MÉDIA", Region: "Brasil (SUS)"},
	{Name: "hanseníase", Priority: "ALTA", Region: "Brasil/Tropical"},
	{Name: "leptospirose", Priority: "ALTA", Region: "Brasil"},
	{Name: "covid", Priority: "MÉDIA", Region: "Mundial (protocolos locais)"},
}

// Detector matches queries against the regional disease table.
type Detector struct {
	diseases []RegionalDisease
}

// NewDetector uses the built-in table.
func NewDetector() *Detector {
	return &Detector{diseases: defaultDiseases}
}

// NewDetectorFromFile replaces the table with entries from a YAML file.
func NewDetectorFromFile(path string) (*Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading disease table %s: %w", path, err)
	}
	var diseases []RegionalDisease
	if err := yaml.Unmarshal(data, &diseases); err != nil {
		return nil, fmt.Errorf("parsing disease table %s: %w", path, err)
	}
	if len(diseases) == 0 {
		return nil, fmt.Errorf("disease table %s is empty", path)
	}
	return &Detector{diseases: diseases}, nil
}

// Detect reports whether the query mentions a regionally sensitive
// disease. The first table entry found in the query wins.
func (d *Detector) Detect(query string) types.RegionalDiseaseInfo {
	lower := strings.ToLower(query)
	for _, disease := range d.diseases {
		if strings.Contains(lower, disease.Name) {
			return types.RegionalDiseaseInfo{
				Detected: true,
				Disease:  disease.Name,
				Priority: disease.Priority,
				Region:   disease.Region,
			}
		}
	}
	return types.RegionalDiseaseInfo{}
}

// RegionalPriorityInstruction renders the synthesizer instruction block
// for a detected regional disease. Returns "" when nothing was detected.
func RegionalPriorityInstruction(info types.RegionalDiseaseInfo) string {
	if !info.Detected {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ ATENÇÃO ESPECIAL - DOENÇA REGIONAL DETECTADA\n\n")
	fmt.Fprintf(&b, "Doença: %s\n", strings.ToUpper(info.Disease))
	fmt.Fprintf(&b, "Região: %s\n", info.Region)
	fmt.Fprintf(&b, "Prioridade regional: %s\n\n", info.Priority)
	b.WriteString(`INSTRUÇÕES OBRIGATÓRIAS:

1. DÊ PRIORIDADE MÁXIMA aos documentos da literatura regional (LILACS)
2. Os protocolos regionais representam as diretrizes brasileiras oficiais
3. Em caso de divergência entre protocolos internacionais e regionais,
   SEMPRE priorize os regionais para o contexto brasileiro e explique a
   diferença se relevante
4. Mencione explicitamente a origem: "Segundo protocolo brasileiro (LILACS)...",
   "Diretrizes do Ministério da Saúde..."
`)
	fmt.Fprintf(&b, "5. Para %s: use dados epidemiológicos locais e considere a disponibilidade no SUS\n", info.Disease)
	b.WriteString("\nProtocolos internacionais podem não ser adequados para esta condição.\n")
	return b.String()
}
