package extract

import (
	genai "google.golang.org/genai"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

// prompt is the instruction and response schema sent for one category.
type prompt struct {
	instruction string
	notesLabel  string
	schema      *genai.Schema
}

var prompts = map[types.Category]prompt{
	types.CategoryCorrespondence: {
		instruction: "Analyse ce document administratif.",
		schema: object([]string{"langue_document", "type_objet", "objet", "resume"},
			str("langue_document", ""),
			str("type_objet", ""),
			str("date_document", ""),
			str("objet", ""),
			str("emetteur", ""),
			str("destinataire", ""),
			str("reference", ""),
			str("resume", ""),
			str("suite_a_reserver", ""),
			str("observation", ""),
			str("autres_infos", ""),
		),
	},
	types.CategoryCheck: {
		instruction: "Analyse ce chèque bancaire.",
		schema: object([]string{"banque", "numero_cheque", "montant"},
			str("banque", ""),
			str("numero_cheque", ""),
			str("numero_compte", ""),
			str("rib", ""),
			num("montant"),
			str("date_rejet", ""),
			str("motif_rejet", ""),
			str("classe_rejet", ""),
			str("ville", ""),
			str("nom_proprietaire", ""),
			str("nom_beneficiaire", ""),
		),
	},
	types.CategoryIncident: {
		instruction: "Analyse cet incident et génère une expertise complète incluant un Rapport d'Enquête structuré. " +
			"Sois extrêmement professionnel, technique et précis sur l'analyse technique des causes. " +
			"Remplis tous les champs du schéma JSON.",
		notesLabel: "Notes de l'expert terrain: ",
		schema: object([]string{"victime_objet", "description_sinistre", "nature_incident", "rapport_conclusion", "causes_circonstances"},
			str("victime_objet", "Nom de la victime ou désignation de l'objet du sinistre"),
			str("description_sinistre", "Récit complet et détaillé de l'incident"),
			str("lieu_date_heure", "Localisation précise, date et heure du sinistre"),
			str("dommages", "Inventaire des dégâts matériels ou corporels"),
			str("causes_circonstances", "Analyse des causes directes et indirectes"),
			str("responsabilites", "Identification des parties présumées responsables"),
			str("mesures_prises", "Actions correctives ou de secours immédiates"),
			str("nature_incident", "Catégorie: Incendie, Vol, Panne Technique, Accident ou Autre"),
			str("observations", "Remarques complémentaires du constat"),
			str("date_iso", "Date au format YYYY-MM-DD"),
			str("rapport_introduction", "Texte formel d'introduction pour un rapport d'audit institutionnel"),
			str("rapport_analyse_technique", "Analyse experte et technique approfondie des défaillances constatées"),
			str("rapport_conclusion", "Conclusion synthétique et recommandations stratégiques"),
		),
	},
}

type property struct {
	name   string
	schema *genai.Schema
}

func object(required []string, props ...property) *genai.Schema {
	s := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(props)),
		Required:   required,
	}
	for _, p := range props {
		s.Properties[p.name] = p.schema
	}
	return s
}

func str(name, description string) property {
	return property{name: name, schema: &genai.Schema{Type: genai.TypeString, Description: description}}
}

func num(name string) property {
	return property{name: name, schema: &genai.Schema{Type: genai.TypeNumber}}
}
