package types

import (
	"fmt"
	"time"
)

// Incident status values (payload field "statut").
const (
	IncidentStatusFollowUp = "À suivre"
	IncidentStatusClosed   = "Classé"
)

// Incident nature values (payload field "nature_incident").
const (
	IncidentTypeFire      = "Incendie"
	IncidentTypeTheft     = "Vol"
	IncidentTypeBreakdown = "Panne Technique"
	IncidentTypeAccident  = "Accident"
	IncidentTypeOther     = "Autre"
)

// Payload field names the store's readers look at.
const (
	FieldIncidentStatus = "statut"
	FieldIncidentNature = "nature_incident"
	FieldCheckAmount    = "montant"
	FieldCheckBank      = "banque"
	FieldDocumentType   = "type_objet"
)

// IncidentReferenceBase is the fixed part of every incident reference.
const IncidentReferenceBase = "SRM-MS/DPH/AI-"

// IncidentReferencePrefix returns the month prefix for references created at
// t, e.g. "SRM-MS/DPH/AI-0125" for January 2025.
func IncidentReferencePrefix(t time.Time) string {
	return fmt.Sprintf("%s%02d%02d", IncidentReferenceBase, int(t.Month()), t.Year()%100)
}

// IncidentReference formats the reference with sequence number seq, e.g.
// "SRM-MS/DPH/AI-0125-003".
func IncidentReference(prefix string, seq int) string {
	return fmt.Sprintf("%s-%03d", prefix, seq)
}
