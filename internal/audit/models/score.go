package models

import id "conforma/pkg/domain"

// ScoreSummary is the read model behind the audit score endpoint. It combines
// the assessment module's computed score with the open non-conformity counts
// from the findings register.
type ScoreSummary struct {
	AuditID      id.AuditID `json:"audit_id"`
	ScorePercent float64    `json:"score_percent"`
	ScoreVersion int        `json:"score_version"`
	Responded    int        `json:"responded"`
	OpenMajor    int        `json:"open_major"`
	OpenMinor    int        `json:"open_minor"`
}
