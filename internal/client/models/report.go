// Package models defines the data types shared by the CiviLog client:
// pending reports held in the local queue and the reference data (projects,
// element hierarchy, unit types) used to compose them.
package models

import "errors"

// ReportType identifies which level of the project hierarchy a report
// is attached to.
type ReportType string

const (
	ReportTypePartida     ReportType = "partida"
	ReportTypeSubpartida  ReportType = "subpartida"
	ReportTypeConcepto    ReportType = "concepto"
	ReportTypeSubconcepto ReportType = "subconcepto"
)

// Valid reports whether t is one of the known report types.
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypePartida, ReportTypeSubpartida, ReportTypeConcepto, ReportTypeSubconcepto:
		return true
	}
	return false
}

// PendingMedia is a photo attached to a pending report. URI is a local
// reference only; it must be resolved to bytes before upload.
type PendingMedia struct {
	URI      string `json:"uri"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
}

// PendingReport is a composed report awaiting upload. ID is generated
// locally and has no meaning to the server; CreatedAt is unix milliseconds,
// used only for local ordering and display.
type PendingReport struct {
	ID        string         `json:"id"`
	CreatedAt int64          `json:"createdAt"`
	ProjectID string         `json:"projectId"`
	Type      ReportType     `json:"type"`
	ObjectID  string         `json:"objectId,omitempty"`
	Name      string         `json:"name"`
	Comment   string         `json:"comment,omitempty"`
	Quantity  string         `json:"quantity,omitempty"`
	UnitType  string         `json:"unitType,omitempty"`
	Media     []PendingMedia `json:"media"`
	// IsDraft marks reports the user saved deliberately, as opposed to
	// reports queued because the device was offline at submission time.
	// Both retry the same way.
	IsDraft bool `json:"isDraft,omitempty"`
}

// ReportPayload is the payload object sent with a create-report request.
// AssetIds always carries the server-assigned media identifiers in upload
// order; the remaining fields are present only for report schemas that
// use them.
type ReportPayload struct {
	AssetIds []string `json:"assetIds"`
	Quantity string   `json:"quantity,omitempty"`
	UnitType string   `json:"unitType,omitempty"`
	Progress *float64 `json:"progress,omitempty"`
}

var (
	ErrPayloadMissingAssets = errors.New("payload: assetIds must be present")
	ErrPayloadQuantityUnit  = errors.New("payload: quantity requires a unit type")
)

// Validate checks the payload's required keys before submission.
func (p *ReportPayload) Validate() error {
	if p.AssetIds == nil {
		return ErrPayloadMissingAssets
	}
	if p.Quantity != "" && p.UnitType == "" {
		return ErrPayloadQuantityUnit
	}
	return nil
}
