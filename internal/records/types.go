package records

import "time"

// Field is a cultivated plot owned by one actor.
type Field struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	AreaHa    float64   `json:"area_ha"`
	Crop      string    `json:"crop"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkRecord is one dated entry in the compliance work log.
type WorkRecord struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Date       string    `json:"date"` // YYYY-MM-DD
	FieldID    string    `json:"field_id"`
	FieldName  string    `json:"field_name"`
	Crop       string    `json:"crop"`
	WorkType   string    `json:"work_type"`
	WorkDetail string    `json:"work_detail,omitempty"`
	Worker     string    `json:"worker,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FieldInput is the caller-supplied part of a Field.
type FieldInput struct {
	Name   string  `json:"name"`
	AreaHa float64 `json:"area_ha"`
	Crop   string  `json:"crop"`
	Status string  `json:"status"`
}

// WorkRecordInput is the caller-supplied part of a WorkRecord.
type WorkRecordInput struct {
	Date       string `json:"date"`
	FieldID    string `json:"field_id"`
	FieldName  string `json:"field_name"`
	Crop       string `json:"crop"`
	WorkType   string `json:"work_type"`
	WorkDetail string `json:"work_detail"`
	Worker     string `json:"worker"`
}
