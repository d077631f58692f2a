package dto

// SLAConfigItem is one row of the administrator-editable deadline table.
type SLAConfigItem struct {
	StageID     string `json:"stage_id" validate:"required"`
	DaysLimit   int    `json:"days_limit" validate:"gte=0"`
	WarningDays int    `json:"warning_days" validate:"gte=0"`
}

// UpdateSLARequest replaces rows of the SLA table.
type UpdateSLARequest struct {
	Items []SLAConfigItem `json:"items" validate:"required,min=1,dive"`
}
