package wizard

// payload.go maps a finished WizardState onto the job-creation request
// shape the backend persists. The field names follow the backend's
// snake_case contract; everything here is a straight rename, no logic.

// ColumnMappingPayload is one column mapping in the job request.
type ColumnMappingPayload struct {
	SourceColumn      string   `json:"source_column"`
	DestinationColumn string   `json:"destination_column"`
	SourceType        string   `json:"source_type"`
	DestinationType   string   `json:"destination_type"`
	Transformations   []string `json:"transformations,omitempty"`
	IsNullable        bool     `json:"is_nullable"`
	DefaultValue      *string  `json:"default_value,omitempty"`
	Exclude           bool     `json:"exclude"`
	ColumnOrder       int      `json:"column_order"`
	IsPrimaryKey      bool     `json:"is_primary_key"`
}

// SchedulePayload is the optional schedule in the job request.
type SchedulePayload struct {
	CronExpression string `json:"cron_expression"`
	Enabled        bool   `json:"enabled"`
}

// JobRequest is the job-creation/update payload assembled on submit.
type JobRequest struct {
	Name              string                 `json:"name"`
	Description       string                 `json:"description,omitempty"`
	SourceType        SourceType             `json:"source_type"`
	SourceConfig      map[string]any         `json:"source_config"`
	DestinationType   DestinationType        `json:"destination_type"`
	DestinationConfig map[string]any         `json:"destination_config"`
	LoadStrategy      LoadStrategy           `json:"load_strategy"`
	UpsertKeys        []string               `json:"upsert_keys,omitempty"`
	BatchSize         int                    `json:"batch_size"`
	ColumnMappings    []ColumnMappingPayload `json:"column_mappings"`
	Schedule          *SchedulePayload       `json:"schedule,omitempty"`
	CreateNewTable    bool                   `json:"create_new_table"`
	NewTableDDL       string                 `json:"new_table_ddl,omitempty"`
}

// BuildJobRequest assembles the persistence payload from the state. The
// ddl argument is the generated schema statement for a new table and is
// ignored unless the destination asks for one.
func BuildJobRequest(s WizardState, ddl string) JobRequest {
	req := JobRequest{
		Name:        s.Details.Name,
		Description: s.Details.Description,
		SourceType:  s.Source.Type,
		SourceConfig: map[string]any{
			"location": s.Source.Location,
		},
		DestinationType: s.Destination.Type,
		DestinationConfig: map[string]any{
			"credential_id": s.Destination.CredentialID,
			"schema":        s.Destination.Schema,
			"table":         s.Destination.Table,
		},
		LoadStrategy:   s.Details.Strategy,
		UpsertKeys:     append([]string(nil), s.UpsertKeys...),
		BatchSize:      s.Details.BatchSize,
		CreateNewTable: s.Destination.CreateNewTable,
	}

	for _, m := range s.Mappings {
		req.ColumnMappings = append(req.ColumnMappings, ColumnMappingPayload{
			SourceColumn:      m.SourceColumn,
			DestinationColumn: m.DestinationColumn,
			SourceType:        m.SourceType,
			DestinationType:   m.DestinationType,
			Transformations:   append([]string(nil), m.Transformations...),
			IsNullable:        m.Nullable,
			DefaultValue:      m.Default,
			Exclude:           m.Exclude,
			ColumnOrder:       m.Order,
			IsPrimaryKey:      m.PrimaryKey,
		})
	}

	if s.Schedule != nil {
		req.Schedule = &SchedulePayload{
			CronExpression: s.Schedule.Cron,
			Enabled:        s.Schedule.Enabled,
		}
	}
	if s.Destination.CreateNewTable {
		req.NewTableDDL = ddl
	}
	return req
}
