package stamps

// Сегмент клиентов для рассылок: набор включающих и исключающих критериев
type Segment struct {
	Name    string     `json:"name"`
	Include []Criteria `json:"include"`
	Exclude []Criteria `json:"exclude"`
}

type Criteria struct {
	Operator   string      `json:"operator"` // AND / OR
	Conditions []Condition `json:"conditions"`
}

type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

const (
	SegmentAll      = "all"
	SegmentActive   = "active"
	SegmentInactive = "inactive"
	SegmentClose    = "close"
)

// Предопределенные сегменты
var Segments = map[string]Segment{
	SegmentAll: {
		Name: SegmentAll,
	},
	SegmentActive: {
		Name: SegmentActive,
		Include: []Criteria{
			{Operator: "AND", Conditions: []Condition{{Field: "stamps", Operator: ">", Value: 0}}},
		},
	},
	SegmentInactive: {
		Name: SegmentInactive,
		Include: []Criteria{
			{Operator: "AND", Conditions: []Condition{{Field: "stamps", Operator: "=", Value: 0}}},
		},
	},
	SegmentClose: {
		Name: SegmentClose,
		Include: []Criteria{
			{Operator: "AND", Conditions: []Condition{
				{Field: "stamps", Operator: ">", Value: 0},
				{Field: "toGo", Operator: "<=", Value: 2},
			}},
		},
	},
}
