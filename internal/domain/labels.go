// internal/domain/labels.go
package domain

// Labels are kept in Portuguese: they are persisted values the buying team's
// reports and downstream tooling already key on.

// Trend labels.
const (
	TrendNoData  = "Sem Dados"
	TrendRising  = "Subindo"
	TrendFalling = "Caindo"
	TrendStable  = "Estável"
)

// Stocking-speed categories by average holding time.
const (
	CategoryNoData   = "Sem Dados"
	CategoryFast     = "Rápido"
	CategoryMedium   = "Médio"
	CategorySlow     = "Lento"
	CategoryObsolete = "Obsoleto"
)

// Planning types.
const (
	PlanningNormal     = "Normal"
	PlanningOnDemand   = "Sob_Demanda"
	PlanningLowHistory = "Pouco_Historico"
)

// Trend-alert flag values.
const (
	AlertYes = "Sim"
	AlertNo  = "Não"
)

// Change-report kinds.
const (
	ChangeNew     = "NOVO PRODUTO"
	ChangeRemoved = "REMOVIDO"
	ChangeAltered = "ALTERADO"
)

// Suggestion statuses.
const (
	StatusNoData      = "Sem dados"
	StatusOnDemand    = "Sob Demanda"
	StatusNoPolicy    = "Sem política"
	StatusPlanning    = "Planejamento"
	StatusShortOrder  = "Compra insuficiente"
	StatusAdequate    = "Compra adequada"
	StatusExcessOrder = "Compra excedente"
)

// Suggestion priorities.
const (
	PriorityNoData      = "Sem dados"
	PriorityOnDemand    = "Sob Demanda"
	PriorityNoPolicy    = "Sem política"
	PriorityCritical    = "Crítico"
	PriorityTrend       = "Oportunidade Tendência"
	PriorityOK          = "OK"
	PriorityOverstocked = "Excedente ou cheio"
	PriorityExcess      = "Excedente"
)
