package types

// Persona identifies one of the fixed debate viewpoints.
type Persona string

const (
	TaxOptimizer     Persona = "TaxOptimizer"
	RiskManager      Persona = "RiskManager"
	MarketStrategist Persona = "MarketStrategist"
	GrowthOptimizer  Persona = "GrowthOptimizer"
)

// DebateOrder is the fixed per-round evaluation order. Later personas see the
// statements produced earlier in the same round, so this order must be stable.
func DebateOrder() []Persona {
	return []Persona{TaxOptimizer, RiskManager, MarketStrategist, GrowthOptimizer}
}

// Recommendation is an agent's verdict for a single position.
type Recommendation string

const (
	Harvest         Recommendation = "HARVEST"
	Keep            Recommendation = "KEEP"
	PriorityHarvest Recommendation = "PRIORITY_HARVEST"
)

// HarvestSide reports whether the recommendation is on the harvest side of the
// debate. HARVEST and PRIORITY_HARVEST count as the same side when scoring
// agreement; the distinction only matters for the final strategy.
func (r Recommendation) HarvestSide() bool {
	return r == Harvest || r == PriorityHarvest
}

// Valid reports whether r is one of the three known verdicts.
func (r Recommendation) Valid() bool {
	return r == Harvest || r == Keep || r == PriorityHarvest
}

// ConsensusStatus is the supervisor's round-level agreement judgement.
type ConsensusStatus string

const (
	ConsensusNone    ConsensusStatus = "NONE"
	ConsensusPartial ConsensusStatus = "PARTIAL"
	ConsensusFull    ConsensusStatus = "FULL"
)

// FinalStatus describes how a debate session terminated.
type FinalStatus string

const (
	ConsensusReached    FinalStatus = "CONSENSUS_REACHED"
	MaxRoundsReached    FinalStatus = "MAX_ROUNDS_REACHED"
	NoEligiblePositions FinalStatus = "NO_ELIGIBLE_POSITIONS"
)

// Position is one losing lot under debate. Immutable once a session starts.
// LossAmount and TaxSavingEstimate are derived at portfolio intake; callers
// never supply LossAmount directly.
type Position struct {
	Symbol            string  `json:"symbol"`
	Quantity          float64 `json:"quantity"`
	CostBasis         float64 `json:"cost_basis"`
	CurrentPrice      float64 `json:"current_price"`
	HoldingPeriodDays int     `json:"holding_period_days"`
	LossAmount        float64 `json:"loss_amount"`
	TaxSavingEstimate float64 `json:"tax_saving_estimate"`
}

// LossPct returns the unrealized loss as a percentage of the lot's cost.
func (p Position) LossPct() float64 {
	total := p.CostBasis * p.Quantity
	if total <= 0 {
		return 0
	}
	return p.LossAmount / total * 100
}

// AgentStatement is one persona's judgement on one position in one round.
// Created once, never mutated.
type AgentStatement struct {
	AgentID         Persona        `json:"agent_id"`
	PositionSymbol  string         `json:"position_symbol"`
	Recommendation  Recommendation `json:"recommendation"`
	Confidence      float64        `json:"confidence"`
	RationalePoints []string       `json:"rationale_points"`
	RoundNumber     int            `json:"round_number"`
}

// DebateRound is one full cycle of agent statements plus the supervisor's
// judgement. Frozen once the supervisor fields are filled.
type DebateRound struct {
	RoundNumber        int               `json:"round_number"`
	Statements         []AgentStatement  `json:"statements"`
	ConsensusStatus    ConsensusStatus   `json:"consensus_status"`
	Agreements         map[string]string `json:"agreements"`
	Disagreements      map[string]string `json:"disagreements"`
	SupervisorFeedback string            `json:"supervisor_feedback"`
}

// DebateSession is the complete negotiation transcript for one portfolio's
// loss-eligible positions. This structure is the wire contract to the
// persistence and reporting layers; field names are stable.
type DebateSession struct {
	SessionID            string                    `json:"session_id"`
	Positions            []Position                `json:"positions"`
	Rounds               []DebateRound             `json:"rounds"`
	FinalStatus          FinalStatus               `json:"final_status"`
	FinalStrategy        map[string]Recommendation `json:"final_strategy"`
	SupervisorConclusion string                    `json:"supervisor_conclusion"`
	TotalRounds          int                       `json:"total_rounds"`
	StartedAt            string                    `json:"started_at"`
	EndedAt              string                    `json:"ended_at"`
}

// Statements returns every statement across all rounds in chronological order.
func (s *DebateSession) Statements() []AgentStatement {
	var all []AgentStatement
	for _, r := range s.Rounds {
		all = append(all, r.Statements...)
	}
	return all
}

// NewsArticle is one scraped headline used for market context.
type NewsArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
	Symbol      string `json:"symbol"`
}

// MomentumSignal is the per-symbol market sentiment fed to the debate as
// external context. Score is in [-1, 1].
type MomentumSignal struct {
	Symbol    string   `json:"symbol"`
	Score     float64  `json:"score"`
	Label     string   `json:"label"` // POSITIVE, NEGATIVE, NEUTRAL
	Headlines []string `json:"headlines,omitempty"`
	Timestamp int64    `json:"timestamp"`
}
