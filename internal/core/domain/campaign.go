package domain

import "time"

type CampaignStatus string

const (
	CampaignStatusEnabled CampaignStatus = "ENABLED"
	CampaignStatusPaused  CampaignStatus = "PAUSED"
	CampaignStatusRemoved CampaignStatus = "REMOVED"
)

// Campaign represents a remote advertising campaign.
type Campaign struct {
	ID           string
	AccountID    string
	Name         string
	Status       CampaignStatus
	ChannelType  string
	BudgetMicros int64
}

// CampaignMetrics is one observation of campaign performance, normally a
// single day. Monetary fields are in currency units; micros are converted
// at the API boundary.
type CampaignMetrics struct {
	AccountID        string    `json:"account_id"`
	CampaignID       string    `json:"campaign_id"`
	CampaignName     string    `json:"campaign_name"`
	Date             time.Time `json:"date"`
	Impressions      float64   `json:"impressions"`
	Clicks           float64   `json:"clicks"`
	Cost             float64   `json:"cost"`
	Conversions      float64   `json:"conversions"`
	ConversionsValue float64   `json:"conversions_value"`
	CTR              float64   `json:"ctr"`
	AverageCPC       float64   `json:"average_cpc"`
	AverageCPM       float64   `json:"average_cpm"`
	Budget           float64   `json:"budget"`
}

// CostPerConversion returns spend per conversion, or 0 when the campaign
// has no conversions.
func (m *CampaignMetrics) CostPerConversion() float64 {
	if m.Conversions == 0 {
		return 0
	}
	return m.Cost / m.Conversions
}

// ConversionRate returns conversions per click, or 0 when there are no
// clicks.
func (m *CampaignMetrics) ConversionRate() float64 {
	if m.Clicks == 0 {
		return 0
	}
	return m.Conversions / m.Clicks
}

// ROAS returns conversion value per unit of spend, or 0 when there is no
// spend.
func (m *CampaignMetrics) ROAS() float64 {
	if m.Cost == 0 {
		return 0
	}
	return m.ConversionsValue / m.Cost
}

// BudgetUtilization returns spend as a fraction of budget, or 0 when no
// budget is set.
func (m *CampaignMetrics) BudgetUtilization() float64 {
	if m.Budget == 0 {
		return 0
	}
	return m.Cost / m.Budget
}
