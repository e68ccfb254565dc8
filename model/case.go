package model

import "time"

// WorkflowType is the kind of insurance process a case follows.
type WorkflowType string

// Workflow types.
const (
	WorkflowRenewal          WorkflowType = "Renewal"
	WorkflowIssuance         WorkflowType = "Issuance"
	WorkflowPolicyOnboarding WorkflowType = "Policy onboarding"
)

// WorkflowTypes lists every workflow type in draw order.
var WorkflowTypes = []WorkflowType{WorkflowRenewal, WorkflowIssuance, WorkflowPolicyOnboarding}

// Valid reports whether t is a known workflow type.
func (t WorkflowType) Valid() bool {
	switch t {
	case WorkflowRenewal, WorkflowIssuance, WorkflowPolicyOnboarding:
		return true
	}
	return false
}

// Case is one simulated insurance-workflow instance.
type Case struct {
	ID                int          `json:"id"`
	Type              WorkflowType `json:"type"`
	Branch            string       `json:"branch"`
	Ramo              string       `json:"ramo"`
	Broker            string       `json:"brocker"`
	Client            string       `json:"client"`
	Creator           string       `json:"creator"`
	Value             float64      `json:"value"`
	InsuranceNumber   string       `json:"insurance"`
	InsuranceCreation time.Time    `json:"insurance_creation"`
	InsuranceStart    time.Time    `json:"insurance_start"`
	InsuranceEnd      time.Time    `json:"insurance_end"`
	State             string       `json:"state"`
	AvgTime           float64      `json:"avg_time"`
	Approved          bool         `json:"approved"`

	// LastTimestamp is the simulated clock of an in-flight run. It is not
	// persisted.
	LastTimestamp time.Time `json:"-"`
}

// Activity is one logged stage transition of a case. Activities are
// append-only; only TPT is written after creation.
type Activity struct {
	ID        int64     `json:"id"`
	CaseID    int       `json:"case"`
	CaseIndex int       `json:"case_index"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	TPT       float64   `json:"tpt"`
	Rework    bool      `json:"rework"`
	Automatic bool      `json:"automatic"`
}

// Rework records a return to an earlier stage.
type Rework struct {
	ID         int64   `json:"id"`
	ActivityID int64   `json:"activity"`
	Target     string  `json:"target"`
	Cost       float64 `json:"cost"`
	Cause      string  `json:"cause"`
}

// Bill is one billing period emitted for a case.
type Bill struct {
	ID        int64     `json:"id"`
	CaseID    int       `json:"case"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Variant groups the cases that share an identical ordered activity sequence.
type Variant struct {
	ID          int64    `json:"id"`
	Activities  []string `json:"activities"`
	Cases       []int    `json:"cases"`
	NumberCases int      `json:"number_cases"`
	Percentage  float64  `json:"percentage"`
	AvgTime     float64  `json:"avg_time"`
}

// ActivityTime is the mean time attributed to one activity name.
type ActivityTime struct {
	Name        string  `json:"name"`
	MeanSeconds float64 `json:"mean_seconds"`
	Samples     int     `json:"samples"`
}

// KPI is the summary shown on the dashboard.
type KPI struct {
	CaseQuantity       int `json:"case_quantity"`
	VariantQuantity    int `json:"variant_quantity"`
	BillQuantity       int `json:"bill_quantity"`
	ReworkQuantity     int `json:"rework_quantity"`
	ApprovedCases      int `json:"approved_cases"`
	CancelledByCompany int `json:"cancelled_by_company"`
	CancelledByBroker  int `json:"cancelled_by_broker"`
}
