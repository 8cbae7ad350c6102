package sweepflow

const (
	DecayWorkflowName   = "garden_decay_sweep"
	HarvestWorkflowName = "garden_harvest_sweep"

	ActivityDecay   = "garden_decay_sweep_run"
	ActivityHarvest = "garden_harvest_sweep_run"
)

type HarvestInput struct {
	Force bool `json:"force"`
}

// Summary is the activity result kept in workflow history; per-item errors
// stay in the sweep_run audit row.
type Summary struct {
	RunID     string `json:"run_id"`
	Kind      string `json:"kind"`
	Processed int    `json:"processed"`
	Changed   int    `json:"changed"`
	Failed    int    `json:"failed"`
}
