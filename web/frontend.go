package web

import "github.com/b1naryth1ef/cartolive"

// ProgressData is the JSON document pushed to the status page.
type ProgressData struct {
	World            string  `json:"world"`
	State            string  `json:"state"`
	Percent          float64 `json:"percent"`
	CPS              float64 `json:"cps"`
	ETA              string  `json:"eta"`
	ProcessedChunks  int64   `json:"processedChunks"`
	TotalChunks      int64   `json:"totalChunks"`
	ProcessedRegions int64   `json:"processedRegions"`
	TotalRegions     int64   `json:"totalRegions"`
	Visible          bool    `json:"visible"`
}

func newProgressData(snap cartolive.Snapshot) ProgressData {
	return ProgressData{
		World:            snap.World,
		State:            snap.State.String(),
		Percent:          snap.Percent,
		CPS:              snap.CPS,
		ETA:              snap.ETA,
		ProcessedChunks:  snap.ProcessedChunks,
		TotalChunks:      snap.TotalChunks,
		ProcessedRegions: snap.ProcessedRegions,
		TotalRegions:     snap.TotalRegions,
		Visible:          true,
	}
}
