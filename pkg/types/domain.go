package types

// Sample is one per-individual community model found on disk.
type Sample struct {
	// Sample identifier: the file name without extension and configured prefix.
	// example: SRR1234
	ID string `json:"id" example:"SRR1234"`
	// Absolute path to the model file.
	// example: /data/models/microbiota_model_samp_SRR1234.json
	Path string `json:"path" example:"/data/models/microbiota_model_samp_SRR1234.json"`
}
