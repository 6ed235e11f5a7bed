// JSON record structures written alongside exported JSONL tables.
package sqlite

// manifestFile names the export manifest inside an export directory.
const manifestFile = "manifest.json"

// manifestJSON describes one export: a UUID v7 identifying it, the time it
// was taken and the number of records written per table file.
type manifestJSON struct {
	ExportID   string         `json:"export_id"`
	ExportedAt string         `json:"exported_at"`
	Tables     map[string]int `json:"tables"`
}
