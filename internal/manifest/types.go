package manifest

// Fixed file names written by the exporter into each script folder.
const (
	ExportFile   = ".gm.json"
	ResourceFile = ".files.json"
)

// ExportManifest holds the export details of one archived script.
type ExportManifest struct {
	Enabled     bool   `json:"enabled"`
	DownloadURL string `json:"downloadUrl"`
	UUID        string `json:"uuid,omitempty"`
	Version     string `json:"version,omitempty"`
}

// ResourceMap maps an external URL, as referenced by the script source, to
// the archive-relative path holding that URL's content.
type ResourceMap map[string]string

// Lookup returns the archive path for url.
func (m ResourceMap) Lookup(url string) (string, bool) {
	p, ok := m[url]
	return p, ok && p != ""
}
