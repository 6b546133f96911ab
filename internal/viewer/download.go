package viewer

import (
	"path/filepath"
	"strings"

	"github.com/sells-group/proviewer/internal/model"
)

// Download describes how a stored structure is offered as a file.
type Download struct {
	FileName  string
	MediaType string
	Label     string
}

// DownloadFor returns the download descriptor for a flow's record.
func DownloadFor(flow model.Flow, rec model.StructureRecord) Download {
	return Download{
		FileName:  downloadName(flow, rec),
		MediaType: rec.Format.MediaType(),
		Label:     "Download " + strings.ToUpper(string(rec.Format)),
	}
}

func downloadName(flow model.Flow, rec model.StructureRecord) string {
	name := filepath.Base(rec.FileName)
	if name != "." && name != "/" && name != "" {
		return name
	}
	return string(flow) + "." + string(rec.Format)
}
