package converter

import (
	apperrors "lxpfetch/pkg/errors"
	"lxpfetch/pkg/logger"
	"lxpfetch/pkg/models"
)

// Converter turns fetched content into the bytes written to disk
type Converter struct {
	logger logger.Logger
}

// New creates a converter
func New(log logger.Logger) *Converter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Converter{logger: log}
}

// Convert renders a fetch result in the requested output format. Documents
// and assets pass through byte for byte; lesson pages and subject intros
// render as Markdown or as canonical JSON dumps of the raw payload.
func (c *Converter) Convert(res *models.FetchResult, format models.Format) ([]byte, error) {
	switch res.Item.Kind {
	case models.KindDocument, models.KindAsset:
		return res.Body, nil

	case models.KindLessonPage:
		if format == models.FormatJSON {
			return CanonicalJSON(res.Body)
		}
		if res.Page == nil {
			return nil, apperrors.New(apperrors.ErrorTypeConversion, "lesson page payload missing")
		}
		return renderLessonPage(res.Page)

	case models.KindSubjectIntro:
		if res.Subject == nil {
			return nil, apperrors.New(apperrors.ErrorTypeConversion, "subject payload missing")
		}
		if format == models.FormatJSON {
			return CanonicalJSON(res.Subject.Raw)
		}
		return renderSubjectIntro(res.Subject)

	default:
		return nil, apperrors.Newf(apperrors.ErrorTypeConversion, "unknown item kind %q", res.Item.Kind)
	}
}
