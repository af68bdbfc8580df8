package crawler

import (
	"context"

	apperrors "lxpfetch/pkg/errors"
	"lxpfetch/pkg/logger"
	"lxpfetch/pkg/lxp"
	"lxpfetch/pkg/models"
)

// Fetcher retrieves the raw content behind a single material item
type Fetcher struct {
	client *lxp.Client
	tree   *models.ContentTree
	logger logger.Logger
}

// NewFetcher creates a fetcher for one discovered tree
func NewFetcher(client *lxp.Client, tree *models.ContentTree, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{client: client, tree: tree, logger: log}
}

// Fetch downloads the item's content. Lesson pages come back structured with
// their embedded sub-resources listed in Assets; documents and assets come
// back as raw bytes.
func (f *Fetcher) Fetch(ctx context.Context, item *models.MaterialItem) (*models.FetchResult, error) {
	switch item.Kind {
	case models.KindLessonPage:
		page, raw, err := f.client.LessonStep(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		return &models.FetchResult{
			Item:   item,
			Body:   raw,
			Page:   page,
			Assets: collectAssets(item, page),
		}, nil

	case models.KindSubjectIntro:
		subject := f.tree.Subject(item.SubjectID)
		if subject == nil {
			return nil, apperrors.Newf(apperrors.ErrorTypeDiscovery,
				"subject %d missing from tree", item.SubjectID)
		}
		return &models.FetchResult{
			Item:    item,
			Body:    subject.Raw,
			Subject: subject,
		}, nil

	case models.KindDocument, models.KindAsset:
		body, contentType, err := f.client.Download(ctx, item.RemoteLocator)
		if err != nil {
			return nil, err
		}
		return &models.FetchResult{
			Item:        item,
			Body:        body,
			ContentType: contentType,
		}, nil

	default:
		return nil, apperrors.Newf(apperrors.ErrorTypeUnknown,
			"cannot fetch item of kind %q", item.Kind)
	}
}

// collectAssets lists the downloadable sub-resources embedded in a lesson
// page. Repeated references to the same photo or document are deduplicated.
// Videos stay behind their streaming URLs and are only linked, never
// downloaded.
func collectAssets(parent *models.MaterialItem, page *models.LessonPage) []*models.MaterialItem {
	var assets []*models.MaterialItem
	seen := make(map[string]bool)

	addPhoto := func(photo models.Photo) {
		if photo.URL == "" {
			return
		}
		item := &models.MaterialItem{
			ID:            photo.ID,
			SubjectID:     parent.SubjectID,
			LessonID:      parent.LessonID,
			Kind:          models.KindAsset,
			RemoteLocator: photo.URL,
			TreeIndex:     parent.TreeIndex,
			SubIndex:      photo.ID,
		}
		if seen[item.Key()] {
			return
		}
		seen[item.Key()] = true
		assets = append(assets, item)
	}

	addDocument := func(doc models.DocumentRef) {
		if doc.Path == "" {
			return
		}
		item := &models.MaterialItem{
			ID:            doc.ID,
			SubjectID:     parent.SubjectID,
			LessonID:      parent.LessonID,
			Title:         doc.Title,
			Kind:          models.KindDocument,
			RemoteLocator: doc.Path,
			TreeIndex:     parent.TreeIndex,
			SubIndex:      doc.ID,
		}
		if seen[item.Key()] {
			return
		}
		seen[item.Key()] = true
		assets = append(assets, item)
	}

	for _, photo := range page.Photos {
		addPhoto(photo)
	}
	for _, doc := range page.Documents {
		addDocument(doc)
	}
	for _, section := range page.Sections {
		for _, photo := range section.Photos {
			addPhoto(photo)
		}
		for _, doc := range section.Documents {
			addDocument(doc)
		}
	}
	return assets
}
