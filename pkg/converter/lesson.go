package converter

import (
	"fmt"
	"strings"

	"lxpfetch/pkg/models"
	"lxpfetch/pkg/storage"
)

// Part headings mirror the platform's lesson layout: the public block
// motivates the topic, the private block carries the actual material.
const (
	publicHeading  = "### Зачем это учить??"
	privateHeading = "### Как это учить???"
)

// assetRef is the Markdown path of a downloaded asset as seen from a lesson
// file, which lives one directory below the subject root
func assetRef(kind models.Kind, id int64, locator string) string {
	return "../assets/" + storage.AssetFileName(kind, id, locator)
}

// renderLessonPage lays out one lesson as Markdown. Photos and documents
// are referenced by their downloaded local copies; embedded image URLs the
// platform also lists as photos are rewritten to those copies too.
func renderLessonPage(page *models.LessonPage) ([]byte, error) {
	rewrite := photoRewriter(page)

	var blocks []string
	if page.Title != "" {
		blocks = append(blocks, "# "+page.Title)
	}

	part, err := partBlocks(publicHeading, page.PublicHTML, rewrite, page.Photos, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	blocks = append(blocks, part...)

	part, err = partBlocks(privateHeading, page.PrivateHTML, rewrite, nil, page.Links, page.Videos, page.Documents)
	if err != nil {
		return nil, err
	}
	blocks = append(blocks, part...)

	for _, section := range page.Sections {
		heading := ""
		if section.Title != "" {
			heading = "### " + section.Title
		}
		part, err = partBlocks(heading, section.HTML, rewrite, section.Photos, section.Links, section.Videos, section.Documents)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, part...)
	}

	if len(blocks) == 0 {
		return []byte{}, nil
	}
	return []byte(strings.Join(blocks, "\n\n") + "\n"), nil
}

// partBlocks renders one lesson part. The heading is only emitted when the
// part has any content, so empty platform fields do not leave stray
// headings behind.
func partBlocks(heading, src string, rewrite func(string) string, photos []models.Photo, links []models.LinkRef, videos []models.VideoRef, documents []models.DocumentRef) ([]string, error) {
	var content []string

	md, err := htmlToMarkdown(src, rewrite)
	if err != nil {
		return nil, err
	}
	if md != "" {
		content = append(content, strings.TrimRight(md, "\n"))
	}
	if refs := photoRefs(photos); refs != "" {
		content = append(content, refs)
	}
	if refs := linkRefs(links, videos, documents); refs != "" {
		content = append(content, refs)
	}

	if len(content) == 0 {
		return nil, nil
	}
	if heading != "" {
		return append([]string{heading}, content...), nil
	}
	return content, nil
}

// photoRefs lists lesson photos as image references to their local copies
func photoRefs(photos []models.Photo) string {
	var lines []string
	for _, photo := range photos {
		lines = append(lines, fmt.Sprintf("![%d](%s)", photo.ID, assetRef(models.KindAsset, photo.ID, photo.URL)))
	}
	return strings.Join(lines, "\n")
}

// linkRefs lists external links, videos and downloaded documents
func linkRefs(links []models.LinkRef, videos []models.VideoRef, documents []models.DocumentRef) string {
	var lines []string
	for _, link := range links {
		lines = append(lines, fmt.Sprintf("[Ссылка: %s](%s)", link.Title, link.URL))
	}
	for _, video := range videos {
		lines = append(lines, fmt.Sprintf("[Видео: %s](%s)", video.Title, video.URL))
	}
	for _, doc := range documents {
		label := doc.Title
		if label == "" {
			label = fmt.Sprintf("%d", doc.ID)
		}
		lines = append(lines, fmt.Sprintf("[Документ %s](%s)", label, assetRef(models.KindDocument, doc.ID, doc.Path)))
	}
	return strings.Join(lines, "\n")
}

// photoRewriter maps platform photo URLs embedded in lesson HTML to the
// local copies those photos are downloaded as
func photoRewriter(page *models.LessonPage) func(string) string {
	local := make(map[string]string)
	for _, photo := range page.Photos {
		local[photo.URL] = assetRef(models.KindAsset, photo.ID, photo.URL)
	}
	for _, section := range page.Sections {
		for _, photo := range section.Photos {
			local[photo.URL] = assetRef(models.KindAsset, photo.ID, photo.URL)
		}
	}
	if len(local) == 0 {
		return nil
	}
	return func(src string) string {
		if ref, ok := local[src]; ok {
			return ref
		}
		return src
	}
}
