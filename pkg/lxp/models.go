package lxp

import (
	"encoding/json"
	"strings"

	"lxpfetch/pkg/models"
)

// envelope is the error shape the platform uses for non-2xx responses
type envelope struct {
	Message string `json:"message"`
}

// signInResponse is the payload of a successful sign-in
type signInResponse struct {
	Token string `json:"token"`
	Data  struct {
		ID int64 `json:"id"`
	} `json:"data"`
}

// subjectsPageResponse is one page of the paginated subject listing
type subjectsPageResponse struct {
	Data struct {
		Data     []subjectListItem `json:"data"`
		LastPage int               `json:"last_page"`
	} `json:"data"`
}

type subjectListItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// subjectResponse wraps the subject detail payload. Raw is kept around for
// the JSON output mode.
type subjectResponse struct {
	Data json.RawMessage `json:"data"`
}

type subjectPayload struct {
	Code        string           `json:"code"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Teachers    []teacherPayload `json:"teachers"`
	Groups      []groupPayload   `json:"groups"`
	Chapters    []chapterPayload `json:"chapters"`
	Steps       []stepPayload    `json:"steps"`
}

type teacherPayload struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	MiddleName string `json:"middle_name"`
}

// fullName joins the name parts the platform provides, skipping empty ones
func (t teacherPayload) fullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.FirstName, t.LastName, t.MiddleName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

type groupPayload struct {
	Name string `json:"name"`
}

type chapterPayload struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type stepPayload struct {
	ID        int64 `json:"id"`
	ChapterID int64 `json:"chapter_id"`
	Hidden    bool  `json:"hidden"`
}

// lessonResponse wraps the lesson step payload
type lessonResponse struct {
	Data json.RawMessage `json:"data"`
}

type lessonPayload struct {
	Title            string            `json:"title"`
	PublicText       string            `json:"public_text"`
	PublicPhotos     []photoPayload    `json:"public_photos"`
	PrivateText      string            `json:"private_text"`
	PrivateLinks     []linkPayload     `json:"private_links"`
	PrivateVideos    []videoPayload    `json:"private_videos"`
	PrivateDocuments []documentPayload `json:"private_documents"`
	Sections         []sectionPayload  `json:"sections"`
}

type photoPayload struct {
	ID     int64  `json:"id"`
	Normal string `json:"normal"`
}

type linkPayload struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type videoPayload struct {
	Description string `json:"description"`
	Path        string `json:"path"`
}

type documentPayload struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

type sectionPayload struct {
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Photos    []photoPayload    `json:"photos"`
	Links     []linkPayload     `json:"links"`
	Videos    []videoPayload    `json:"videos"`
	Documents []documentPayload `json:"documents"`
}

// SubjectListEntry is one row of the subject listing
type SubjectListEntry struct {
	ID    int64
	Title string
}

// Chapter is a subject chapter as the platform reports it
type Chapter struct {
	ID    int64
	Title string
}

// Step is a lesson step reference inside a subject. The listing carries no
// titles; those only exist on the lesson payload itself.
type Step struct {
	ID        int64
	ChapterID int64
	Hidden    bool
}

// SubjectDetail is the decoded subject payload plus the raw bytes
type SubjectDetail struct {
	Subject  *models.Subject
	Chapters []Chapter
	Steps    []Step
	Raw      []byte
}

// toLessonPage converts the wire payload into the domain model
func (p *lessonPayload) toLessonPage(stepID int64) *models.LessonPage {
	page := &models.LessonPage{
		ID:          stepID,
		Title:       p.Title,
		PublicHTML:  p.PublicText,
		PrivateHTML: p.PrivateText,
	}
	for _, photo := range p.PublicPhotos {
		page.Photos = append(page.Photos, models.Photo{ID: photo.ID, URL: photo.Normal})
	}
	for _, link := range p.PrivateLinks {
		page.Links = append(page.Links, models.LinkRef{Title: link.Title, URL: link.URL})
	}
	for _, video := range p.PrivateVideos {
		page.Videos = append(page.Videos, models.VideoRef{Title: video.Description, URL: video.Path})
	}
	for _, doc := range p.PrivateDocuments {
		page.Documents = append(page.Documents, models.DocumentRef{ID: doc.ID, Path: doc.Path, Title: doc.Description})
	}
	for _, section := range p.Sections {
		page.Sections = append(page.Sections, section.toSection())
	}
	return page
}

func (s *sectionPayload) toSection() models.Section {
	section := models.Section{
		Title: s.Title,
		HTML:  s.Content,
	}
	for _, photo := range s.Photos {
		section.Photos = append(section.Photos, models.Photo{ID: photo.ID, URL: photo.Normal})
	}
	for _, link := range s.Links {
		section.Links = append(section.Links, models.LinkRef{Title: link.Title, URL: link.URL})
	}
	for _, video := range s.Videos {
		section.Videos = append(section.Videos, models.VideoRef{Title: video.Description, URL: video.Path})
	}
	for _, doc := range s.Documents {
		section.Documents = append(section.Documents, models.DocumentRef{ID: doc.ID, Path: doc.Path, Title: doc.Description})
	}
	return section
}

// toSubject converts the wire payload into the domain model
func (p *subjectPayload) toSubject(subjectID int64, raw []byte) *models.Subject {
	subject := &models.Subject{
		ID:          subjectID,
		Code:        p.Code,
		Title:       p.Title,
		Description: p.Description,
		Raw:         raw,
	}
	for _, teacher := range p.Teachers {
		if name := teacher.fullName(); name != "" {
			subject.Teachers = append(subject.Teachers, name)
		}
	}
	for _, group := range p.Groups {
		if group.Name != "" {
			subject.Groups = append(subject.Groups, group.Name)
		}
	}
	return subject
}
