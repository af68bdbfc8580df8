package models

import "strconv"

// Kind tells the pipeline how to fetch and convert a material item
type Kind string

const (
	// KindLessonPage is a structured lesson step with text, photos, links,
	// videos and documents.
	KindLessonPage Kind = "lesson_page"
	// KindSubjectIntro is the synthetic overview page written per subject.
	KindSubjectIntro Kind = "subject_intro"
	// KindDocument is an attached file downloaded verbatim.
	KindDocument Kind = "document"
	// KindAsset is an embedded image downloaded verbatim.
	KindAsset Kind = "asset"
)

// Credentials carries the login pair for the platform
type Credentials struct {
	Login    string
	Password string
}

// Session is the authenticated state shared by all requests
type Session struct {
	UserID int64
	// Generation increments on every successful login, so callers can tell
	// whether someone else already refreshed an expired session.
	Generation uint64
}

// Subject is one course the authenticated user is enrolled in
type Subject struct {
	ID          int64
	Code        string
	Title       string
	Description string
	Teachers    []string
	Groups      []string
	// Intro is the synthetic overview item rendered once per subject.
	Intro   *MaterialItem
	Lessons []*Lesson
	// Err records why this subtree could not be discovered. A subject with
	// Err set has no lessons and is skipped by the download phase.
	Err error
	// Raw is the untouched detail payload, kept for the JSON output mode.
	Raw []byte
}

// Lesson is a chapter within a subject
type Lesson struct {
	ID        int64
	SubjectID int64
	Title     string
	// Ordinal is the zero-based position within the subject, used for
	// stable directory naming.
	Ordinal int
	Items   []*MaterialItem
}

// MaterialItem is a single downloadable unit
type MaterialItem struct {
	ID        int64
	SubjectID int64
	LessonID  int64
	// Title may be empty for lesson pages until the page is fetched; the
	// listing payload does not carry step titles.
	Title string
	Kind  Kind
	// RemoteLocator is where the content lives: an API path for pages, an
	// absolute or relative URL for documents and assets.
	RemoteLocator string
	// SizeHint is the expected byte size when the platform reports one,
	// zero otherwise.
	SizeHint int64
	// TreeIndex is the item's position in discovery order, used to keep
	// reports in tree order regardless of completion order.
	TreeIndex int
	// SubIndex orders sub-resources hatched from the same lesson page.
	SubIndex int64
}

// Key returns a stable identity for deduplication across the run
func (m *MaterialItem) Key() string {
	return string(m.Kind) + "/" + strconv.FormatInt(m.ID, 10)
}

// ContentTree is the discovered hierarchy for one run
type ContentTree struct {
	Subjects []*Subject
}

// Items returns every downloadable item in tree order
func (t *ContentTree) Items() []*MaterialItem {
	var items []*MaterialItem
	for _, subject := range t.Subjects {
		if subject.Err != nil {
			continue
		}
		if subject.Intro != nil {
			items = append(items, subject.Intro)
		}
		for _, lesson := range subject.Lessons {
			items = append(items, lesson.Items...)
		}
	}
	return items
}

// Subject finds a subject by id
func (t *ContentTree) Subject(id int64) *Subject {
	for _, subject := range t.Subjects {
		if subject.ID == id {
			return subject
		}
	}
	return nil
}

// Degraded returns the subjects whose discovery failed
func (t *ContentTree) Degraded() []*Subject {
	var degraded []*Subject
	for _, subject := range t.Subjects {
		if subject.Err != nil {
			degraded = append(degraded, subject)
		}
	}
	return degraded
}

// LessonPage is the structured content of one lesson step
type LessonPage struct {
	ID          int64
	Title       string
	PublicHTML  string
	PrivateHTML string
	Photos      []Photo
	Links       []LinkRef
	Videos      []VideoRef
	Documents   []DocumentRef
	Sections    []Section
}

// Photo is an embedded image reference
type Photo struct {
	ID  int64
	URL string
}

// LinkRef is an external link attached to a lesson
type LinkRef struct {
	Title string
	URL   string
}

// VideoRef is a video attached to a lesson
type VideoRef struct {
	Title string
	URL   string
}

// DocumentRef is a downloadable document attached to a lesson
type DocumentRef struct {
	ID    int64
	Path  string
	Title string
}

// Section is an extra titled block of lesson content
type Section struct {
	Title     string
	HTML      string
	Photos    []Photo
	Links     []LinkRef
	Videos    []VideoRef
	Documents []DocumentRef
}

// FetchResult is what the fetcher hands to the converter
type FetchResult struct {
	Item *MaterialItem
	// Body is the raw response for documents, assets and JSON mode.
	Body        []byte
	ContentType string
	// Page is set for lesson pages.
	Page *LessonPage
	// Subject is set for subject intros.
	Subject *Subject
	// Assets are the sub-resources discovered inside a lesson page.
	Assets []*MaterialItem
}
