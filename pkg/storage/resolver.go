package storage

import (
	"fmt"
	"path/filepath"

	apperrors "lxpfetch/pkg/errors"
	"lxpfetch/pkg/models"
)

// Resolver maps material items to output paths relative to the run's root
// directory. The layout is a pure function of the discovered tree, so
// repeat runs resolve to the same paths and overwrite in place instead of
// piling up copies.
//
// Layout:
//
//	<title code id>/intro.md
//	<title code id>/assets/photo_<id>.jpg
//	<title code id>/assets/document_<id>.pdf
//	<title code id>/01 <lesson>/<step title>-<id>.md
type Resolver struct {
	format      models.Format
	subjectDirs map[int64]string
	lessonDirs  map[int64]string
}

// NewResolver builds the directory layout for a discovered tree
func NewResolver(tree *models.ContentTree, format models.Format) *Resolver {
	r := &Resolver{
		format:      format,
		subjectDirs: make(map[int64]string),
		lessonDirs:  make(map[int64]string),
	}

	for _, subject := range tree.Subjects {
		if subject.Err != nil {
			continue
		}
		dir := SanitizeName(fmt.Sprintf("%s %s %d", subject.Title, subject.Code, subject.ID))
		r.subjectDirs[subject.ID] = dir
		for _, lesson := range subject.Lessons {
			name := fmt.Sprintf("%02d %s", lesson.Ordinal+1, SanitizeName(lesson.Title))
			r.lessonDirs[lesson.ID] = filepath.Join(dir, name)
		}
	}

	return r
}

// ItemPath resolves where an item's converted content belongs. Lesson page
// titles are only known after the page is fetched, so the caller passes the
// title in; for other kinds it is ignored.
func (r *Resolver) ItemPath(item *models.MaterialItem, title string) (string, error) {
	switch item.Kind {
	case models.KindSubjectIntro:
		dir, ok := r.subjectDirs[item.SubjectID]
		if !ok {
			return "", apperrors.Newf(apperrors.ErrorTypeWrite, "no output directory for subject %d", item.SubjectID)
		}
		return filepath.Join(dir, "intro"+r.format.Ext()), nil

	case models.KindLessonPage:
		dir, ok := r.lessonDirs[item.LessonID]
		if !ok {
			return "", apperrors.Newf(apperrors.ErrorTypeWrite, "no output directory for lesson %d", item.LessonID)
		}
		name := title
		if name == "" {
			name = "lesson"
		}
		filename := fmt.Sprintf("%s-%d%s", SanitizeName(name), item.ID, r.format.Ext())
		return filepath.Join(dir, filename), nil

	case models.KindDocument, models.KindAsset:
		dir, ok := r.subjectDirs[item.SubjectID]
		if !ok {
			return "", apperrors.Newf(apperrors.ErrorTypeWrite, "no output directory for subject %d", item.SubjectID)
		}
		return filepath.Join(dir, "assets", AssetFileName(item.Kind, item.ID, item.RemoteLocator)), nil

	default:
		return "", apperrors.Newf(apperrors.ErrorTypeWrite, "unknown item kind %q", item.Kind)
	}
}
