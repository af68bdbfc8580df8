package crawler

import (
	"context"
	"fmt"

	"lxpfetch/pkg/config"
	apperrors "lxpfetch/pkg/errors"
	"lxpfetch/pkg/logger"
	"lxpfetch/pkg/lxp"
	"lxpfetch/pkg/models"
	"lxpfetch/pkg/retry"
)

// Discoverer walks the platform's content hierarchy and builds the tree of
// material items for one run.
type Discoverer struct {
	client   *lxp.Client
	retryCfg *retry.Config
	logger   logger.Logger
}

// NewDiscoverer creates a discoverer bound to an authenticated client
func NewDiscoverer(client *lxp.Client, cfg *config.Config, log logger.Logger) *Discoverer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Discoverer{
		client:   client,
		retryCfg: RetryConfig(cfg, log),
		logger:   log,
	}
}

// ListSubjects returns every subject the authenticated user is enrolled in.
// A listing failure is fatal for discovery since there is no tree to build
// without it.
func (d *Discoverer) ListSubjects(ctx context.Context) ([]lxp.SubjectListEntry, error) {
	var all []lxp.SubjectListEntry
	page := 1
	for {
		entries, lastPage, err := d.subjectsPage(ctx, page)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrorTypeDiscovery,
				fmt.Sprintf("failed to list subjects (page %d)", page), err)
		}
		all = append(all, entries...)

		d.logger.DebugWithFields("subject listing page fetched", map[string]interface{}{
			"page":      page,
			"last_page": lastPage,
			"entries":   len(entries),
		})

		if page >= lastPage {
			return all, nil
		}
		page++
	}
}

type subjectsPage struct {
	entries  []lxp.SubjectListEntry
	lastPage int
}

func (d *Discoverer) subjectsPage(ctx context.Context, page int) ([]lxp.SubjectListEntry, int, error) {
	result, err := retry.DoWithResult(ctx, func() (subjectsPage, error) {
		return lxp.Reauth(ctx, d.client, func() (subjectsPage, error) {
			entries, lastPage, err := d.client.SubjectsPage(ctx, page)
			return subjectsPage{entries: entries, lastPage: lastPage}, err
		})
	}, d.retryCfg)
	return result.entries, result.lastPage, err
}

// Discover builds the content tree. A subjectID of zero means every enrolled
// subject. A subject whose detail cannot be fetched keeps its slot in the
// tree with Err recorded so the rest of the run can proceed.
func (d *Discoverer) Discover(ctx context.Context, subjectID int64) (*models.ContentTree, error) {
	var targets []lxp.SubjectListEntry
	if subjectID > 0 {
		targets = []lxp.SubjectListEntry{{ID: subjectID}}
	} else {
		entries, err := d.ListSubjects(ctx)
		if err != nil {
			return nil, err
		}
		targets = entries
		d.logger.InfoWithFields("subjects discovered", map[string]interface{}{
			"count": len(entries),
		})
	}

	tree := &models.ContentTree{}
	for _, entry := range targets {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrorTypeCancelled, "discovery cancelled", err)
		}

		subject, err := d.discoverSubject(ctx, entry.ID)
		if err != nil {
			if apperrors.IsFatal(err) || apperrors.IsType(err, apperrors.ErrorTypeCancelled) {
				return nil, err
			}
			d.logger.WarnWithFields("subject discovery failed", map[string]interface{}{
				"subject_id": entry.ID,
				"title":      entry.Title,
				"error":      err.Error(),
			})
			tree.Subjects = append(tree.Subjects, &models.Subject{
				ID:    entry.ID,
				Title: entry.Title,
				Err: apperrors.Wrap(apperrors.ErrorTypeDiscovery,
					fmt.Sprintf("subject %d discovery failed", entry.ID), err),
			})
			continue
		}
		tree.Subjects = append(tree.Subjects, subject)
	}

	assignTreeIndexes(tree)
	return tree, nil
}

func (d *Discoverer) discoverSubject(ctx context.Context, subjectID int64) (*models.Subject, error) {
	detail, err := retry.DoWithResult(ctx, func() (*lxp.SubjectDetail, error) {
		return lxp.Reauth(ctx, d.client, func() (*lxp.SubjectDetail, error) {
			return d.client.Subject(ctx, subjectID)
		})
	}, d.retryCfg)
	if err != nil {
		return nil, err
	}

	subject := d.buildSubject(detail)

	items := 0
	for _, lesson := range subject.Lessons {
		items += len(lesson.Items)
	}
	d.logger.DebugWithFields("subject discovered", map[string]interface{}{
		"subject_id": subject.ID,
		"title":      subject.Title,
		"lessons":    len(subject.Lessons),
		"steps":      items,
	})
	return subject, nil
}

// buildSubject assembles the lesson skeleton from the chapter and step lists.
// Step titles are not known yet; the lesson payload carries those.
func (d *Discoverer) buildSubject(detail *lxp.SubjectDetail) *models.Subject {
	subject := detail.Subject

	subject.Intro = &models.MaterialItem{
		ID:        subject.ID,
		SubjectID: subject.ID,
		Title:     subject.Title,
		Kind:      models.KindSubjectIntro,
	}

	lessons := make(map[int64]*models.Lesson, len(detail.Chapters))
	for i, chapter := range detail.Chapters {
		lesson := &models.Lesson{
			ID:        chapter.ID,
			SubjectID: subject.ID,
			Title:     chapter.Title,
			Ordinal:   i,
		}
		lessons[chapter.ID] = lesson
		subject.Lessons = append(subject.Lessons, lesson)
	}

	seen := make(map[int64]bool, len(detail.Steps))
	for _, step := range detail.Steps {
		if step.Hidden {
			continue
		}
		lesson, ok := lessons[step.ChapterID]
		if !ok {
			d.logger.WarnWithFields("step references unknown chapter", map[string]interface{}{
				"subject_id": subject.ID,
				"step_id":    step.ID,
				"chapter_id": step.ChapterID,
			})
			continue
		}
		if seen[step.ID] {
			d.logger.WarnWithFields("duplicate step dropped", map[string]interface{}{
				"subject_id": subject.ID,
				"step_id":    step.ID,
			})
			continue
		}
		seen[step.ID] = true

		lesson.Items = append(lesson.Items, &models.MaterialItem{
			ID:            step.ID,
			SubjectID:     subject.ID,
			LessonID:      lesson.ID,
			Kind:          models.KindLessonPage,
			RemoteLocator: lxp.LessonPath(step.ID),
		})
	}

	return subject
}

// assignTreeIndexes stamps discovery order onto every item so reports can be
// sorted back into tree order after concurrent processing.
func assignTreeIndexes(tree *models.ContentTree) {
	for i, item := range tree.Items() {
		item.TreeIndex = i
	}
}
