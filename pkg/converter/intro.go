package converter

import (
	"strings"

	"lxpfetch/pkg/models"
)

// renderSubjectIntro lays out the subject overview as Markdown: title, code,
// the description as a quoted block, then teachers and groups.
func renderSubjectIntro(subject *models.Subject) ([]byte, error) {
	var blocks []string

	if subject.Title != "" {
		blocks = append(blocks, "# "+subject.Title)
	}
	if subject.Code != "" {
		blocks = append(blocks, "## "+subject.Code)
	}

	md, err := htmlToMarkdown(subject.Description, nil)
	if err != nil {
		return nil, err
	}
	if md != "" {
		blocks = append(blocks, "### О чём эта дисциплина?")
		blocks = append(blocks, quoteLines(strings.TrimRight(md, "\n")))
	}

	if len(subject.Teachers) > 0 {
		blocks = append(blocks, "### Преподаватели:")
		blocks = append(blocks, strings.Join(subject.Teachers, "\n"))
	}

	if len(subject.Groups) > 0 {
		lines := make([]string, 0, len(subject.Groups))
		for _, group := range subject.Groups {
			lines = append(lines, "- "+group)
		}
		blocks = append(blocks, "### Группы:")
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	if len(blocks) == 0 {
		return []byte{}, nil
	}
	return []byte(strings.Join(blocks, "\n\n") + "\n"), nil
}
