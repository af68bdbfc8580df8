package models

import (
	"errors"
	"testing"
	"time"
)

func buildTree() *ContentTree {
	healthy := &Subject{
		ID:    1,
		Title: "Networks",
		Intro: &MaterialItem{ID: 1, SubjectID: 1, Kind: KindSubjectIntro, TreeIndex: 0},
		Lessons: []*Lesson{
			{
				ID: 10, SubjectID: 1, Title: "Intro", Ordinal: 0,
				Items: []*MaterialItem{
					{ID: 101, SubjectID: 1, LessonID: 10, Kind: KindLessonPage, TreeIndex: 1},
				},
			},
			{
				ID: 11, SubjectID: 1, Title: "Routing", Ordinal: 1,
				Items: []*MaterialItem{
					{ID: 102, SubjectID: 1, LessonID: 11, Kind: KindLessonPage, TreeIndex: 2},
				},
			},
		},
	}
	broken := &Subject{ID: 2, Title: "Databases", Err: errors.New("detail fetch failed")}

	return &ContentTree{Subjects: []*Subject{healthy, broken}}
}

func TestContentTreeItems(t *testing.T) {
	tree := buildTree()

	items := tree.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Kind != KindSubjectIntro {
		t.Errorf("first item should be the subject intro, got %v", items[0].Kind)
	}

	// Degraded subjects contribute nothing.
	for _, item := range items {
		if item.SubjectID == 2 {
			t.Errorf("item %d belongs to a degraded subject", item.ID)
		}
	}

	// Tree order is preserved.
	for i := 1; i < len(items); i++ {
		if items[i].TreeIndex <= items[i-1].TreeIndex {
			t.Errorf("items out of tree order at %d", i)
		}
	}
}

func TestContentTreeLookups(t *testing.T) {
	tree := buildTree()

	if s := tree.Subject(1); s == nil || s.Title != "Networks" {
		t.Errorf("Subject(1) = %+v", s)
	}
	if s := tree.Subject(99); s != nil {
		t.Errorf("Subject(99) should be nil, got %+v", s)
	}

	degraded := tree.Degraded()
	if len(degraded) != 1 || degraded[0].ID != 2 {
		t.Errorf("Degraded() = %+v", degraded)
	}
}

func TestMaterialItemKey(t *testing.T) {
	photo := &MaterialItem{ID: 42, Kind: KindAsset}
	doc := &MaterialItem{ID: 42, Kind: KindDocument}

	if photo.Key() == doc.Key() {
		t.Error("items of different kinds must have different keys")
	}
	if photo.Key() != "asset/42" {
		t.Errorf("Key() = %q", photo.Key())
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{"html", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if FormatMarkdown.Ext() != ".md" || FormatJSON.Ext() != ".json" {
		t.Error("unexpected format extensions")
	}
}

func TestRunReportCounters(t *testing.T) {
	report := NewRunReport()
	if report.RunID == "" {
		t.Error("expected a run id")
	}

	report.Add(Outcome{Item: &MaterialItem{ID: 1}, Status: StatusWritten})
	report.Add(Outcome{Item: &MaterialItem{ID: 2}, Status: StatusSkipped})
	report.Add(Outcome{Item: &MaterialItem{ID: 3}, Status: StatusFailed, Err: errors.New("boom")})
	report.Add(Outcome{Item: &MaterialItem{ID: 4}, Status: StatusCancelled})

	if report.Written != 1 || report.Skipped != 1 || report.Failed != 1 || report.Cancelled != 1 {
		t.Errorf("counters = %d/%d/%d/%d", report.Written, report.Skipped, report.Failed, report.Cancelled)
	}
	if !report.HasFailures() {
		t.Error("expected HasFailures with a failed item")
	}
}

func TestRunReportFinishSortsTreeOrder(t *testing.T) {
	report := NewRunReport()

	// Completion order is scrambled on purpose.
	report.Add(Outcome{Item: &MaterialItem{ID: 3, TreeIndex: 2}, Status: StatusWritten})
	report.Add(Outcome{Item: &MaterialItem{ID: 21, TreeIndex: 1, SubIndex: 7}, Status: StatusWritten})
	report.Add(Outcome{Item: &MaterialItem{ID: 1, TreeIndex: 0}, Status: StatusWritten})
	report.Add(Outcome{Item: &MaterialItem{ID: 20, TreeIndex: 1, SubIndex: 2}, Status: StatusWritten})

	report.Finish()

	if report.FinishedAt.IsZero() {
		t.Error("Finish should stamp the end time")
	}
	if report.Duration() < 0 || report.Duration() > time.Minute {
		t.Errorf("unreasonable duration %v", report.Duration())
	}

	gotIDs := make([]int64, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		gotIDs = append(gotIDs, o.Item.ID)
	}
	want := []int64{1, 20, 21, 3}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("order = %v, want %v", gotIDs, want)
		}
	}
}
