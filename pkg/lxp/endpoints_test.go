package lxp

import "testing"

func TestSubjectsPath(t *testing.T) {
	got := SubjectsPath(42, 3)
	want := "/api/v2/users/42/subjects?page=3&role=student"
	if got != want {
		t.Errorf("SubjectsPath(42, 3) = %q, want %q", got, want)
	}
}

func TestSubjectPath(t *testing.T) {
	got := SubjectPath(7)
	if got != "/api/v2/subjects/7" {
		t.Errorf("SubjectPath(7) = %q", got)
	}
}

func TestLessonPath(t *testing.T) {
	got := LessonPath(11)
	if got != "/api/v2/lessons/11" {
		t.Errorf("LessonPath(11) = %q", got)
	}
}

func TestIsAbsoluteLocator(t *testing.T) {
	tests := []struct {
		locator string
		want    bool
	}{
		{"https://cdn.example.com/file.pdf", true},
		{"http://cdn.example.com/file.pdf", true},
		{"/storage/docs/601.pdf", false},
		{"storage/docs/601.pdf", false},
		{"", false},
		{"ftp://cdn.example.com/file.pdf", false},
	}

	for _, tt := range tests {
		if got := IsAbsoluteLocator(tt.locator); got != tt.want {
			t.Errorf("IsAbsoluteLocator(%q) = %v, want %v", tt.locator, got, tt.want)
		}
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		locator string
		want    string
	}{
		{
			name:    "relative with slash",
			baseURL: "https://ithub.bulgakov.app",
			locator: "/storage/docs/601.pdf",
			want:    "https://ithub.bulgakov.app/storage/docs/601.pdf",
		},
		{
			name:    "relative without slash",
			baseURL: "https://ithub.bulgakov.app",
			locator: "storage/docs/601.pdf",
			want:    "https://ithub.bulgakov.app/storage/docs/601.pdf",
		},
		{
			name:    "base with trailing slash",
			baseURL: "https://ithub.bulgakov.app/",
			locator: "/storage/docs/601.pdf",
			want:    "https://ithub.bulgakov.app/storage/docs/601.pdf",
		},
		{
			name:    "absolute passes through",
			baseURL: "https://ithub.bulgakov.app",
			locator: "https://cdn.example.com/file.pdf",
			want:    "https://cdn.example.com/file.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinURL(tt.baseURL, tt.locator); got != tt.want {
				t.Errorf("JoinURL(%q, %q) = %q, want %q", tt.baseURL, tt.locator, got, tt.want)
			}
		})
	}
}
