package lxp

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// SignInEndpoint authenticates a login pair and returns a bearer token
	SignInEndpoint = "/api/v2/auth/sign-in"

	// SubjectsEndpoint is the endpoint pattern for a user's subject listing
	SubjectsEndpoint = "/api/v2/users/%d/subjects"

	// SubjectEndpoint is the endpoint pattern for one subject's detail
	SubjectEndpoint = "/api/v2/subjects/%d"

	// LessonEndpoint is the endpoint pattern for one lesson step
	LessonEndpoint = "/api/v2/lessons/%d"

	// StudentRole scopes the subject listing to the student's own courses
	StudentRole = "student"
)

// SubjectsPath constructs the path for one page of the subject listing
func SubjectsPath(userID int64, page int) string {
	params := url.Values{}
	params.Set("role", StudentRole)
	params.Set("page", fmt.Sprintf("%d", page))

	return fmt.Sprintf(SubjectsEndpoint, userID) + "?" + params.Encode()
}

// SubjectPath constructs the path for a subject's detail payload
func SubjectPath(subjectID int64) string {
	return fmt.Sprintf(SubjectEndpoint, subjectID)
}

// LessonPath constructs the path for a lesson step payload
func LessonPath(stepID int64) string {
	return fmt.Sprintf(LessonEndpoint, stepID)
}

// IsAbsoluteLocator reports whether a locator points outside the platform.
// Absolute locators are fetched without authentication; relative ones are
// resolved against the platform base URL with the bearer token attached.
func IsAbsoluteLocator(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// JoinURL resolves a relative locator against the platform base URL
func JoinURL(baseURL, locator string) string {
	if IsAbsoluteLocator(locator) {
		return locator
	}
	if !strings.HasPrefix(locator, "/") {
		locator = "/" + locator
	}
	return strings.TrimRight(baseURL, "/") + locator
}
