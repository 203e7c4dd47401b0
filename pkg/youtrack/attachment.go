package youtrack

import (
	"strconv"
	"time"
)

// Attachment is a file attached to an issue. The zero value is an empty
// attachment; hydrated values are never modified after construction.
type Attachment struct {
	id          string
	url         string
	name        string
	authorLogin string
	group       string

	createdMillis int64
	hasCreated    bool
}

// NewAttachmentFromRecord hydrates an Attachment from a single tracker record.
// Absent attributes keep their zero value; a created attribute that is not an
// integer is treated as absent.
func NewAttachmentFromRecord(record Record) Attachment {
	var a Attachment

	a.url, _ = record.Attr("url")
	a.id, _ = record.Attr("id")
	a.name, _ = record.Attr("name")
	a.authorLogin, _ = record.Attr("authorLogin")
	a.group, _ = record.Attr("group")

	if raw, ok := record.Attr("created"); ok {
		if millis, err := strconv.ParseInt(raw, 10, 64); err == nil {
			a.createdMillis = millis
			a.hasCreated = true
		}
	}

	return a
}

// URL returns the download URL of the attachment
func (a Attachment) URL() string {
	return a.url
}

// ID returns the tracker identifier, e.g. "62-180"
func (a Attachment) ID() string {
	return a.id
}

// Name returns the file name
func (a Attachment) Name() string {
	return a.name
}

// AuthorLogin returns the login of the user who attached the file
func (a Attachment) AuthorLogin() string {
	return a.authorLogin
}

// Group returns the visibility group
func (a Attachment) Group() string {
	return a.group
}

// Created returns the creation instant in the process's current local zone.
// time.Local is consulted on every call, so changing it between calls
// changes the rendered wall clock.
func (a Attachment) Created() (time.Time, bool) {
	if !a.hasCreated {
		return time.Time{}, false
	}
	return time.UnixMilli(a.createdMillis).In(time.Local), true
}

// CreatedMillis returns the raw epoch milliseconds, or 0 when absent.
func (a Attachment) CreatedMillis() int64 {
	return a.createdMillis
}
