// Package youtrack is a client for the attachment endpoints of the YouTrack
// REST API.
//
// Attachments are hydrated from the XML records the tracker returns and are
// read through accessors. Connection builds request paths and hands them to
// a Requester; HTTPRequester is the net/http implementation, and tests can
// substitute their own.
//
//	requester, err := youtrack.NewHTTPRequester("https://tracker.example.com/rest",
//		youtrack.WithToken(token))
//	if err != nil {
//		return err
//	}
//	conn := youtrack.NewConnection(requester)
//	_, err = conn.CreateAttachment(ctx, "TEST-123", "build.log",
//		youtrack.CreateAttachmentParams{Name: "build.log"})
package youtrack
