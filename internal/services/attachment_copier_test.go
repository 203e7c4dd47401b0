package services

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/youtrack-attach/internal/logger"
	"github.com/welldanyogia/youtrack-attach/internal/models"
	"github.com/welldanyogia/youtrack-attach/internal/repository"
	"github.com/welldanyogia/youtrack-attach/pkg/youtrack"
	"github.com/welldanyogia/youtrack-attach/tests/mocks"
)

func newAttachment(id, name string) youtrack.Attachment {
	return youtrack.NewAttachmentFromRecord(youtrack.Record{
		XMLName: xml.Name{Local: "fileUrl"},
		Attrs: []xml.Attr{
			{Name: xml.Name{Local: "id"}, Value: id},
			{Name: xml.Name{Local: "name"}, Value: name},
			{Name: xml.Name{Local: "authorLogin"}, Value: "root"},
			{Name: xml.Name{Local: "url"}, Value: "http://example.com/" + name},
		},
	})
}

func newCopier() (*mocks.MockAttachmentClient, *mocks.MockTransferRepository, AttachmentCopierService) {
	client := new(mocks.MockAttachmentClient)
	journal := new(mocks.MockTransferRepository)
	return client, journal, NewAttachmentCopierService(client, journal, logger.Discard())
}

func TestCopy_Success(t *testing.T) {
	ctx := context.Background()
	client, journal, copier := newCopier()

	first := newAttachment("62-180", "attachment.txt")
	second := newAttachment("62-181", "screenshot.png")

	client.On("GetAttachments", ctx, "SRC-1").Return([]youtrack.Attachment{first, second}, nil)
	journal.On("Exists", ctx, "62-180", "DST-1").Return(false, nil)
	journal.On("Exists", ctx, "62-181", "DST-1").Return(false, nil)
	client.On("CreateAttachmentFromAttachment", ctx, "DST-1", first).Return(&youtrack.Response{StatusCode: 201}, nil).Once()
	client.On("CreateAttachmentFromAttachment", ctx, "DST-1", second).Return(&youtrack.Response{StatusCode: 201}, nil).Once()
	journal.On("Create", ctx, mock.MatchedBy(func(tr *models.Transfer) bool {
		return tr.SourceIssueID == "SRC-1" &&
			tr.TargetIssueID == "DST-1" &&
			tr.AuthorLogin == "root" &&
			(tr.SourceAttachmentID == "62-180" || tr.SourceAttachmentID == "62-181")
	})).Return(nil).Twice()

	report, err := copier.Copy(ctx, "SRC-1", "DST-1", CopyOptions{})

	require.NoError(t, err)
	assert.Equal(t, []string{"62-180", "62-181"}, report.Copied)
	assert.Empty(t, report.Skipped)
	client.AssertExpectations(t)
	journal.AssertExpectations(t)
}

func TestCopy_SkipsJournaledAttachments(t *testing.T) {
	ctx := context.Background()
	client, journal, copier := newCopier()

	first := newAttachment("62-180", "attachment.txt")
	second := newAttachment("62-181", "screenshot.png")

	client.On("GetAttachments", ctx, "SRC-1").Return([]youtrack.Attachment{first, second}, nil)
	journal.On("Exists", ctx, "62-180", "DST-1").Return(true, nil)
	journal.On("Exists", ctx, "62-181", "DST-1").Return(false, nil)
	client.On("CreateAttachmentFromAttachment", ctx, "DST-1", second).Return(&youtrack.Response{StatusCode: 201}, nil).Once()
	journal.On("Create", ctx, mock.Anything).Return(nil).Once()

	report, err := copier.Copy(ctx, "SRC-1", "DST-1", CopyOptions{})

	require.NoError(t, err)
	assert.Equal(t, []string{"62-181"}, report.Copied)
	assert.Equal(t, []string{"62-180"}, report.Skipped)
	client.AssertNotCalled(t, "CreateAttachmentFromAttachment", ctx, "DST-1", first)
	journal.AssertExpectations(t)
}

func TestCopy_ForceIgnoresJournal(t *testing.T) {
	ctx := context.Background()
	client, journal, copier := newCopier()

	first := newAttachment("62-180", "attachment.txt")

	client.On("GetAttachments", ctx, "SRC-1").Return([]youtrack.Attachment{first}, nil)
	client.On("CreateAttachmentFromAttachment", ctx, "DST-1", first).Return(&youtrack.Response{StatusCode: 201}, nil).Once()
	journal.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicateEntry).Once()

	report, err := copier.Copy(ctx, "SRC-1", "DST-1", CopyOptions{Force: true})

	require.NoError(t, err)
	assert.Equal(t, []string{"62-180"}, report.Copied)
	journal.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything)
}

func TestCopy_StopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	client, journal, copier := newCopier()

	first := newAttachment("62-180", "attachment.txt")
	second := newAttachment("62-181", "screenshot.png")
	third := newAttachment("62-182", "partial.log")

	client.On("GetAttachments", ctx, "SRC-1").Return([]youtrack.Attachment{first, second, third}, nil)
	journal.On("Exists", ctx, mock.Anything, "DST-1").Return(false, nil)
	client.On("CreateAttachmentFromAttachment", ctx, "DST-1", first).Return(&youtrack.Response{StatusCode: 201}, nil).Once()
	client.On("CreateAttachmentFromAttachment", ctx, "DST-1", second).Return(nil, youtrack.ErrForbidden).Once()
	journal.On("Create", ctx, mock.Anything).Return(nil).Once()

	report, err := copier.Copy(ctx, "SRC-1", "DST-1", CopyOptions{})

	assert.ErrorIs(t, err, youtrack.ErrForbidden)
	assert.Contains(t, err.Error(), "screenshot.png")
	require.NotNil(t, report)
	assert.Equal(t, []string{"62-180"}, report.Copied)
	client.AssertNotCalled(t, "CreateAttachmentFromAttachment", ctx, "DST-1", third)
}

func TestCopy_JournalFailure(t *testing.T) {
	ctx := context.Background()
	client, journal, copier := newCopier()

	first := newAttachment("62-180", "attachment.txt")

	client.On("GetAttachments", ctx, "SRC-1").Return([]youtrack.Attachment{first}, nil)
	journal.On("Exists", ctx, "62-180", "DST-1").Return(false, nil)
	client.On("CreateAttachmentFromAttachment", ctx, "DST-1", first).Return(&youtrack.Response{StatusCode: 201}, nil).Once()
	journal.On("Create", ctx, mock.Anything).Return(errors.New("database is locked")).Once()

	report, err := copier.Copy(ctx, "SRC-1", "DST-1", CopyOptions{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not journaled")
	assert.Empty(t, report.Copied)
}

func TestCopy_ListFailure(t *testing.T) {
	ctx := context.Background()
	client, _, copier := newCopier()

	client.On("GetAttachments", ctx, "SRC-1").Return(nil, youtrack.ErrNotFound)

	report, err := copier.Copy(ctx, "SRC-1", "DST-1", CopyOptions{})

	assert.ErrorIs(t, err, youtrack.ErrNotFound)
	assert.Nil(t, report)
}

func TestCopy_SameIssue(t *testing.T) {
	client, _, copier := newCopier()

	_, err := copier.Copy(context.Background(), "SRC-1", "SRC-1", CopyOptions{})

	assert.ErrorIs(t, err, repository.ErrInvalidInput)
	client.AssertNotCalled(t, "GetAttachments", mock.Anything, mock.Anything)
}

func TestHistoryAndForget(t *testing.T) {
	ctx := context.Background()
	_, journal, copier := newCopier()

	transfers := []models.Transfer{{ID: 1, SourceAttachmentID: "62-180", TargetIssueID: "DST-1"}}
	journal.On("ListByTarget", ctx, "DST-1").Return(transfers, nil)
	journal.On("DeleteByTarget", ctx, "DST-1").Return(int64(1), nil)

	history, err := copier.History(ctx, "DST-1")
	require.NoError(t, err)
	assert.Equal(t, transfers, history)

	deleted, err := copier.Forget(ctx, "DST-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	journal.AssertExpectations(t)
}

func TestForget_Error(t *testing.T) {
	ctx := context.Background()
	_, journal, copier := newCopier()

	journal.On("DeleteByTarget", ctx, "DST-1").Return(int64(0), errors.New("boom"))

	_, err := copier.Forget(ctx, "DST-1")
	assert.EqualError(t, err, "boom")
}

func TestCopy_AttachmentWithoutURL(t *testing.T) {
	ctx := context.Background()
	requester := new(mocks.MockRequester)
	fetcher := new(mocks.MockContentFetcher)
	journal := new(mocks.MockTransferRepository)

	conn := youtrack.NewConnection(requester, youtrack.WithFetcher(fetcher))
	copier := NewAttachmentCopierService(conn, journal, logger.Discard())

	body := `<fileUrls><fileUrl id="62-182" name="partial.log" created="not-a-number"/></fileUrls>`
	requester.On("Request", ctx, http.MethodGet, "/issue/SRC-1/attachment", "").
		Return(&youtrack.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil).Once()
	journal.On("Exists", ctx, "62-182", "DST-1").Return(false, nil).Once()

	report, err := copier.Copy(ctx, "SRC-1", "DST-1", CopyOptions{})

	assert.ErrorIs(t, err, youtrack.ErrInvalidAttachment)
	assert.Contains(t, err.Error(), "partial.log")
	require.NotNil(t, report)
	assert.Empty(t, report.Copied)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	requester.AssertNotCalled(t, "Request", mock.Anything, http.MethodPost, mock.Anything, mock.Anything)
	journal.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	requester.AssertExpectations(t)
	journal.AssertExpectations(t)
}
