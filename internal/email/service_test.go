package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMIME(t *testing.T) {
	msg := &Message{
		To:             "accounting@example.com",
		CC:             "boss@example.com",
		Subject:        "Invoice for phase 3",
		Body:           "See attachment.",
		Attachment:     []byte("<html>invoice</html>"),
		AttachmentName: "invoice.html",
	}
	out, err := buildMIME("billing@example.com", msg)
	require.NoError(t, err)

	payload := string(out)
	assert.Contains(t, payload, "From: billing@example.com\r\n")
	assert.Contains(t, payload, "To: accounting@example.com\r\n")
	assert.Contains(t, payload, "Cc: boss@example.com\r\n")
	assert.Contains(t, payload, "Subject: Invoice for phase 3\r\n")
	assert.Contains(t, payload, "Content-Type: multipart/mixed")
	assert.Contains(t, payload, `attachment; filename="invoice.html"`)
	assert.Contains(t, payload, "Content-Transfer-Encoding: base64")
	// Base64 of "<html>invoice</html>".
	assert.Contains(t, payload, "PGh0bWw+aW52b2ljZTwvaHRtbD4=")
}

func TestBuildMIMEWithoutCC(t *testing.T) {
	msg := &Message{To: "a@example.com", Subject: "s", Body: "b"}
	out, err := buildMIME("from@example.com", msg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Cc:")
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	require.NoError(t, rec.Send(&Message{To: "a@example.com"}))
	require.Len(t, rec.Sent, 1)
	assert.Equal(t, "a@example.com", rec.Sent[0].To)

	rec.Err = assert.AnError
	assert.Error(t, rec.Send(&Message{To: "b@example.com"}))
	assert.Len(t, rec.Sent, 1)
}

func TestSubjectForPhase(t *testing.T) {
	assert.Equal(t, "Invoice for phase 4", SubjectForPhase(4))
}
