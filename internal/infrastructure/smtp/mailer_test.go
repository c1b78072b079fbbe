package smtp

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage_PlainText(t *testing.T) {
	raw, err := buildMessage("noreply@example.com", Message{To: "ada@example.com", Subject: "Verify your email", Text: "hello"})
	require.NoError(t, err)
	msg := string(raw)
	assert.Contains(t, msg, "To: ada@example.com\r\n")
	assert.Contains(t, msg, "Subject: Verify your email\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\nhello")
}

func TestBuildMessage_Alternative(t *testing.T) {
	raw, err := buildMessage("noreply@example.com", Message{
		To:      "ada@example.com",
		Subject: "Verify your email",
		Text:    "open https://rent.example.com/x?a=1&b=2",
		HTML:    `<a href="https://rent.example.com/x?a=1&amp;b=2">verify</a>`,
	})
	require.NoError(t, err)

	m, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	mediaType, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(m.Body, params["boundary"])
	var types, bodies []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(p)
		require.NoError(t, err)
		types = append(types, p.Header.Get("Content-Type"))
		bodies = append(bodies, string(b))
	}
	assert.Equal(t, []string{"text/plain; charset=UTF-8", "text/html; charset=UTF-8"}, types)
	// multipart.Reader decodes quoted-printable parts transparently
	assert.Equal(t, "open https://rent.example.com/x?a=1&b=2", bodies[0])
	assert.Contains(t, bodies[1], `href="https://rent.example.com/x?a=1&amp;b=2"`)
}

func TestSend_RejectsHeaderInjection(t *testing.T) {
	m := &mailer{host: "localhost", port: "1025", from: "noreply@example.com"}
	err := m.Send(context.Background(), Message{To: "a@example.com\r\nBcc: b@example.com", Subject: "s", Text: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header injection")
}
